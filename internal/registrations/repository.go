package registrations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/events"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/apperr"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/database"
)

// Repository handles event_attendees persistence together with the event signup count.
type Repository struct {
	db database.DB
}

// NewRepository creates a registrations repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// InsertRegistration inserts the attendee row and increments signup_count in one
// transaction. The guarded UPDATE locks the event row, so concurrent registrations
// for the last seat serialize and exactly one of them commits.
func (r *Repository) InsertRegistration(ctx context.Context, reg *models.Registration) (*models.Event, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, database.Classify(err)
	}
	defer database.Rollback(ctx, tx)

	const insert = `INSERT INTO event_attendees (id, event_id, user_id, status, joined_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id, user_id) DO NOTHING
		RETURNING id`
	var id uuid.UUID
	err = tx.QueryRow(ctx, insert, reg.ID, reg.EventID, reg.UserID, string(reg.Status), reg.JoinedAt).Scan(&id)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, apperr.ErrDuplicateRegistration
	case database.IsForeignKeyViolation(err):
		return nil, apperr.Wrap(apperr.CodeNotFound, "event not found", err)
	case err != nil:
		return nil, database.Classify(err)
	}

	increment := `UPDATE events SET signup_count = signup_count + 1, updated_at = NOW()
		WHERE id = $1
		  AND signup_count < max_attendees
		  AND status IN ('published', 'in_progress')
		RETURNING ` + events.Columns()
	e, err := events.ScanEvent(tx.QueryRow(ctx, increment, reg.EventID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.rejection(ctx, tx, reg.EventID)
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, database.Classify(err)
	}
	return e, nil
}

// rejection explains why the guarded increment matched no row.
func (r *Repository) rejection(ctx context.Context, tx pgx.Tx, eventID uuid.UUID) error {
	var status string
	var count, capacity int
	err := tx.QueryRow(ctx, `SELECT status, signup_count, max_attendees FROM events WHERE id = $1`, eventID).
		Scan(&status, &count, &capacity)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return database.Classify(err)
	}
	if !models.EventStatus(status).AcceptsRegistrations() {
		return apperr.Wrap(apperr.CodeEventNotOpen, fmt.Sprintf("event is %s", status), nil)
	}
	return apperr.Wrap(apperr.CodeEventFull, fmt.Sprintf("event is full (%d/%d)", count, capacity), nil)
}

// DeleteRegistration removes the attendee row and decrements signup_count, floored at zero.
func (r *Repository) DeleteRegistration(ctx context.Context, eventID, userID uuid.UUID) (uuid.UUID, *models.Event, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, nil, database.Classify(err)
	}
	defer database.Rollback(ctx, tx)

	var id uuid.UUID
	err = tx.QueryRow(ctx, `DELETE FROM event_attendees WHERE event_id = $1 AND user_id = $2 RETURNING id`, eventID, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, nil, apperr.ErrNotRegistered
	}
	if err != nil {
		return uuid.Nil, nil, database.Classify(err)
	}

	decrement := `UPDATE events SET signup_count = GREATEST(signup_count - 1, 0), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + events.Columns()
	e, err := events.ScanEvent(tx.QueryRow(ctx, decrement, eventID))
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, nil, apperr.ErrNotFound
	}
	if err != nil {
		return uuid.Nil, nil, database.Classify(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, nil, database.Classify(err)
	}
	return id, e, nil
}

const registrationColumns = `id, event_id, user_id, status, joined_at`

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	var status string
	if err := row.Scan(&reg.ID, &reg.EventID, &reg.UserID, &status, &reg.JoinedAt); err != nil {
		return nil, err
	}
	reg.Status = models.RegistrationStatus(status)
	return &reg, nil
}

// GetRegistration returns the registration for event+user.
func (r *Repository) GetRegistration(ctx context.Context, eventID, userID uuid.UUID) (*models.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM event_attendees WHERE event_id = $1 AND user_id = $2`
	reg, err := scanRegistration(r.db.QueryRow(ctx, q, eventID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotRegistered
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return reg, nil
}

// ListRegistrationsByEvent returns an event's registrations in signup order.
func (r *Repository) ListRegistrationsByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM event_attendees WHERE event_id = $1 ORDER BY joined_at ASC`
	return r.list(ctx, q, eventID)
}

// ListRegistrationsByUser returns a member's registrations, newest first.
func (r *Repository) ListRegistrationsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM event_attendees WHERE user_id = $1 ORDER BY joined_at DESC`
	return r.list(ctx, q, userID)
}

func (r *Repository) list(ctx context.Context, q string, arg uuid.UUID) ([]*models.Registration, error) {
	rows, err := r.db.Query(ctx, q, arg)
	if err != nil {
		return nil, database.Classify(err)
	}
	defer rows.Close()
	var list []*models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, reg)
	}
	return list, database.Classify(rows.Err())
}
