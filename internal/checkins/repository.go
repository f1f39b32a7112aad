package checkins

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/apperr"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/database"
)

// openSessionIndex is the partial unique index allowing one open session per (event, user).
const openSessionIndex = "event_checkins_one_open_session"

// Repository handles event_checkins persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates a check-in session repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

const sessionColumns = `id, event_id, user_id, check_in_time, check_out_time, checked_in_by_admin, checked_out_by_admin, latitude, longitude`

func scanSession(row pgx.Row) (*models.CheckInSession, error) {
	var s models.CheckInSession
	if err := row.Scan(&s.ID, &s.EventID, &s.UserID, &s.CheckInTime, &s.CheckOutTime,
		&s.CheckedInByAdmin, &s.CheckedOutByAdmin, &s.Latitude, &s.Longitude); err != nil {
		return nil, err
	}
	return &s, nil
}

// InsertSession opens a session. The partial unique index turns a concurrent
// or repeated check-in into a unique violation.
func (r *Repository) InsertSession(ctx context.Context, s *models.CheckInSession) error {
	const q = `INSERT INTO event_checkins (id, event_id, user_id, check_in_time, checked_in_by_admin, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(ctx, q, s.ID, s.EventID, s.UserID, s.CheckInTime, s.CheckedInByAdmin, s.Latitude, s.Longitude)
	switch {
	case err == nil:
		return nil
	case database.IsUniqueViolation(err, openSessionIndex):
		return apperr.Wrap(apperr.CodeAlreadyCheckedIn, "already checked in", err)
	case database.IsForeignKeyViolation(err):
		return apperr.Wrap(apperr.CodeNotFound, "event not found", err)
	}
	return database.Classify(err)
}

// CloseLatestSession closes the most recent open session in one statement. The
// row lock plus the re-checked predicate make a racing second check-out match nothing.
func (r *Repository) CloseLatestSession(ctx context.Context, eventID, userID uuid.UUID, at time.Time, byAdmin bool) (*models.CheckInSession, error) {
	q := `UPDATE event_checkins
		SET check_out_time = GREATEST($3::timestamptz, check_in_time), checked_out_by_admin = $4
		WHERE id = (
			SELECT id FROM event_checkins
			WHERE event_id = $1 AND user_id = $2 AND check_out_time IS NULL
			ORDER BY check_in_time DESC
			LIMIT 1
			FOR UPDATE
		)
		AND check_out_time IS NULL
		RETURNING ` + sessionColumns
	s, err := scanSession(r.db.QueryRow(ctx, q, eventID, userID, at, byAdmin))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNoActiveSession
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return s, nil
}

// GetActiveSession returns the open session for event+user, or nil.
func (r *Repository) GetActiveSession(ctx context.Context, eventID, userID uuid.UUID) (*models.CheckInSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM event_checkins
		WHERE event_id = $1 AND user_id = $2 AND check_out_time IS NULL`
	s, err := scanSession(r.db.QueryRow(ctx, q, eventID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return s, nil
}

// ListSessionsByEvent returns an event's sessions, latest check-in first.
func (r *Repository) ListSessionsByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.CheckInSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM event_checkins WHERE event_id = $1 ORDER BY check_in_time DESC`
	return r.list(ctx, q, eventID)
}

// ListOpenSessions returns an event's open sessions, latest check-in first.
func (r *Repository) ListOpenSessions(ctx context.Context, eventID uuid.UUID) ([]*models.CheckInSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM event_checkins
		WHERE event_id = $1 AND check_out_time IS NULL
		ORDER BY check_in_time DESC`
	return r.list(ctx, q, eventID)
}

// CountOpenSessions counts an event's open sessions.
func (r *Repository) CountOpenSessions(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM event_checkins WHERE event_id = $1 AND check_out_time IS NULL`, eventID).Scan(&n)
	return n, database.Classify(err)
}

func (r *Repository) list(ctx context.Context, q string, eventID uuid.UUID) ([]*models.CheckInSession, error) {
	rows, err := r.db.Query(ctx, q, eventID)
	if err != nil {
		return nil, database.Classify(err)
	}
	defer rows.Close()
	var list []*models.CheckInSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, database.Classify(rows.Err())
}
