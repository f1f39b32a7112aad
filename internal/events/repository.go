package events

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

// Repository handles event persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates an event repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

const eventColumns = `id, organization_id, title, description, max_attendees, status, started_at, ended_at, signup_count, created_by, created_at, updated_at`

// ScanEvent scans one events row selected with the standard column list.
func ScanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	var status string
	err := row.Scan(&e.ID, &e.OrganizationID, &e.Title, &e.Description, &e.MaxAttendees, &status,
		&e.StartedAt, &e.EndedAt, &e.SignupCount, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Status = models.EventStatus(status)
	return &e, nil
}

// Columns is the column list ScanEvent expects.
func Columns() string {
	return eventColumns
}

// InsertEvent inserts a new event.
func (r *Repository) InsertEvent(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (id, organization_id, title, description, max_attendees, status, signup_count, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(ctx, q, e.ID, e.OrganizationID, e.Title, e.Description, e.MaxAttendees, string(e.Status),
		e.SignupCount, e.CreatedBy, e.CreatedAt, e.UpdatedAt)
	if database.IsForeignKeyViolation(err) {
		return apperr.Wrap(apperr.CodeNotFound, "organization not found", err)
	}
	return database.Classify(err)
}

// GetEvent returns an event by ID.
func (r *Repository) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := ScanEvent(r.db.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return e, nil
}

// ListEventsByOrganization returns an organization's events, newest first.
func (r *Repository) ListEventsByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE organization_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, q, orgID)
	if err != nil {
		return nil, database.Classify(err)
	}
	defer rows.Close()
	var list []*models.Event
	for rows.Next() {
		e, err := ScanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, database.Classify(rows.Err())
}

// TransitionEvent applies a status change in one conditional UPDATE. When no
// row matches, a follow-up read tells a missing event from a disallowed transition.
func (r *Repository) TransitionEvent(ctx context.Context, id uuid.UUID, from []models.EventStatus, to models.EventStatus, at time.Time) (*models.Event, error) {
	q := `UPDATE events SET
			status = $2,
			started_at = CASE WHEN $2 = 'in_progress' THEN $4 ELSE started_at END,
			ended_at = CASE WHEN $2 = 'completed' THEN $4 ELSE ended_at END,
			updated_at = $4
		WHERE id = $1 AND status = ANY($3)
		RETURNING ` + eventColumns
	allowed := make([]string, len(from))
	for i, f := range from {
		allowed[i] = string(f)
	}
	e, err := ScanEvent(r.db.QueryRow(ctx, q, id, string(to), allowed, at))
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, database.Classify(err)
	}
	var status string
	err = r.db.QueryRow(ctx, `SELECT status FROM events WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return nil, apperr.Wrap(apperr.CodeInvalidTransition, "cannot move event from "+status+" to "+string(to), nil)
}
