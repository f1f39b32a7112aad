package hours

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/apperr"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/database"
)

// Repository handles volunteer_hours persistence. Hours travel as NUMERIC text
// so no precision is lost through float conversion.
type Repository struct {
	db database.DB
}

// NewRepository creates a volunteer hours repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

const entryColumns = `id, session_id, user_id, event_id, organization_id, date, hours::text, notes, created_at`

func scanEntry(row pgx.Row) (*models.VolunteerHours, error) {
	var h models.VolunteerHours
	var hours string
	if err := row.Scan(&h.ID, &h.SessionID, &h.UserID, &h.EventID, &h.OrganizationID, &h.Date, &hours, &h.Notes, &h.CreatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(hours)
	if err != nil {
		return nil, fmt.Errorf("parse hours %q: %w", hours, err)
	}
	h.Hours = d
	return &h, nil
}

// InsertHours appends an entry; a second entry for the same session is ignored.
func (r *Repository) InsertHours(ctx context.Context, h *models.VolunteerHours) (bool, error) {
	const q = `INSERT INTO volunteer_hours (id, session_id, user_id, event_id, organization_id, date, hours, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8)
		ON CONFLICT (session_id) DO NOTHING
		RETURNING created_at`
	err := r.db.QueryRow(ctx, q, h.ID, h.SessionID, h.UserID, h.EventID, h.OrganizationID, h.Date, h.Hours.StringFixed(Places), h.Notes).
		Scan(&h.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, database.Classify(err)
	}
	return true, nil
}

// GetHoursBySession returns the entry credited for a session.
func (r *Repository) GetHoursBySession(ctx context.Context, sessionID uuid.UUID) (*models.VolunteerHours, error) {
	q := `SELECT ` + entryColumns + ` FROM volunteer_hours WHERE session_id = $1`
	h, err := scanEntry(r.db.QueryRow(ctx, q, sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return h, nil
}

// SumHours totals a member's entries; nil scope fields do not filter.
func (r *Repository) SumHours(ctx context.Context, userID uuid.UUID, scope models.HoursScope) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(hours), 0)::text FROM volunteer_hours
		WHERE user_id = $1
		  AND ($2::uuid IS NULL OR organization_id = $2)
		  AND ($3::uuid IS NULL OR event_id = $3)`
	var total string
	if err := r.db.QueryRow(ctx, q, userID, scope.OrganizationID, scope.EventID).Scan(&total); err != nil {
		return decimal.Zero, database.Classify(err)
	}
	return decimal.NewFromString(total)
}

// ListHoursByUser returns a member's entries, newest first.
func (r *Repository) ListHoursByUser(ctx context.Context, userID uuid.UUID, scope models.HoursScope) ([]*models.VolunteerHours, error) {
	q := `SELECT ` + entryColumns + ` FROM volunteer_hours
		WHERE user_id = $1
		  AND ($2::uuid IS NULL OR organization_id = $2)
		  AND ($3::uuid IS NULL OR event_id = $3)
		ORDER BY date DESC, created_at DESC`
	rows, err := r.db.Query(ctx, q, userID, scope.OrganizationID, scope.EventID)
	if err != nil {
		return nil, database.Classify(err)
	}
	defer rows.Close()
	var list []*models.VolunteerHours
	for rows.Next() {
		h, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, h)
	}
	return list, database.Classify(rows.Err())
}

const pendingColumns = `c.id, c.event_id, c.user_id, c.check_in_time, c.check_out_time,
	c.checked_in_by_admin, c.checked_out_by_admin, c.latitude, c.longitude, e.organization_id`

func scanPending(row pgx.Row) (*models.PendingSession, error) {
	var p models.PendingSession
	s := &p.Session
	if err := row.Scan(&s.ID, &s.EventID, &s.UserID, &s.CheckInTime, &s.CheckOutTime,
		&s.CheckedInByAdmin, &s.CheckedOutByAdmin, &s.Latitude, &s.Longitude, &p.OrganizationID); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPendingSession loads a session with the organization of its event.
func (r *Repository) GetPendingSession(ctx context.Context, sessionID uuid.UUID) (*models.PendingSession, error) {
	q := `SELECT ` + pendingColumns + `
		FROM event_checkins c
		JOIN events e ON e.id = c.event_id
		WHERE c.id = $1`
	p, err := scanPending(r.db.QueryRow(ctx, q, sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return p, nil
}

// ListUnrecordedSessions returns sessions closed at or before closedBefore that lack a ledger entry, oldest check-out first.
func (r *Repository) ListUnrecordedSessions(ctx context.Context, closedBefore time.Time, limit int) ([]*models.PendingSession, error) {
	q := `SELECT ` + pendingColumns + `
		FROM event_checkins c
		JOIN events e ON e.id = c.event_id
		LEFT JOIN volunteer_hours h ON h.session_id = c.id
		WHERE c.check_out_time IS NOT NULL AND c.check_out_time <= $1 AND h.id IS NULL
		ORDER BY c.check_out_time ASC
		LIMIT $2`
	rows, err := r.db.Query(ctx, q, closedBefore, limit)
	if err != nil {
		return nil, database.Classify(err)
	}
	defer rows.Close()
	var list []*models.PendingSession
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, database.Classify(rows.Err())
}
