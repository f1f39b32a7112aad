package audit

import (
	"context"

	"github.com/google/uuid"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/database"
)

// Repository handles admin_checkin_audit persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates an audit repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// AppendAudit inserts one audit row.
func (r *Repository) AppendAudit(ctx context.Context, e *models.AdminCheckinAudit) error {
	const q = `INSERT INTO admin_checkin_audit (id, event_id, user_id, admin_id, action, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(ctx, q, e.ID, e.EventID, e.UserID, e.AdminID, string(e.Action), e.Timestamp)
	return database.Classify(err)
}

// ListAuditByEvent returns audit entries for an event, newest first.
func (r *Repository) ListAuditByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.AdminCheckinAudit, error) {
	const q = `SELECT id, event_id, user_id, admin_id, action, timestamp
		FROM admin_checkin_audit
		WHERE event_id = $1
		ORDER BY timestamp DESC`
	rows, err := r.db.Query(ctx, q, eventID)
	if err != nil {
		return nil, database.Classify(err)
	}
	defer rows.Close()
	var list []*models.AdminCheckinAudit
	for rows.Next() {
		var e models.AdminCheckinAudit
		var action string
		if err := rows.Scan(&e.ID, &e.EventID, &e.UserID, &e.AdminID, &action, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Action = models.AuditAction(action)
		list = append(list, &e)
	}
	return list, database.Classify(rows.Err())
}
