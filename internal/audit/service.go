// Package audit records administrator-attributed attendance actions.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/apperr"
)

// Store persists audit entries. There is deliberately no update or delete.
type Store interface {
	AppendAudit(ctx context.Context, entry *models.AdminCheckinAudit) error
	ListAuditByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.AdminCheckinAudit, error)
}

// Writer appends and reads the admin check-in audit trail.
type Writer struct {
	store  Store
	logger *zap.Logger
}

// NewWriter creates an audit writer.
func NewWriter(store Store, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{store: store, logger: logger}
}

// Append records that adminID performed action on targetUserID's attendance at ts.
func (w *Writer) Append(ctx context.Context, eventID, targetUserID, adminID uuid.UUID, action models.AuditAction, ts time.Time) (*models.AdminCheckinAudit, error) {
	if action != models.AuditActionCheckIn && action != models.AuditActionCheckOut {
		return nil, apperr.Wrap(apperr.CodeInvalidArgument, "unknown audit action", nil)
	}
	entry := &models.AdminCheckinAudit{
		ID:        uuid.New(),
		EventID:   eventID,
		UserID:    targetUserID,
		AdminID:   adminID,
		Action:    action,
		Timestamp: ts.UTC(),
	}
	if err := w.store.AppendAudit(ctx, entry); err != nil {
		return nil, err
	}
	w.logger.Debug("audit appended",
		zap.String("event_id", eventID.String()),
		zap.String("user_id", targetUserID.String()),
		zap.String("admin_id", adminID.String()),
		zap.String("action", string(action)),
	)
	return entry, nil
}

// ListByEvent returns an event's audit entries, newest first.
func (w *Writer) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.AdminCheckinAudit, error) {
	return w.store.ListAuditByEvent(ctx, eventID)
}
