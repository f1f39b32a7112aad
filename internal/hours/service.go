package hours

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/obs"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/apperr"
)

// Store persists ledger entries. Entries are never updated or deleted.
type Store interface {
	// InsertHours reports false when the session already has an entry.
	InsertHours(ctx context.Context, entry *models.VolunteerHours) (bool, error)
	GetHoursBySession(ctx context.Context, sessionID uuid.UUID) (*models.VolunteerHours, error)
	SumHours(ctx context.Context, userID uuid.UUID, scope models.HoursScope) (decimal.Decimal, error)
	ListHoursByUser(ctx context.Context, userID uuid.UUID, scope models.HoursScope) ([]*models.VolunteerHours, error)
	GetPendingSession(ctx context.Context, sessionID uuid.UUID) (*models.PendingSession, error)
	ListUnrecordedSessions(ctx context.Context, closedBefore time.Time, limit int) ([]*models.PendingSession, error)
}

// Ledger appends and totals volunteer-hours entries.
type Ledger struct {
	store  Store
	logger *zap.Logger
}

// NewLedger creates a ledger.
func NewLedger(store Store, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{store: store, logger: logger}
}

// RecordSession appends the entry for a closed session. Recording the same
// session twice returns the existing entry.
func (l *Ledger) RecordSession(ctx context.Context, session *models.CheckInSession, organizationID uuid.UUID, notes string) (*models.VolunteerHours, error) {
	if session == nil || session.CheckOutTime == nil {
		return nil, apperr.Wrap(apperr.CodeInvalidArgument, "session is not closed", nil)
	}
	entry := &models.VolunteerHours{
		ID:             uuid.New(),
		SessionID:      session.ID,
		UserID:         session.UserID,
		EventID:        session.EventID,
		OrganizationID: organizationID,
		Date:           EntryDate(session.CheckInTime),
		Hours:          ComputeHours(session.CheckInTime, *session.CheckOutTime),
		Notes:          notes,
	}
	inserted, err := l.store.InsertHours(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("insert hours for session %s: %w", session.ID, err)
	}
	if !inserted {
		return l.store.GetHoursBySession(ctx, session.ID)
	}
	obs.HoursRecorded()
	l.logger.Info("volunteer hours recorded",
		zap.String("session_id", session.ID.String()),
		zap.String("user_id", session.UserID.String()),
		zap.String("hours", entry.Hours.StringFixed(Places)),
	)
	return entry, nil
}

// RecordBySessionID loads a closed session and records it.
func (l *Ledger) RecordBySessionID(ctx context.Context, sessionID uuid.UUID, notes string) (*models.VolunteerHours, error) {
	pending, err := l.store.GetPendingSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return l.RecordSession(ctx, &pending.Session, pending.OrganizationID, notes)
}

// TotalHours sums a member's entries within exactly one of organization or event.
func (l *Ledger) TotalHours(ctx context.Context, userID uuid.UUID, scope models.HoursScope) (*models.HoursTotal, error) {
	if (scope.OrganizationID == nil) == (scope.EventID == nil) {
		return nil, apperr.Wrap(apperr.CodeInvalidArgument, "exactly one of organization_id or event_id is required", nil)
	}
	sum, err := l.store.SumHours(ctx, userID, scope)
	if err != nil {
		return nil, err
	}
	return &models.HoursTotal{
		UserID:         userID,
		OrganizationID: scope.OrganizationID,
		EventID:        scope.EventID,
		Hours:          sum.Round(Places),
	}, nil
}

// ListByUser returns a member's entries, optionally narrowed by scope.
func (l *Ledger) ListByUser(ctx context.Context, userID uuid.UUID, scope models.HoursScope) ([]*models.VolunteerHours, error) {
	return l.store.ListHoursByUser(ctx, userID, scope)
}
