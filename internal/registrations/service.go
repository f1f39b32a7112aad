// Package registrations admits members to events within capacity.
package registrations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/obs"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/apperr"
)

// Store persists registrations. InsertRegistration and DeleteRegistration
// must change the row and the event's signup_count atomically.
type Store interface {
	// InsertRegistration fails with REGISTRATION_DUPLICATE, EVENT_NOT_OPEN,
	// EVENT_FULL or NOT_FOUND and returns the event with its new count.
	InsertRegistration(ctx context.Context, reg *models.Registration) (*models.Event, error)
	// DeleteRegistration returns the removed row's ID. It fails with
	// REGISTRATION_NOT_FOUND and leaves the count unchanged.
	DeleteRegistration(ctx context.Context, eventID, userID uuid.UUID) (uuid.UUID, *models.Event, error)
	GetRegistration(ctx context.Context, eventID, userID uuid.UUID) (*models.Registration, error)
	ListRegistrationsByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.Registration, error)
	ListRegistrationsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Registration, error)
}

// Publisher notifies dashboards of changes.
type Publisher interface {
	Publish(ctx context.Context, change models.Change) error
}

// Manager registers and unregisters members.
type Manager struct {
	store  Store
	relay  Publisher
	logger *zap.Logger
	now    func() time.Time
}

// NewManager creates a registration manager. relay may be nil.
func NewManager(store Store, relay Publisher, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:  store,
		relay:  relay,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the time source.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Register admits userID to eventID if the event is open and has room.
func (m *Manager) Register(ctx context.Context, eventID, userID uuid.UUID) (*models.Registration, error) {
	reg := &models.Registration{
		ID:       uuid.New(),
		EventID:  eventID,
		UserID:   userID,
		Status:   models.RegistrationConfirmed,
		JoinedAt: m.now(),
	}
	e, err := m.store.InsertRegistration(ctx, reg)
	if err != nil {
		obs.Operation("register", resultOf(err))
		m.logger.Info("registration rejected",
			zap.String("event_id", eventID.String()),
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return nil, err
	}
	obs.Operation("register", obs.ResultOK)
	m.notify(ctx, e, reg.ID, models.ChangeInsert)
	m.logger.Info("registered",
		zap.String("event_id", eventID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("signup_count", e.SignupCount),
	)
	return reg, nil
}

// Unregister removes userID's registration. Without one it returns
// REGISTRATION_NOT_FOUND and the signup count is untouched.
func (m *Manager) Unregister(ctx context.Context, eventID, userID uuid.UUID) error {
	regID, e, err := m.store.DeleteRegistration(ctx, eventID, userID)
	if err != nil {
		obs.Operation("unregister", resultOf(err))
		return err
	}
	obs.Operation("unregister", obs.ResultOK)
	m.notify(ctx, e, regID, models.ChangeDelete)
	m.logger.Info("unregistered",
		zap.String("event_id", eventID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("signup_count", e.SignupCount),
	)
	return nil
}

// Get returns userID's registration for eventID.
func (m *Manager) Get(ctx context.Context, eventID, userID uuid.UUID) (*models.Registration, error) {
	return m.store.GetRegistration(ctx, eventID, userID)
}

// ListByEvent returns an event's registrations in signup order.
func (m *Manager) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.Registration, error) {
	return m.store.ListRegistrationsByEvent(ctx, eventID)
}

// ListByUser returns a member's registrations, newest first.
func (m *Manager) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Registration, error) {
	return m.store.ListRegistrationsByUser(ctx, userID)
}

func (m *Manager) notify(ctx context.Context, e *models.Event, rowID uuid.UUID, op models.ChangeOp) {
	if m.relay == nil {
		return
	}
	change := models.Change{
		Table:          models.TableRegistrations,
		Op:             op,
		EventID:        e.ID,
		OrganizationID: e.OrganizationID,
		RowID:          rowID,
		At:             m.now(),
	}
	if err := m.relay.Publish(ctx, change); err != nil {
		obs.SideEffectFailed(obs.SideEffectRelay)
		m.logger.Warn("publish registration change failed", zap.String("event_id", e.ID.String()), zap.Error(err))
	}
}

func resultOf(err error) string {
	switch apperr.CodeOf(err) {
	case apperr.CodeUnknown, apperr.CodePersistenceUnavailable:
		return obs.ResultError
	}
	return obs.ResultRejected
}
