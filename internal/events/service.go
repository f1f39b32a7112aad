// Package events drives an event through its lifecycle.
package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/obs"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/apperr"
)

// Store persists events. TransitionEvent must apply the status change only when
// the current status is one of from, in a single conditional write.
type Store interface {
	InsertEvent(ctx context.Context, e *models.Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ListEventsByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Event, error)
	TransitionEvent(ctx context.Context, id uuid.UUID, from []models.EventStatus, to models.EventStatus, at time.Time) (*models.Event, error)
}

// AdminChecker answers whether a user administers an organization.
type AdminChecker interface {
	IsOrgAdmin(ctx context.Context, orgID, userID uuid.UUID) (bool, error)
}

// OpenSessionCounter counts check-in sessions still open for an event.
type OpenSessionCounter interface {
	CountOpenSessions(ctx context.Context, eventID uuid.UUID) (int, error)
}

// Publisher notifies dashboards of changes.
type Publisher interface {
	Publish(ctx context.Context, change models.Change) error
}

// CreateInput describes a new draft event.
type CreateInput struct {
	OrganizationID uuid.UUID
	Title          string
	Description    string
	MaxAttendees   int
}

// Service is the event lifecycle controller.
type Service struct {
	store    Store
	admins   AdminChecker
	sessions OpenSessionCounter
	relay    Publisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates an event lifecycle service.
func NewService(store Store, admins AdminChecker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		admins: admins,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithOpenSessionCounter lets End report sessions left open.
func (s *Service) WithOpenSessionCounter(c OpenSessionCounter) *Service {
	s.sessions = c
	return s
}

// WithPublisher sets the change relay.
func (s *Service) WithPublisher(p Publisher) *Service {
	s.relay = p
	return s
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create stores a draft event. The caller must administer the organization.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, in CreateInput) (*models.Event, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Wrap(apperr.CodeInvalidArgument, "title is required", nil)
	}
	if in.MaxAttendees < 1 {
		return nil, apperr.Wrap(apperr.CodeInvalidArgument, "max_attendees must be at least 1", nil)
	}
	if err := s.requireAdmin(ctx, in.OrganizationID, actorID); err != nil {
		return nil, err
	}
	now := s.now()
	e := &models.Event{
		ID:             uuid.New(),
		OrganizationID: in.OrganizationID,
		Title:          title,
		Description:    in.Description,
		MaxAttendees:   in.MaxAttendees,
		Status:         models.EventStatusDraft,
		CreatedBy:      actorID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.InsertEvent(ctx, e); err != nil {
		return nil, err
	}
	s.notify(ctx, e, models.ChangeInsert)
	s.logger.Info("event created", zap.String("event_id", e.ID.String()), zap.String("organization_id", e.OrganizationID.String()))
	return e, nil
}

// Get returns an event by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return s.store.GetEvent(ctx, id)
}

// ListByOrganization returns an organization's events, newest first.
func (s *Service) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.Event, error) {
	return s.store.ListEventsByOrganization(ctx, orgID)
}

// Publish moves a draft event to published.
func (s *Service) Publish(ctx context.Context, eventID, actorID uuid.UUID) (*models.Event, error) {
	return s.transition(ctx, eventID, actorID, models.TransitionPublish)
}

// Start moves a published event to in_progress and stamps started_at.
func (s *Service) Start(ctx context.Context, eventID, actorID uuid.UUID) (*models.Event, error) {
	return s.transition(ctx, eventID, actorID, models.TransitionStart)
}

// End moves an in-progress event to completed and stamps ended_at.
// Open check-in sessions are left open and reported in the log.
func (s *Service) End(ctx context.Context, eventID, actorID uuid.UUID) (*models.Event, error) {
	e, err := s.transition(ctx, eventID, actorID, models.TransitionEnd)
	if err != nil {
		return nil, err
	}
	if s.sessions != nil {
		open, err := s.sessions.CountOpenSessions(ctx, eventID)
		if err != nil {
			s.logger.Warn("count open sessions failed", zap.String("event_id", eventID.String()), zap.Error(err))
		} else if open > 0 {
			s.logger.Warn("event ended with open check-in sessions",
				zap.String("event_id", eventID.String()),
				zap.Int("open_sessions", open),
			)
		}
	}
	return e, nil
}

// Cancel moves a draft or published event to cancelled.
func (s *Service) Cancel(ctx context.Context, eventID, actorID uuid.UUID) (*models.Event, error) {
	return s.transition(ctx, eventID, actorID, models.TransitionCancel)
}

func (s *Service) transition(ctx context.Context, eventID, actorID uuid.UUID, t models.Transition) (*models.Event, error) {
	from, to, ok := models.AllowedFrom(t)
	if !ok {
		return nil, apperr.Wrap(apperr.CodeInvalidArgument, "unknown transition "+string(t), nil)
	}
	current, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		obs.Operation(string(t), obs.ResultError)
		return nil, err
	}
	if err := s.requireAdmin(ctx, current.OrganizationID, actorID); err != nil {
		obs.Operation(string(t), obs.ResultRejected)
		return nil, err
	}
	e, err := s.store.TransitionEvent(ctx, eventID, from, to, s.now())
	if err != nil {
		obs.Operation(string(t), resultOf(err))
		s.logger.Info("event transition rejected",
			zap.String("event_id", eventID.String()),
			zap.String("transition", string(t)),
			zap.Error(err),
		)
		return nil, err
	}
	obs.Operation(string(t), obs.ResultOK)
	s.notify(ctx, e, models.ChangeUpdate)
	s.logger.Info("event transitioned",
		zap.String("event_id", eventID.String()),
		zap.String("transition", string(t)),
		zap.String("status", string(e.Status)),
	)
	return e, nil
}

func (s *Service) requireAdmin(ctx context.Context, orgID, userID uuid.UUID) error {
	ok, err := s.admins.IsOrgAdmin(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrForbidden
	}
	return nil
}

func (s *Service) notify(ctx context.Context, e *models.Event, op models.ChangeOp) {
	if s.relay == nil {
		return
	}
	change := models.Change{
		Table:          models.TableEvents,
		Op:             op,
		EventID:        e.ID,
		OrganizationID: e.OrganizationID,
		RowID:          e.ID,
		At:             s.now(),
	}
	if err := s.relay.Publish(ctx, change); err != nil {
		obs.SideEffectFailed(obs.SideEffectRelay)
		s.logger.Warn("publish event change failed", zap.String("event_id", e.ID.String()), zap.Error(err))
	}
}

func resultOf(err error) string {
	switch apperr.CodeOf(err) {
	case apperr.CodeUnknown, apperr.CodePersistenceUnavailable:
		return obs.ResultError
	}
	return obs.ResultRejected
}
