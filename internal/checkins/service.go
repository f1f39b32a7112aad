// Package checkins tracks attendance sessions and triggers the hours and audit side effects.
package checkins

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/obs"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/apperr"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/queue"
)

// Notes recorded on ledger entries.
const (
	NoteSelfCheckOut  = "self check-out"
	NoteAdminCheckOut = "checked out by admin"
)

// Store persists sessions. InsertSession must fail with SESSION_ALREADY_CHECKED_IN
// when an open session exists, and CloseLatestSession must close at most one
// open session in a single conditional write.
type Store interface {
	InsertSession(ctx context.Context, s *models.CheckInSession) error
	CloseLatestSession(ctx context.Context, eventID, userID uuid.UUID, at time.Time, byAdmin bool) (*models.CheckInSession, error)
	// GetActiveSession returns nil when no session is open.
	GetActiveSession(ctx context.Context, eventID, userID uuid.UUID) (*models.CheckInSession, error)
	ListSessionsByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.CheckInSession, error)
	ListOpenSessions(ctx context.Context, eventID uuid.UUID) ([]*models.CheckInSession, error)
	CountOpenSessions(ctx context.Context, eventID uuid.UUID) (int, error)
}

// EventReader loads an event.
type EventReader interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// AdminChecker answers whether a user administers an organization.
type AdminChecker interface {
	IsOrgAdmin(ctx context.Context, orgID, userID uuid.UUID) (bool, error)
}

// HoursRecorder appends the ledger entry for a closed session.
type HoursRecorder interface {
	RecordSession(ctx context.Context, session *models.CheckInSession, organizationID uuid.UUID, notes string) (*models.VolunteerHours, error)
}

// AuditAppender records administrator actions.
type AuditAppender interface {
	Append(ctx context.Context, eventID, targetUserID, adminID uuid.UUID, action models.AuditAction, ts time.Time) (*models.AdminCheckinAudit, error)
}

// RetryQueue accepts hours recordings that failed after check-out.
type RetryQueue interface {
	EnqueueHoursRecord(ctx context.Context, payload queue.HoursRecordPayload) error
}

// Publisher notifies dashboards of changes.
type Publisher interface {
	Publish(ctx context.Context, change models.Change) error
}

// CheckOutResult is a closed session and its ledger entry. Entry is nil and
// Warning is set when the session closed but hours could not be recorded.
type CheckOutResult struct {
	Session *models.CheckInSession `json:"session"`
	Entry   *models.VolunteerHours `json:"entry,omitempty"`
	Warning string                 `json:"warning,omitempty"`
}

// Tracker is the session tracker.
type Tracker struct {
	store  Store
	events EventReader
	admins AdminChecker
	hours  HoursRecorder
	audit  AuditAppender
	retry  RetryQueue
	relay  Publisher
	logger *zap.Logger
	now    func() time.Time
}

// NewTracker creates a session tracker.
func NewTracker(store Store, events EventReader, admins AdminChecker, hours HoursRecorder, audit AuditAppender, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		store:  store,
		events: events,
		admins: admins,
		hours:  hours,
		audit:  audit,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithRetryQueue enqueues failed hours recordings for the worker.
func (t *Tracker) WithRetryQueue(q RetryQueue) *Tracker {
	t.retry = q
	return t
}

// WithPublisher sets the change relay.
func (t *Tracker) WithPublisher(p Publisher) *Tracker {
	t.relay = p
	return t
}

// WithClock overrides the time source.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// CheckIn opens a session for userID. The event must be in progress. loc is
// kept only for self check-in.
func (t *Tracker) CheckIn(ctx context.Context, eventID, userID uuid.UUID, actor models.Actor, loc *models.Location) (*models.CheckInSession, error) {
	e, err := t.authorize(ctx, eventID, userID, actor)
	if err != nil {
		obs.Operation("checkin", resultOf(err))
		return nil, err
	}
	if e.Status != models.EventStatusInProgress {
		obs.Operation("checkin", obs.ResultRejected)
		return nil, apperr.Wrap(apperr.CodeEventNotActive, "event is "+string(e.Status), nil)
	}
	onBehalf := actor.OnBehalfOf(userID)
	session := &models.CheckInSession{
		ID:               uuid.New(),
		EventID:          eventID,
		UserID:           userID,
		CheckInTime:      t.now(),
		CheckedInByAdmin: onBehalf,
	}
	if loc != nil && !onBehalf {
		lat, lng := loc.Latitude, loc.Longitude
		session.Latitude, session.Longitude = &lat, &lng
	}
	if err := t.store.InsertSession(ctx, session); err != nil {
		obs.Operation("checkin", resultOf(err))
		return nil, err
	}
	obs.Operation("checkin", obs.ResultOK)
	t.logger.Info("checked in",
		zap.String("event_id", eventID.String()),
		zap.String("user_id", userID.String()),
		zap.Bool("by_admin", onBehalf),
	)
	t.notify(ctx, e, models.TableCheckins, models.ChangeInsert, session.ID)
	if onBehalf {
		t.appendAudit(ctx, e, userID, actor.UserID, models.AuditActionCheckIn, session.CheckInTime)
	}
	return session, nil
}

// CheckOut closes userID's most recent open session and records its hours.
// A failed hours write does not undo the check-out.
func (t *Tracker) CheckOut(ctx context.Context, eventID, userID uuid.UUID, actor models.Actor) (*CheckOutResult, error) {
	e, err := t.authorize(ctx, eventID, userID, actor)
	if err != nil {
		obs.Operation("checkout", resultOf(err))
		return nil, err
	}
	result, err := t.closeSession(ctx, e, userID, actor)
	if err != nil {
		obs.Operation("checkout", resultOf(err))
		return nil, err
	}
	obs.Operation("checkout", obs.ResultOK)
	return result, nil
}

// CheckOutAll closes every open session of an event on behalf of an administrator.
func (t *Tracker) CheckOutAll(ctx context.Context, eventID, adminID uuid.UUID) ([]*CheckOutResult, error) {
	e, err := t.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := t.requireAdmin(ctx, e.OrganizationID, adminID); err != nil {
		return nil, err
	}
	open, err := t.store.ListOpenSessions(ctx, eventID)
	if err != nil {
		return nil, err
	}
	actor := models.AdminActor(adminID)
	results := make([]*CheckOutResult, 0, len(open))
	for _, s := range open {
		r, err := t.closeSession(ctx, e, s.UserID, actor)
		if errors.Is(err, apperr.ErrNoActiveSession) {
			continue
		}
		if err != nil {
			obs.Operation("checkout_all", resultOf(err))
			return results, err
		}
		results = append(results, r)
	}
	obs.Operation("checkout_all", obs.ResultOK)
	t.logger.Info("checked out all open sessions", zap.String("event_id", eventID.String()), zap.Int("closed", len(results)))
	return results, nil
}

// GetActiveSession returns userID's open session, or nil.
func (t *Tracker) GetActiveSession(ctx context.Context, eventID, userID uuid.UUID) (*models.CheckInSession, error) {
	return t.store.GetActiveSession(ctx, eventID, userID)
}

// ListByEvent returns an event's sessions, latest check-in first.
func (t *Tracker) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*models.CheckInSession, error) {
	return t.store.ListSessionsByEvent(ctx, eventID)
}

// CountOpenSessions counts an event's open sessions.
func (t *Tracker) CountOpenSessions(ctx context.Context, eventID uuid.UUID) (int, error) {
	return t.store.CountOpenSessions(ctx, eventID)
}

func (t *Tracker) closeSession(ctx context.Context, e *models.Event, userID uuid.UUID, actor models.Actor) (*CheckOutResult, error) {
	onBehalf := actor.OnBehalfOf(userID)
	session, err := t.store.CloseLatestSession(ctx, e.ID, userID, t.now(), onBehalf)
	if err != nil {
		return nil, err
	}
	t.logger.Info("checked out",
		zap.String("event_id", e.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Bool("by_admin", onBehalf),
	)
	result := &CheckOutResult{Session: session}

	notes := NoteSelfCheckOut
	if onBehalf {
		notes = NoteAdminCheckOut
	}
	entry, err := t.hours.RecordSession(ctx, session, e.OrganizationID, notes)
	if err != nil {
		result.Warning = "check-out saved but volunteer hours could not be recorded yet"
		t.hoursFailed(ctx, session, notes, err)
	} else {
		result.Entry = entry
	}

	t.notify(ctx, e, models.TableCheckins, models.ChangeUpdate, session.ID)
	if onBehalf {
		t.appendAudit(ctx, e, userID, actor.UserID, models.AuditActionCheckOut, *session.CheckOutTime)
	}
	return result, nil
}

func (t *Tracker) hoursFailed(ctx context.Context, session *models.CheckInSession, notes string, cause error) {
	obs.SideEffectFailed(obs.SideEffectHours)
	t.logger.Warn("record volunteer hours failed",
		zap.String("session_id", session.ID.String()),
		zap.String("event_id", session.EventID.String()),
		zap.String("user_id", session.UserID.String()),
		zap.Error(cause),
	)
	if t.retry == nil {
		return
	}
	payload := queue.HoursRecordPayload{SessionID: session.ID, EventID: session.EventID, UserID: session.UserID, Notes: notes}
	if err := t.retry.EnqueueHoursRecord(ctx, payload); err != nil {
		obs.SideEffectFailed(obs.SideEffectQueue)
		t.logger.Warn("enqueue hours retry failed", zap.String("session_id", session.ID.String()), zap.Error(err))
	}
}

func (t *Tracker) appendAudit(ctx context.Context, e *models.Event, target, admin uuid.UUID, action models.AuditAction, ts time.Time) {
	entry, err := t.audit.Append(ctx, e.ID, target, admin, action, ts)
	if err != nil {
		obs.SideEffectFailed(obs.SideEffectAudit)
		t.logger.Warn("append admin audit failed",
			zap.String("event_id", e.ID.String()),
			zap.String("user_id", target.String()),
			zap.String("admin_id", admin.String()),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return
	}
	t.notify(ctx, e, models.TableAudit, models.ChangeInsert, entry.ID)
}

// authorize loads the event and checks the actor may act for userID.
func (t *Tracker) authorize(ctx context.Context, eventID, userID uuid.UUID, actor models.Actor) (*models.Event, error) {
	e, err := t.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !actor.OnBehalfOf(userID) {
		if actor.UserID != userID {
			return nil, apperr.ErrForbidden
		}
		return e, nil
	}
	if err := t.requireAdmin(ctx, e.OrganizationID, actor.UserID); err != nil {
		return nil, err
	}
	return e, nil
}

func (t *Tracker) requireAdmin(ctx context.Context, orgID, userID uuid.UUID) error {
	ok, err := t.admins.IsOrgAdmin(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrForbidden
	}
	return nil
}

func (t *Tracker) notify(ctx context.Context, e *models.Event, table string, op models.ChangeOp, rowID uuid.UUID) {
	if t.relay == nil {
		return
	}
	change := models.Change{
		Table:          table,
		Op:             op,
		EventID:        e.ID,
		OrganizationID: e.OrganizationID,
		RowID:          rowID,
		At:             t.now(),
	}
	if err := t.relay.Publish(ctx, change); err != nil {
		obs.SideEffectFailed(obs.SideEffectRelay)
		t.logger.Warn("publish change failed", zap.String("table", table), zap.String("event_id", e.ID.String()), zap.Error(err))
	}
}

func resultOf(err error) string {
	switch apperr.CodeOf(err) {
	case apperr.CodeUnknown, apperr.CodePersistenceUnavailable:
		return obs.ResultError
	}
	return obs.ResultRejected
}
