// Package memory is an in-process implementation of every attendance store.
// A single mutex makes each method one atomic step, mirroring the conditional
// statements the Postgres repositories rely on.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/apperr"
)

type regKey struct {
	eventID uuid.UUID
	userID  uuid.UUID
}

// Store holds all attendance state in memory.
type Store struct {
	mu sync.Mutex

	orgs    map[uuid.UUID]*models.Organization
	members map[uuid.UUID]map[uuid.UUID]*models.OrganizationUser

	events        map[uuid.UUID]*models.Event
	registrations map[regKey]*models.Registration
	sessions      []*models.CheckInSession
	hours         []*models.VolunteerHours
	audit         []*models.AdminCheckinAudit

	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		orgs:          make(map[uuid.UUID]*models.Organization),
		members:       make(map[uuid.UUID]map[uuid.UUID]*models.OrganizationUser),
		events:        make(map[uuid.UUID]*models.Event),
		registrations: make(map[regKey]*models.Registration),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func copyEvent(e *models.Event) *models.Event {
	c := *e
	return &c
}

func copySession(s *models.CheckInSession) *models.CheckInSession {
	c := *s
	return &c
}

// CreateOrganization inserts an organization. Slugs are unique.
func (s *Store) CreateOrganization(_ context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orgs {
		if o.Slug == org.Slug {
			return apperr.Wrap(apperr.CodeConstraintViolation, "constraint violation: organizations_slug_key", nil)
		}
	}
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	now := s.now()
	org.CreatedAt, org.UpdatedAt = now, now
	c := *org
	s.orgs[org.ID] = &c
	return nil
}

// GetOrganization returns an organization by ID.
func (s *Store) GetOrganization(_ context.Context, id uuid.UUID) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orgs[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	c := *o
	return &c, nil
}

// AddMember upserts a member's role.
func (s *Store) AddMember(_ context.Context, orgID, userID uuid.UUID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[orgID]; !ok {
		return apperr.ErrNotFound
	}
	m := s.members[orgID]
	if m == nil {
		m = make(map[uuid.UUID]*models.OrganizationUser)
		s.members[orgID] = m
	}
	if existing, ok := m[userID]; ok {
		existing.Role = role
		return nil
	}
	m[userID] = &models.OrganizationUser{
		ID:             uuid.New(),
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		CreatedAt:      s.now(),
	}
	return nil
}

// GetMemberRole returns the user's role, or "" when they are not a member.
func (s *Store) GetMemberRole(_ context.Context, orgID, userID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.members[orgID][userID]; ok {
		return m.Role, nil
	}
	return "", nil
}

// ListOrganizationsForUser returns the user's organizations ordered by name.
func (s *Store) ListOrganizationsForUser(_ context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*models.Organization
	for orgID, m := range s.members {
		if _, ok := m[userID]; ok {
			c := *s.orgs[orgID]
			list = append(list, &c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// ListMembers returns an organization's members, oldest first.
func (s *Store) ListMembers(_ context.Context, orgID uuid.UUID) ([]*models.OrganizationUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*models.OrganizationUser
	for _, m := range s.members[orgID] {
		c := *m
		list = append(list, &c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

// InsertEvent stores a new event. The organization must exist.
func (s *Store) InsertEvent(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[e.OrganizationID]; !ok {
		return apperr.Wrap(apperr.CodeNotFound, "organization not found", nil)
	}
	if e.MaxAttendees <= 0 || e.SignupCount < 0 || e.SignupCount > e.MaxAttendees {
		return apperr.Wrap(apperr.CodeConstraintViolation, "constraint violation: events_signup_count_within_capacity", nil)
	}
	s.events[e.ID] = copyEvent(e)
	return nil
}

// GetEvent returns an event by ID.
func (s *Store) GetEvent(_ context.Context, id uuid.UUID) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return copyEvent(e), nil
}

// ListEventsByOrganization returns an organization's events, newest first.
func (s *Store) ListEventsByOrganization(_ context.Context, orgID uuid.UUID) ([]*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*models.Event
	for _, e := range s.events {
		if e.OrganizationID == orgID {
			list = append(list, copyEvent(e))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

// TransitionEvent moves the event to `to` only if its status is one of from.
func (s *Store) TransitionEvent(_ context.Context, id uuid.UUID, from []models.EventStatus, to models.EventStatus, at time.Time) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	allowed := false
	for _, f := range from {
		if e.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, apperr.Wrap(apperr.CodeInvalidTransition,
			"cannot move event from "+string(e.Status)+" to "+string(to), nil)
	}
	e.Status = to
	switch to {
	case models.EventStatusInProgress:
		t := at
		e.StartedAt = &t
	case models.EventStatusCompleted:
		t := at
		e.EndedAt = &t
	}
	e.UpdatedAt = at
	return copyEvent(e), nil
}

// InsertRegistration adds the registration and increments the signup count in one step.
func (s *Store) InsertRegistration(_ context.Context, r *models.Registration) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[r.EventID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	key := regKey{r.EventID, r.UserID}
	if _, exists := s.registrations[key]; exists {
		return nil, apperr.ErrDuplicateRegistration
	}
	if !e.Status.AcceptsRegistrations() {
		return nil, apperr.ErrEventNotOpen
	}
	if e.SignupCount >= e.MaxAttendees {
		return nil, apperr.ErrEventFull
	}
	c := *r
	s.registrations[key] = &c
	e.SignupCount++
	return copyEvent(e), nil
}

// DeleteRegistration removes the registration and decrements the signup count, floored at zero.
func (s *Store) DeleteRegistration(_ context.Context, eventID, userID uuid.UUID) (uuid.UUID, *models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := regKey{eventID, userID}
	reg, exists := s.registrations[key]
	if !exists {
		return uuid.Nil, nil, apperr.ErrNotRegistered
	}
	e, ok := s.events[eventID]
	if !ok {
		return uuid.Nil, nil, apperr.ErrNotFound
	}
	delete(s.registrations, key)
	if e.SignupCount > 0 {
		e.SignupCount--
	}
	return reg.ID, copyEvent(e), nil
}

// GetRegistration returns the user's registration for an event.
func (s *Store) GetRegistration(_ context.Context, eventID, userID uuid.UUID) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.registrations[regKey{eventID, userID}]
	if !ok {
		return nil, apperr.ErrNotRegistered
	}
	c := *r
	return &c, nil
}

// ListRegistrationsByEvent returns an event's registrations in signup order.
func (s *Store) ListRegistrationsByEvent(_ context.Context, eventID uuid.UUID) ([]*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*models.Registration
	for k, r := range s.registrations {
		if k.eventID == eventID {
			c := *r
			list = append(list, &c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].JoinedAt.Before(list[j].JoinedAt) })
	return list, nil
}

// ListRegistrationsByUser returns a member's registrations, newest first.
func (s *Store) ListRegistrationsByUser(_ context.Context, userID uuid.UUID) ([]*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*models.Registration
	for k, r := range s.registrations {
		if k.userID == userID {
			c := *r
			list = append(list, &c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].JoinedAt.After(list[j].JoinedAt) })
	return list, nil
}

// InsertSession opens a session unless one is already open for (event, user).
func (s *Store) InsertSession(_ context.Context, sess *models.CheckInSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[sess.EventID]; !ok {
		return apperr.ErrNotFound
	}
	for _, existing := range s.sessions {
		if existing.EventID == sess.EventID && existing.UserID == sess.UserID && existing.Active() {
			return apperr.ErrAlreadyCheckedIn
		}
	}
	s.sessions = append(s.sessions, copySession(sess))
	return nil
}

// CloseLatestSession closes the most recent open session for (event, user).
func (s *Store) CloseLatestSession(_ context.Context, eventID, userID uuid.UUID, at time.Time, byAdmin bool) (*models.CheckInSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.CheckInSession
	for _, sess := range s.sessions {
		if sess.EventID != eventID || sess.UserID != userID || !sess.Active() {
			continue
		}
		if latest == nil || sess.CheckInTime.After(latest.CheckInTime) {
			latest = sess
		}
	}
	if latest == nil {
		return nil, apperr.ErrNoActiveSession
	}
	out := at
	if out.Before(latest.CheckInTime) {
		out = latest.CheckInTime
	}
	latest.CheckOutTime = &out
	latest.CheckedOutByAdmin = byAdmin
	return copySession(latest), nil
}

// GetActiveSession returns the open session for (event, user), or nil.
func (s *Store) GetActiveSession(_ context.Context, eventID, userID uuid.UUID) (*models.CheckInSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.EventID == eventID && sess.UserID == userID && sess.Active() {
			return copySession(sess), nil
		}
	}
	return nil, nil
}

// ListSessionsByEvent returns an event's sessions, latest check-in first.
func (s *Store) ListSessionsByEvent(_ context.Context, eventID uuid.UUID) ([]*models.CheckInSession, error) {
	return s.filterSessions(func(sess *models.CheckInSession) bool { return sess.EventID == eventID }), nil
}

// ListOpenSessions returns an event's open sessions, latest check-in first.
func (s *Store) ListOpenSessions(_ context.Context, eventID uuid.UUID) ([]*models.CheckInSession, error) {
	return s.filterSessions(func(sess *models.CheckInSession) bool { return sess.EventID == eventID && sess.Active() }), nil
}

// CountOpenSessions counts an event's open sessions.
func (s *Store) CountOpenSessions(_ context.Context, eventID uuid.UUID) (int, error) {
	open := s.filterSessions(func(sess *models.CheckInSession) bool { return sess.EventID == eventID && sess.Active() })
	return len(open), nil
}

func (s *Store) filterSessions(keep func(*models.CheckInSession) bool) []*models.CheckInSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*models.CheckInSession
	for _, sess := range s.sessions {
		if keep(sess) {
			list = append(list, copySession(sess))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CheckInTime.After(list[j].CheckInTime) })
	return list
}

// InsertHours appends a ledger entry. It reports false when the session already has one.
func (s *Store) InsertHours(_ context.Context, h *models.VolunteerHours) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.hours {
		if existing.SessionID == h.SessionID {
			return false, nil
		}
	}
	if h.Hours.IsNegative() {
		return false, apperr.Wrap(apperr.CodeConstraintViolation, "constraint violation: volunteer_hours_hours_check", nil)
	}
	c := *h
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
		h.CreatedAt = c.CreatedAt
	}
	s.hours = append(s.hours, &c)
	return true, nil
}

// GetHoursBySession returns the ledger entry for a session.
func (s *Store) GetHoursBySession(_ context.Context, sessionID uuid.UUID) (*models.VolunteerHours, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.hours {
		if h.SessionID == sessionID {
			c := *h
			return &c, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func inScope(h *models.VolunteerHours, scope models.HoursScope) bool {
	if scope.OrganizationID != nil && h.OrganizationID != *scope.OrganizationID {
		return false
	}
	if scope.EventID != nil && h.EventID != *scope.EventID {
		return false
	}
	return true
}

// SumHours totals a member's entries within scope.
func (s *Store) SumHours(_ context.Context, userID uuid.UUID, scope models.HoursScope) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, h := range s.hours {
		if h.UserID == userID && inScope(h, scope) {
			total = total.Add(h.Hours)
		}
	}
	return total, nil
}

// ListHoursByUser returns a member's entries within scope, newest first.
func (s *Store) ListHoursByUser(_ context.Context, userID uuid.UUID, scope models.HoursScope) ([]*models.VolunteerHours, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*models.VolunteerHours
	for _, h := range s.hours {
		if h.UserID == userID && inScope(h, scope) {
			c := *h
			list = append(list, &c)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.After(list[j].Date)
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// GetPendingSession returns a session with its event's organization.
func (s *Store) GetPendingSession(_ context.Context, sessionID uuid.UUID) (*models.PendingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.ID == sessionID {
			e, ok := s.events[sess.EventID]
			if !ok {
				return nil, apperr.ErrNotFound
			}
			return &models.PendingSession{Session: *sess, OrganizationID: e.OrganizationID}, nil
		}
	}
	return nil, apperr.ErrNotFound
}

// ListUnrecordedSessions returns sessions closed at or before closedBefore that have no ledger entry, oldest check-out first.
func (s *Store) ListUnrecordedSessions(_ context.Context, closedBefore time.Time, limit int) ([]*models.PendingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recorded := make(map[uuid.UUID]bool, len(s.hours))
	for _, h := range s.hours {
		recorded[h.SessionID] = true
	}
	var list []*models.PendingSession
	for _, sess := range s.sessions {
		if sess.Active() || recorded[sess.ID] || sess.CheckOutTime.After(closedBefore) {
			continue
		}
		e, ok := s.events[sess.EventID]
		if !ok {
			continue
		}
		list = append(list, &models.PendingSession{Session: *sess, OrganizationID: e.OrganizationID})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Session.CheckOutTime.Before(*list[j].Session.CheckOutTime) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// AppendAudit appends an audit entry.
func (s *Store) AppendAudit(_ context.Context, e *models.AdminCheckinAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.EventID]; !ok {
		return apperr.Wrap(apperr.CodeConstraintViolation, "constraint violation: admin_checkin_audit_event_id_fkey", nil)
	}
	c := *e
	s.audit = append(s.audit, &c)
	return nil
}

// ListAuditByEvent returns an event's audit entries, newest first.
func (s *Store) ListAuditByEvent(_ context.Context, eventID uuid.UUID) ([]*models.AdminCheckinAudit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*models.AdminCheckinAudit
	for _, e := range s.audit {
		if e.EventID == eventID {
			c := *e
			list = append(list, &c)
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Timestamp.After(list[j].Timestamp) })
	return list, nil
}
