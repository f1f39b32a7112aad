package models

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventStatusDraft      EventStatus = "draft"
	EventStatusPublished  EventStatus = "published"
	EventStatusInProgress EventStatus = "in_progress"
	EventStatusCompleted  EventStatus = "completed"
	EventStatusCancelled  EventStatus = "cancelled"
)

// Event is a scheduled volunteer activity owned by an organization.
type Event struct {
	ID             uuid.UUID   `json:"id"`
	OrganizationID uuid.UUID   `json:"organization_id"`
	Title          string      `json:"title"`
	Description    string      `json:"description,omitempty"`
	MaxAttendees   int         `json:"max_attendees"`
	Status         EventStatus `json:"status"`
	StartedAt      *time.Time  `json:"started_at,omitempty"`
	EndedAt        *time.Time  `json:"ended_at,omitempty"`
	SignupCount    int         `json:"signup_count"`
	CreatedBy      uuid.UUID   `json:"created_by"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Transition names a lifecycle operation.
type Transition string

const (
	TransitionPublish Transition = "publish"
	TransitionStart   Transition = "start"
	TransitionEnd     Transition = "end"
	TransitionCancel  Transition = "cancel"
)

type transitionRule struct {
	from []EventStatus
	to   EventStatus
}

// completed and cancelled are terminal.
var transitions = map[Transition]transitionRule{
	TransitionPublish: {from: []EventStatus{EventStatusDraft}, to: EventStatusPublished},
	TransitionStart:   {from: []EventStatus{EventStatusPublished}, to: EventStatusInProgress},
	TransitionEnd:     {from: []EventStatus{EventStatusInProgress}, to: EventStatusCompleted},
	TransitionCancel:  {from: []EventStatus{EventStatusDraft, EventStatusPublished}, to: EventStatusCancelled},
}

// AllowedFrom returns the source statuses and the target status of t.
// ok is false for an unknown transition.
func AllowedFrom(t Transition) (from []EventStatus, to EventStatus, ok bool) {
	rule, ok := transitions[t]
	if !ok {
		return nil, "", false
	}
	out := make([]EventStatus, len(rule.from))
	copy(out, rule.from)
	return out, rule.to, true
}

// CanTransition reports whether t may be applied to an event in status s.
func CanTransition(s EventStatus, t Transition) bool {
	rule, ok := transitions[t]
	if !ok {
		return false
	}
	for _, f := range rule.from {
		if f == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s EventStatus) IsTerminal() bool {
	return s == EventStatusCompleted || s == EventStatusCancelled
}

// AcceptsRegistrations reports whether members may register in status s.
func (s EventStatus) AcceptsRegistrations() bool {
	return s == EventStatusPublished || s == EventStatusInProgress
}

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusDraft, EventStatusPublished, EventStatusInProgress, EventStatusCompleted, EventStatusCancelled:
		return true
	}
	return false
}
