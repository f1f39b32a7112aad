package models

import (
	"time"

	"github.com/google/uuid"
)

// RegistrationStatus is the state of a registration row.
type RegistrationStatus string

const (
	RegistrationConfirmed RegistrationStatus = "confirmed"
	// RegistrationWaitlisted is accepted by the schema but never assigned;
	// a full event rejects the registration instead.
	RegistrationWaitlisted RegistrationStatus = "waitlisted"
)

// Registration records a member's signup for an event.
type Registration struct {
	ID       uuid.UUID          `json:"id"`
	EventID  uuid.UUID          `json:"event_id"`
	UserID   uuid.UUID          `json:"user_id"`
	Status   RegistrationStatus `json:"status"`
	JoinedAt time.Time          `json:"joined_at"`
}
