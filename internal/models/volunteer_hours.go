package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VolunteerHours is an append-only ledger entry credited for one closed session.
type VolunteerHours struct {
	ID             uuid.UUID       `json:"id"`
	SessionID      uuid.UUID       `json:"session_id"`
	UserID         uuid.UUID       `json:"user_id"`
	EventID        uuid.UUID       `json:"event_id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	Date           time.Time       `json:"date"`
	Hours          decimal.Decimal `json:"hours"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// HoursScope selects which entries contribute to a total. Exactly one field is set.
type HoursScope struct {
	OrganizationID *uuid.UUID
	EventID        *uuid.UUID
}

// HoursTotal is the summed hours of a member within a scope.
type HoursTotal struct {
	UserID         uuid.UUID       `json:"user_id"`
	OrganizationID *uuid.UUID      `json:"organization_id,omitempty"`
	EventID        *uuid.UUID      `json:"event_id,omitempty"`
	Hours          decimal.Decimal `json:"hours"`
}

// PendingSession is a closed session together with the organization its hours credit.
type PendingSession struct {
	Session        CheckInSession
	OrganizationID uuid.UUID
}
