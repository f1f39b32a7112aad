package models

import (
	"time"

	"github.com/google/uuid"
)

// Change tables observed by dashboards.
const (
	TableEvents        = "events"
	TableRegistrations = "event_attendees"
	TableCheckins      = "event_checkins"
	TableAudit         = "admin_checkin_audit"
	TableHours         = "volunteer_hours"
)

// ChangeOp is the kind of row mutation.
type ChangeOp string

const (
	ChangeInsert ChangeOp = "insert"
	ChangeUpdate ChangeOp = "update"
	ChangeDelete ChangeOp = "delete"
)

// Change is an advisory notification that a row affecting an event changed.
// Subscribers re-read state; the payload is not authoritative.
type Change struct {
	Table          string    `json:"table"`
	Op             ChangeOp  `json:"op"`
	EventID        uuid.UUID `json:"event_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	RowID          uuid.UUID `json:"row_id"`
	At             time.Time `json:"at"`
}
