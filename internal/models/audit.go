package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction is the admin action recorded in the audit trail.
type AuditAction string

const (
	AuditActionCheckIn  AuditAction = "checkin"
	AuditActionCheckOut AuditAction = "checkout"
)

// AdminCheckinAudit is an append-only record of an admin acting on another member's attendance.
type AdminCheckinAudit struct {
	ID        uuid.UUID   `json:"id"`
	EventID   uuid.UUID   `json:"event_id"`
	UserID    uuid.UUID   `json:"user_id"`
	AdminID   uuid.UUID   `json:"admin_id"`
	Action    AuditAction `json:"action"`
	Timestamp time.Time   `json:"timestamp"`
}
