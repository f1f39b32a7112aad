package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization owns events and their volunteers.
type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Organization roles. Owners and admins manage events and attendance.
const (
	OrgRoleOwner  = "owner"
	OrgRoleAdmin  = "admin"
	OrgRoleMember = "member"
)

// IsAdminRole reports whether role may administer events.
func IsAdminRole(role string) bool {
	return role == OrgRoleOwner || role == OrgRoleAdmin
}

// OrganizationUser links a user to an organization with a role.
type OrganizationUser struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	UserID         uuid.UUID `json:"user_id"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// Actor is the caller performing an attendance operation.
type Actor struct {
	UserID uuid.UUID
	Admin  bool
}

// SelfActor is a member acting on their own attendance.
func SelfActor(userID uuid.UUID) Actor {
	return Actor{UserID: userID}
}

// AdminActor is an administrator acting on another member's attendance.
func AdminActor(adminID uuid.UUID) Actor {
	return Actor{UserID: adminID, Admin: true}
}

// OnBehalfOf reports whether the actor is an administrator acting on a
// different member. An admin acting on themself counts as self-service.
func (a Actor) OnBehalfOf(target uuid.UUID) bool {
	return a.Admin && a.UserID != target
}
