package hours

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/middleware"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/apperr"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/response"
)

// EventReader resolves an event's organization.
type EventReader interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// AdminChecker answers whether a user administers an organization.
type AdminChecker interface {
	IsOrgAdmin(ctx context.Context, orgID, userID uuid.UUID) (bool, error)
}

// Handler handles volunteer hours HTTP endpoints.
type Handler struct {
	ledger *Ledger
	events EventReader
	admins AdminChecker
}

// NewHandler creates a volunteer hours handler.
func NewHandler(ledger *Ledger, events EventReader, admins AdminChecker) *Handler {
	return &Handler{ledger: ledger, events: events, admins: admins}
}

// Total handles GET /users/:id/hours?organization_id=|event_id=.
func (h *Handler) Total(c *gin.Context) {
	userID, scope, ok := h.bind(c)
	if !ok {
		return
	}
	total, err := h.ledger.TotalHours(c.Request.Context(), userID, scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, total)
}

// Entries handles GET /users/:id/hours/entries. Scope parameters are optional.
func (h *Handler) Entries(c *gin.Context) {
	userID, scope, ok := h.bind(c)
	if !ok {
		return
	}
	entries, err := h.ledger.ListByUser(c.Request.Context(), userID, scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entries)
}

// bind parses the target user and scope, then checks that the caller is that
// user or an administrator of the scope's organization.
func (h *Handler) bind(c *gin.Context) (uuid.UUID, models.HoursScope, bool) {
	var scope models.HoursScope
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return uuid.Nil, scope, false
	}
	if s := c.Query("organization_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid organization_id")
			return uuid.Nil, scope, false
		}
		scope.OrganizationID = &id
	}
	if s := c.Query("event_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid event_id")
			return uuid.Nil, scope, false
		}
		scope.EventID = &id
	}
	callerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if callerID == userID {
		return userID, scope, true
	}
	if err := h.authorizeAdmin(c.Request.Context(), callerID, scope); err != nil {
		response.Error(c, err)
		return uuid.Nil, scope, false
	}
	return userID, scope, true
}

func (h *Handler) authorizeAdmin(ctx context.Context, callerID uuid.UUID, scope models.HoursScope) error {
	var orgID uuid.UUID
	switch {
	case scope.OrganizationID != nil:
		orgID = *scope.OrganizationID
	case scope.EventID != nil:
		e, err := h.events.GetEvent(ctx, *scope.EventID)
		if err != nil {
			return err
		}
		orgID = e.OrganizationID
	default:
		return apperr.ErrForbidden
	}
	ok, err := h.admins.IsOrgAdmin(ctx, orgID, callerID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrForbidden
	}
	return nil
}
