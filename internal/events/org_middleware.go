package events

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/middleware"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/response"
)

// ContextOrganizationID is the context key for the event's organization once access is enforced.
const ContextOrganizationID = "organization_id"

// EventReader loads an event.
type EventReader interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// RequireEventAdmin lets the request through only when the caller administers
// the organization that owns the :id event. Call after JWT.
func RequireEventAdmin(events EventReader, admins AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid event id")
			c.Abort()
			return
		}
		e, err := events.GetEvent(c.Request.Context(), eventID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
		ok, err := admins.IsOrgAdmin(c.Request.Context(), e.OrganizationID, userID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if !ok {
			response.Forbidden(c, "not authorized for this organization")
			c.Abort()
			return
		}
		c.Set(ContextOrganizationID, e.OrganizationID)
		c.Next()
	}
}
