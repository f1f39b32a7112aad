package events

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/middleware"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/response"
)

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	OrganizationID string `json:"organization_id" binding:"required,uuid"`
	Title          string `json:"title" binding:"required"`
	Description    string `json:"description"`
	MaxAttendees   int    `json:"max_attendees" binding:"required,min=1"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an event handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create handles POST /events (organization admin only).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	e, err := h.svc.Create(c.Request.Context(), userID, CreateInput{
		OrganizationID: uuid.MustParse(req.OrganizationID),
		Title:          req.Title,
		Description:    req.Description,
		MaxAttendees:   req.MaxAttendees,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, e)
}

// GetByID handles GET /events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, e)
}

// ListByOrganization handles GET /organizations/:id/events.
func (h *Handler) ListByOrganization(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	list, err := h.svc.ListByOrganization(c.Request.Context(), orgID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Publish handles POST /events/:id/publish.
func (h *Handler) Publish(c *gin.Context) { h.transition(c, h.svc.Publish) }

// Start handles POST /events/:id/start.
func (h *Handler) Start(c *gin.Context) { h.transition(c, h.svc.Start) }

// End handles POST /events/:id/end.
func (h *Handler) End(c *gin.Context) { h.transition(c, h.svc.End) }

// Cancel handles POST /events/:id/cancel.
func (h *Handler) Cancel(c *gin.Context) { h.transition(c, h.svc.Cancel) }

func (h *Handler) transition(c *gin.Context, op func(ctx context.Context, eventID, actorID uuid.UUID) (*models.Event, error)) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	e, err := op(c.Request.Context(), eventID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, e)
}
