package registrations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/middleware"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/response"
)

// Handler handles registration HTTP endpoints.
type Handler struct {
	mgr *Manager
}

// NewHandler creates a registrations handler.
func NewHandler(mgr *Manager) *Handler {
	return &Handler{mgr: mgr}
}

// Register handles POST /events/:id/register for the calling member.
func (h *Handler) Register(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	reg, err := h.mgr.Register(c.Request.Context(), eventID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reg)
}

// Unregister handles DELETE /events/:id/register for the calling member.
func (h *Handler) Unregister(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.mgr.Unregister(c.Request.Context(), eventID, userID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListByEvent handles GET /events/:id/registrations. Mount behind the event admin gate.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.mgr.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// ListMine handles GET /me/registrations.
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.mgr.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}
