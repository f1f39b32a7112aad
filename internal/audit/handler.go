package audit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/response"
)

// Handler handles audit HTTP endpoints.
type Handler struct {
	writer *Writer
}

// NewHandler creates an audit handler.
func NewHandler(writer *Writer) *Handler {
	return &Handler{writer: writer}
}

// ListByEvent handles GET /events/:id/audit.
// Mount behind the event admin gate so access is already validated.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	entries, err := h.writer.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entries)
}
