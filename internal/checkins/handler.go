package checkins

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/middleware"
	"github.com/jayGatsby988/Hive-Website-final-sub000/internal/models"
	"github.com/jayGatsby988/Hive-Website-final-sub000/pkg/response"
)

// CheckInRequest is the optional body for POST /events/:id/checkin.
type CheckInRequest struct {
	Latitude  *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
}

// Handler handles check-in session HTTP endpoints.
type Handler struct {
	tracker *Tracker
}

// NewHandler creates a check-in handler.
func NewHandler(tracker *Tracker) *Handler {
	return &Handler{tracker: tracker}
}

// CheckIn handles POST /events/:id/checkin for the calling member.
func (h *Handler) CheckIn(c *gin.Context) {
	eventID, ok := eventParam(c)
	if !ok {
		return
	}
	var req CheckInRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}
	var loc *models.Location
	if req.Latitude != nil && req.Longitude != nil {
		loc = &models.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	s, err := h.tracker.CheckIn(c.Request.Context(), eventID, userID, models.SelfActor(userID), loc)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, s)
}

// CheckOut handles POST /events/:id/checkout for the calling member.
func (h *Handler) CheckOut(c *gin.Context) {
	eventID, ok := eventParam(c)
	if !ok {
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	result, err := h.tracker.CheckOut(c.Request.Context(), eventID, userID, models.SelfActor(userID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OKWithWarning(c, result, result.Warning)
}

// ActiveSession handles GET /events/:id/session. Data is null when the member is not checked in.
func (h *Handler) ActiveSession(c *gin.Context) {
	eventID, ok := eventParam(c)
	if !ok {
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	s, err := h.tracker.GetActiveSession(c.Request.Context(), eventID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"session": s})
}

// AdminCheckIn handles POST /events/:id/attendees/:userId/checkin.
// Any location in the body is ignored.
func (h *Handler) AdminCheckIn(c *gin.Context) {
	eventID, targetID, ok := attendeeParams(c)
	if !ok {
		return
	}
	adminID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	s, err := h.tracker.CheckIn(c.Request.Context(), eventID, targetID, models.AdminActor(adminID), nil)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, s)
}

// AdminCheckOut handles POST /events/:id/attendees/:userId/checkout.
func (h *Handler) AdminCheckOut(c *gin.Context) {
	eventID, targetID, ok := attendeeParams(c)
	if !ok {
		return
	}
	adminID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	result, err := h.tracker.CheckOut(c.Request.Context(), eventID, targetID, models.AdminActor(adminID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OKWithWarning(c, result, result.Warning)
}

// CheckOutAll handles POST /events/:id/checkout-all.
func (h *Handler) CheckOutAll(c *gin.Context) {
	eventID, ok := eventParam(c)
	if !ok {
		return
	}
	adminID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	results, err := h.tracker.CheckOutAll(c.Request.Context(), eventID, adminID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"closed": len(results), "results": results})
}

// ListByEvent handles GET /events/:id/checkins. Mount behind the event admin gate.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, ok := eventParam(c)
	if !ok {
		return
	}
	list, err := h.tracker.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

func eventParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return uuid.Nil, false
	}
	return id, true
}

func attendeeParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	eventID, ok := eventParam(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return uuid.Nil, uuid.Nil, false
	}
	return eventID, userID, true
}
