package risk

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fraudguard/riskengine/internal/geofence"
	"github.com/fraudguard/riskengine/pkg/common"
	"github.com/fraudguard/riskengine/pkg/models"
)

// Handler exposes the engine over HTTP.
type Handler struct {
	engine *Engine
}

// NewHandler creates a new risk handler.
func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// SubmitEvent handles POST /api/v1/events.
func (h *Handler) SubmitEvent(c *gin.Context) {
	var input EventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	event, decision, err := h.engine.SubmitEvent(c.Request.Context(), input)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.SuccessResponse(c, http.StatusCreated, gin.H{
		"event":    event,
		"decision": decision,
	})
}

// ApproveEvent handles POST /api/v1/events/:id/approve.
func (h *Handler) ApproveEvent(c *gin.Context) {
	h.transition(c, models.EventStatusApproved)
}

// BlockEvent handles POST /api/v1/events/:id/block.
func (h *Handler) BlockEvent(c *gin.Context) {
	h.transition(c, models.EventStatusBlocked)
}

func (h *Handler) transition(c *gin.Context, status models.EventStatus) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid event ID")
		return
	}

	var event *models.Event
	if status == models.EventStatusApproved {
		event, err = h.engine.Approve(c.Request.Context(), eventID)
	} else {
		event, err = h.engine.Block(c.Request.Context(), eventID)
	}
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.SuccessResponse(c, http.StatusOK, event)
}

// GetAccountStatus handles GET /api/v1/subjects/:id/status.
func (h *Handler) GetAccountStatus(c *gin.Context) {
	subjectID := c.Param("id")
	if subjectID == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid subject ID")
		return
	}

	common.SuccessResponse(c, http.StatusOK, h.engine.GetAccountStatus(subjectID))
}

type unfreezeRequest struct {
	Channel string `json:"channel" binding:"required"`
	Via     string `json:"via" binding:"required,oneof=sms email"`
}

// RequestUnfreeze handles POST /api/v1/subjects/:id/unfreeze.
func (h *Handler) RequestUnfreeze(c *gin.Context) {
	subjectID := c.Param("id")
	if subjectID == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid subject ID")
		return
	}

	var req unfreezeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	challengeID, err := h.engine.RequestUnfreeze(c.Request.Context(), subjectID, models.Channel(req.Channel), req.Via)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.SuccessResponse(c, http.StatusAccepted, gin.H{"challenge_id": challengeID})
}

type confirmUnfreezeRequest struct {
	ChallengeID string `json:"challenge_id" binding:"required"`
	Code        string `json:"code" binding:"required"`
}

// ConfirmUnfreeze handles POST /api/v1/unfreeze/confirm.
func (h *Handler) ConfirmUnfreeze(c *gin.Context) {
	var req confirmUnfreezeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.engine.ConfirmUnfreeze(c.Request.Context(), req.ChallengeID, req.Code)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.SuccessResponse(c, http.StatusOK, status)
}

type zoneRequest struct {
	ID         string  `json:"id" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	Latitude   float64 `json:"latitude" binding:"required"`
	Longitude  float64 `json:"longitude" binding:"required"`
	RadiusKm   float64 `json:"radius_km" binding:"required,gt=0"`
	Type       string  `json:"type" binding:"required"`
	AlertLevel string  `json:"alert_level"`
}

// RegisterZone handles POST /api/v1/zones.
func (h *Handler) RegisterZone(c *gin.Context) {
	var req zoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	zone := geofence.Zone{
		ID:         req.ID,
		Name:       req.Name,
		Center:     geofence.Point{Latitude: req.Latitude, Longitude: req.Longitude},
		RadiusKm:   req.RadiusKm,
		Type:       geofence.ZoneType(req.Type),
		AlertLevel: geofence.AlertLevel(req.AlertLevel),
	}
	if err := h.engine.RegisterZone(zone); err != nil {
		common.RespondError(c, err)
		return
	}

	common.SuccessResponse(c, http.StatusCreated, zone)
}

// RemoveZone handles DELETE /api/v1/zones/:id.
func (h *Handler) RemoveZone(c *gin.Context) {
	if err := h.engine.RemoveZone(c.Param("id")); err != nil {
		common.RespondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type assessRequest struct {
	SubjectID string    `json:"subject_id" binding:"required"`
	Latitude  float64   `json:"latitude" binding:"required"`
	Longitude float64   `json:"longitude" binding:"required"`
	Timestamp time.Time `json:"timestamp"`
}

// AssessLocation handles POST /api/v1/locations/assess.
func (h *Handler) AssessLocation(c *gin.Context) {
	var req assessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	at := req.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	point := geofence.Point{Latitude: req.Latitude, Longitude: req.Longitude}

	common.SuccessResponse(c, http.StatusOK, h.engine.AssessLocation(req.SubjectID, point, at))
}
