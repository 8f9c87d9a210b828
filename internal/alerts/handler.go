package alerts

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fraudguard/riskengine/pkg/common"
	"github.com/fraudguard/riskengine/pkg/models"
	"github.com/fraudguard/riskengine/pkg/pagination"
)

// Handler exposes alert review operations over HTTP.
type Handler struct {
	repo *Repository
}

// NewHandler creates a new alerts handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// ListBySubject handles GET /api/v1/subjects/:id/alerts.
func (h *Handler) ListBySubject(c *gin.Context) {
	subjectID := c.Param("id")
	if subjectID == "" {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid subject ID")
		return
	}

	params := pagination.ParseParams(c)
	alerts, total, err := h.repo.ListBySubject(c.Request.Context(), subjectID, params.Limit, params.Offset)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.SuccessResponse(c, http.StatusOK, gin.H{
		"alerts": alerts,
		"meta":   pagination.BuildMeta(params.Limit, params.Offset, int64(total)),
	})
}

// GetAlert handles GET /api/v1/alerts/:id.
func (h *Handler) GetAlert(c *gin.Context) {
	alertID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid alert ID")
		return
	}

	alert, err := h.repo.GetByID(c.Request.Context(), alertID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.SuccessResponse(c, http.StatusOK, alert)
}

type updateStatusRequest struct {
	Status models.AlertStatus `json:"status" binding:"required,oneof=open acknowledged resolved dismissed"`
}

// UpdateStatus handles PATCH /api/v1/alerts/:id/status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	alertID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid alert ID")
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.UpdateStatus(c.Request.Context(), alertID, req.Status); err != nil {
		common.RespondError(c, err)
		return
	}

	common.SuccessResponse(c, http.StatusOK, gin.H{"id": alertID, "status": req.Status})
}
