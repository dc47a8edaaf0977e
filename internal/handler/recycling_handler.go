package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lifeguard-api/internal/models"
	"github.com/noah-isme/lifeguard-api/internal/recycling"
	"github.com/noah-isme/lifeguard-api/internal/service"
	appErrors "github.com/noah-isme/lifeguard-api/pkg/errors"
	"github.com/noah-isme/lifeguard-api/pkg/response"
)

type recyclingService interface {
	Certifications() []recycling.CertificationType
	Evaluate(req service.EvaluateRequest) (*service.EvaluateResponse, error)
	Alerts(ctx context.Context, userID string) (*models.AlertsResult, error)
}

// RecyclingHandler exposes the certification catalog and lifecycle endpoints.
type RecyclingHandler struct {
	service recyclingService
}

// NewRecyclingHandler builds a new handler.
func NewRecyclingHandler(service recyclingService) *RecyclingHandler {
	return &RecyclingHandler{service: service}
}

// Certifications godoc
// @Summary List known certifications and their recycling periods
// @Tags Recycling
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /certifications [get]
func (h *RecyclingHandler) Certifications(c *gin.Context) {
	response.OK(c, h.service.Certifications())
}

// Evaluate godoc
// @Summary Evaluate the recycling lifecycle of a certification
// @Tags Recycling
// @Accept json
// @Produce json
// @Param payload body service.EvaluateRequest true "Certification to evaluate"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /recycling/evaluate [post]
func (h *RecyclingHandler) Evaluate(c *gin.Context) {
	var req service.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid evaluation payload"))
		return
	}
	result, err := h.service.Evaluate(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Alerts godoc
// @Summary List the caller's certifications that need attention
// @Tags Recycling
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me/recycling/alerts [get]
func (h *RecyclingHandler) Alerts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	result, err := h.service.Alerts(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result.Alerts, map[string]interface{}{
		"summary": result.Summary,
		"as_of":   result.AsOf,
	})
}
