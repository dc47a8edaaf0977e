package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lifeguard-api/internal/models"
	"github.com/noah-isme/lifeguard-api/internal/service"
	appErrors "github.com/noah-isme/lifeguard-api/pkg/errors"
	"github.com/noah-isme/lifeguard-api/pkg/response"
)

type formationService interface {
	List(ctx context.Context, userID string) ([]models.FormationView, error)
	Create(ctx context.Context, userID string, req service.FormationRequest) (*models.FormationView, error)
	Update(ctx context.Context, userID, id string, req service.FormationRequest) (*models.FormationView, error)
	Delete(ctx context.Context, userID, id string) error
}

// FormationHandler manages the caller's own certifications.
type FormationHandler struct {
	service formationService
}

// NewFormationHandler builds a new handler.
func NewFormationHandler(service formationService) *FormationHandler {
	return &FormationHandler{service: service}
}

// List godoc
// @Summary List the caller's certifications with their recycling status
// @Tags Formations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me/formations [get]
func (h *FormationHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Create godoc
// @Summary Record a certification
// @Tags Formations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.FormationRequest true "Certification payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /me/formations [post]
func (h *FormationHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req service.FormationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid formation payload"))
		return
	}
	item, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Replace a certification
// @Tags Formations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Formation ID"
// @Param payload body service.FormationRequest true "Certification payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /me/formations/{id} [put]
func (h *FormationHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req service.FormationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid formation payload"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, item)
}

// Delete godoc
// @Summary Delete a certification
// @Tags Formations
// @Security BearerAuth
// @Param id path string true "Formation ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /me/formations/{id} [delete]
func (h *FormationHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
