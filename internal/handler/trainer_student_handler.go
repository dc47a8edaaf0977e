package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lifeguard-api/internal/models"
	"github.com/noah-isme/lifeguard-api/internal/service"
	appErrors "github.com/noah-isme/lifeguard-api/pkg/errors"
	"github.com/noah-isme/lifeguard-api/pkg/export"
	"github.com/noah-isme/lifeguard-api/pkg/response"
)

type trainerStudentService interface {
	Roster(ctx context.Context, trainerID string, filter models.RosterFilter) ([]models.RosterStudent, error)
	Brevets(ctx context.Context, trainerID string) ([]string, error)
	Export(ctx context.Context, trainerID string, filter models.RosterFilter, format export.Format) (*service.ExportFile, error)
	StudentDetail(ctx context.Context, trainerID, studentID string) (*models.StudentDetail, error)
}

type rosterClassifier interface {
	ClassifyRoster(ctx context.Context, trainerID string) (*models.RosterClassification, error)
}

// TrainerStudentHandler exposes a trainer's student roster.
type TrainerStudentHandler struct {
	service    trainerStudentService
	classifier rosterClassifier
}

// NewTrainerStudentHandler builds a new handler.
func NewTrainerStudentHandler(service trainerStudentService, classifier rosterClassifier) *TrainerStudentHandler {
	return &TrainerStudentHandler{service: service, classifier: classifier}
}

func rosterFilterFromQuery(c *gin.Context) models.RosterFilter {
	return models.RosterFilter{
		Search: c.Query("q"),
		Tab:    models.RosterTab(c.Query("tab")),
		Brevet: c.Query("brevet"),
		Source: models.FormationSource(c.Query("source")),
	}
}

// List godoc
// @Summary List the trainer's students
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search on name, email or certification"
// @Param tab query string false "active (default) or all"
// @Param brevet query string false "Certification filter"
// @Param source query string false "all (default), own or others"
// @Success 200 {object} response.Envelope
// @Router /trainer/students [get]
func (h *TrainerStudentHandler) List(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	students, err := h.service.Roster(c.Request.Context(), trainerID, rosterFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, &models.Pagination{Page: 1, PageSize: len(students), TotalCount: len(students)})
}

// Brevets godoc
// @Summary List the certifications seen on the trainer's roster
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /trainer/students/brevets [get]
func (h *TrainerStudentHandler) Brevets(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	brevets, err := h.service.Brevets(c.Request.Context(), trainerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, brevets)
}

// Export godoc
// @Summary Export the filtered roster
// @Tags Trainer
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv (default) or pdf"
// @Param q query string false "Search on name, email or certification"
// @Param tab query string false "active (default) or all"
// @Param brevet query string false "Certification filter"
// @Param source query string false "all (default), own or others"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /trainer/students/export [get]
func (h *TrainerStudentHandler) Export(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "format must be csv or pdf"))
		return
	}
	file, err := h.service.Export(c.Request.Context(), trainerID, rosterFilterFromQuery(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// StudentFormations godoc
// @Summary Show a student's certifications and the trainer's classified trainings
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /trainer/students/{studentId}/formations [get]
func (h *TrainerStudentHandler) StudentFormations(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	detail, err := h.service.StudentDetail(c.Request.Context(), trainerID, c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, detail)
}

// Classification godoc
// @Summary Classify every training of the roster as diploma or recycling
// @Tags Trainer
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /trainer/students/classification [get]
func (h *TrainerStudentHandler) Classification(c *gin.Context) {
	trainerID, ok := currentUserID(c)
	if !ok {
		return
	}
	result, err := h.classifier.ClassifyRoster(c.Request.Context(), trainerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result, map[string]interface{}{"partial": len(result.FailedStudentIDs) > 0})
}
