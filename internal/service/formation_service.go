package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lifeguard-api/internal/models"
	"github.com/noah-isme/lifeguard-api/internal/recycling"
	appErrors "github.com/noah-isme/lifeguard-api/pkg/errors"
)

type formationRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Formation, error)
	FindByID(ctx context.Context, userID, id string) (*models.Formation, error)
	Create(ctx context.Context, formation *models.Formation) error
	Update(ctx context.Context, formation *models.Formation) (bool, error)
	Delete(ctx context.Context, userID, id string) (bool, error)
}

type relationshipDispatcher interface {
	Dispatch(formation models.Formation)
}

// FormationRequest is the payload to create or replace a formation.
type FormationRequest struct {
	Title                 string       `json:"title" validate:"required,max=120"`
	Organization          string       `json:"organization" validate:"required,max=200"`
	RecyclingOrganization *string      `json:"recycling_organization" validate:"omitempty,max=200"`
	StartDate             models.Date  `json:"start_date"`
	EndDate               *models.Date `json:"end_date"`
	EventKind             *string      `json:"event_kind" validate:"omitempty,oneof=diploma recycling"`
	DocumentURL           *string      `json:"document_url" validate:"omitempty,url,max=2048"`
}

// FormationService manages a holder's own certifications.
type FormationService struct {
	repo       formationRepository
	recycling  *RecyclingService
	dispatcher relationshipDispatcher
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewFormationService constructs a FormationService. A nil dispatcher disables relationship sync.
func NewFormationService(repo formationRepository, recyclingSvc *RecyclingService, dispatcher relationshipDispatcher, validate *validator.Validate, logger *zap.Logger) *FormationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormationService{repo: repo, recycling: recyclingSvc, dispatcher: dispatcher, validator: validate, logger: logger}
}

// List returns the holder's formations with their lifecycle.
func (s *FormationService) List(ctx context.Context, userID string) ([]models.FormationView, error) {
	formations, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list formations")
	}
	now := s.recycling.Now()
	views := make([]models.FormationView, 0, len(formations))
	for _, f := range formations {
		views = append(views, s.recycling.View(f, now))
	}
	return views, nil
}

// Create stores a new formation and mirrors it to the matching trainers in the background.
func (s *FormationService) Create(ctx context.Context, userID string, req FormationRequest) (*models.FormationView, error) {
	formation, err := s.build(req)
	if err != nil {
		return nil, err
	}
	formation.UserID = userID

	if err := s.repo.Create(ctx, formation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create formation")
	}
	s.afterWrite(ctx, *formation)

	view := s.recycling.View(*formation, s.recycling.Now())
	return &view, nil
}

// Update replaces a formation owned by the holder.
func (s *FormationService) Update(ctx context.Context, userID, id string, req FormationRequest) (*models.FormationView, error) {
	existing, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "formation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load formation")
	}

	formation, err := s.build(req)
	if err != nil {
		return nil, err
	}
	formation.ID = existing.ID
	formation.UserID = existing.UserID
	formation.CreatedAt = existing.CreatedAt

	ok, err := s.repo.Update(ctx, formation)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update formation")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "formation not found")
	}
	s.afterWrite(ctx, *formation)

	view := s.recycling.View(*formation, s.recycling.Now())
	return &view, nil
}

// Delete removes a formation. Trainer links created from it are kept.
func (s *FormationService) Delete(ctx context.Context, userID, id string) error {
	ok, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete formation")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "formation not found")
	}
	s.recycling.InvalidateAlerts(ctx, userID)
	return nil
}

func (s *FormationService) build(req FormationRequest) (*models.Formation, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Organization = strings.TrimSpace(req.Organization)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid formation payload")
	}
	if req.StartDate.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date is required")
	}
	endDate := req.EndDate.Ptr()
	if endDate != nil && endDate.Before(req.StartDate.Time) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date cannot precede start_date")
	}

	kind := recycling.EventDiploma
	if endDate != nil {
		kind = recycling.EventRecycling
	}
	if req.EventKind != nil {
		if parsed, ok := recycling.ParseEventKind(*req.EventKind); ok {
			kind = parsed
		}
	}
	kindValue := string(kind)

	return &models.Formation{
		Title:                 req.Title,
		Organization:          req.Organization,
		RecyclingOrganization: trimmedOrNil(req.RecyclingOrganization),
		StartDate:             req.StartDate.Time,
		EndDate:               endDate,
		EventKind:             &kindValue,
		DocumentURL:           trimmedOrNil(req.DocumentURL),
	}, nil
}

func (s *FormationService) afterWrite(ctx context.Context, formation models.Formation) {
	s.recycling.InvalidateAlerts(ctx, formation.UserID)
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(formation)
	}
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
