package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lifeguard-api/internal/models"
	"github.com/noah-isme/lifeguard-api/internal/recycling"
	appErrors "github.com/noah-isme/lifeguard-api/pkg/errors"
)

type holderFormationLister interface {
	ListByUser(ctx context.Context, userID string) ([]models.Formation, error)
}

type alertsCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// RecyclingConfig configures lifecycle evaluation at the service layer.
type RecyclingConfig struct {
	Location *time.Location
	CacheTTL time.Duration
	Clock    func() time.Time
}

// EvaluateRequest is an ad-hoc record to evaluate.
type EvaluateRequest struct {
	Title            string       `json:"title" validate:"required,max=120"`
	ObtainedDate     models.Date  `json:"obtained_date"`
	LastRecycledDate *models.Date `json:"last_recycled_date"`
	Now              *models.Date `json:"now"`
}

// EvaluateResponse is the lifecycle of an ad-hoc record.
type EvaluateResponse struct {
	Certification string         `json:"certification"`
	Recycling     recycling.Info `json:"recycling"`
	Label         *string        `json:"label"`
	FormattedDue  *string        `json:"formatted_due,omitempty"`
}

// RecyclingService evaluates holders' certifications and serves their alerts.
type RecyclingService struct {
	evaluator  *recycling.Evaluator
	formations holderFormationLister
	cache      alertsCache
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	loc        *time.Location
	ttl        time.Duration
	clock      func() time.Time
}

// NewRecyclingService constructs a RecyclingService.
func NewRecyclingService(evaluator *recycling.Evaluator, formations holderFormationLister, cache alertsCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg RecyclingConfig) *RecyclingService {
	if evaluator == nil {
		evaluator = recycling.NewEvaluator(nil)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &RecyclingService{
		evaluator:  evaluator,
		formations: formations,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		loc:        cfg.Location,
		ttl:        cfg.CacheTTL,
		clock:      cfg.Clock,
	}
}

// Now returns the wall clock in the configured timezone.
func (s *RecyclingService) Now() time.Time {
	return s.clock().In(s.loc)
}

// Catalog exposes the reference data used for evaluation.
func (s *RecyclingService) Catalog() *recycling.Catalog {
	return s.evaluator.Catalog()
}

// Certifications lists the catalog.
func (s *RecyclingService) Certifications() []recycling.CertificationType {
	return s.evaluator.Catalog().Certifications()
}

// Inspect evaluates a record and its label as seen at now.
func (s *RecyclingService) Inspect(record recycling.Record, now time.Time) (recycling.Info, *string) {
	info := s.evaluator.Evaluate(record, now)
	return info, recycling.Label(info)
}

// View enriches a formation with its lifecycle.
func (s *RecyclingService) View(f models.Formation, now time.Time) models.FormationView {
	info, label := s.Inspect(f.ToRecord(), now)
	return models.FormationView{Formation: f, Recycling: info, RecyclingLabel: label}
}

// Evaluate computes the lifecycle of an ad-hoc record.
func (s *RecyclingService) Evaluate(req EvaluateRequest) (*EvaluateResponse, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}
	if req.ObtainedDate.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "obtained_date is required")
	}
	if last := req.LastRecycledDate.Ptr(); last != nil && last.Before(req.ObtainedDate.Time) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "last_recycled_date cannot precede obtained_date")
	}

	now := s.Now()
	if req.Now != nil && !req.Now.IsZero() {
		now = time.Date(req.Now.Year(), req.Now.Month(), req.Now.Day(), 0, 0, 0, 0, s.loc)
	}

	record := recycling.Record{Title: req.Title, ObtainedDate: req.ObtainedDate.Time, LastRecycledDate: req.LastRecycledDate.Ptr()}
	info, label := s.Inspect(record, now)
	resp := &EvaluateResponse{
		Certification: s.evaluator.Catalog().Canonical(req.Title),
		Recycling:     info,
		Label:         label,
	}
	if info.NextRecyclingDue != nil {
		formatted := recycling.FormatDate(*info.NextRecyclingDue)
		resp.FormattedDue = &formatted
	}
	return resp, nil
}

// Alerts returns the actionable certifications of a holder with their counts. Results are cached
// per holder and calendar day.
func (s *RecyclingService) Alerts(ctx context.Context, userID string) (*models.AlertsResult, error) {
	now := s.Now()
	key := alertsCacheKey(userID, now)

	if s.cache != nil {
		var cached models.AlertsResult
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("alerts cache read failed", zap.String("user_id", userID), zap.Error(err))
		}
		if hit {
			return &cached, nil
		}
	}

	formations, err := s.formations.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load formations")
	}

	records := make([]recycling.Record, 0, len(formations))
	for _, f := range formations {
		records = append(records, f.ToRecord())
	}
	alerts := s.evaluator.Alerts(records, now)
	result := &models.AlertsResult{
		Alerts:  alerts,
		Summary: recycling.Summarize(alerts),
		AsOf:    models.NewDate(now.Date()),
	}
	s.metrics.RecordAlerts(result.Summary)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.ttl); err != nil {
			s.logger.Warn("alerts cache write failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return result, nil
}

// InvalidateAlerts drops every cached alert list of the holder.
func (s *RecyclingService) InvalidateAlerts(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("alerts:%s:*", userID)); err != nil {
		s.logger.Warn("alerts cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func alertsCacheKey(userID string, now time.Time) string {
	return fmt.Sprintf("alerts:%s:%s", userID, now.Format(models.DateLayout))
}
