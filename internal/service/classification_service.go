package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/lifeguard-api/internal/models"
	"github.com/noah-isme/lifeguard-api/internal/recycling"
	appErrors "github.com/noah-isme/lifeguard-api/pkg/errors"
)

type historyRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Formation, error)
	ListByUsers(ctx context.Context, userIDs []string) ([]models.Formation, error)
}

type trainerLinkRepository interface {
	ListByTrainer(ctx context.Context, trainerID string) ([]models.RosterRow, error)
	ListByTrainerAndStudent(ctx context.Context, trainerID, studentID string) ([]models.TrainerStudent, error)
}

// HistoryBatchConfig bounds bulk history lookups.
type HistoryBatchConfig struct {
	BatchSize    int
	Concurrency  int
	BatchTimeout time.Duration
}

// HistoryLoader fetches the formations of many holders in concurrent batches.
type HistoryLoader struct {
	repo    historyRepository
	cfg     HistoryBatchConfig
	metrics *MetricsService
	logger  *zap.Logger
}

// NewHistoryLoader constructs a HistoryLoader.
func NewHistoryLoader(repo historyRepository, cfg HistoryBatchConfig, metrics *MetricsService, logger *zap.Logger) *HistoryLoader {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryLoader{repo: repo, cfg: cfg, metrics: metrics, logger: logger}
}

// Load returns the formations of each holder. Holders of a failed batch are absent from the map
// and listed in failed; other batches are unaffected.
func (l *HistoryLoader) Load(ctx context.Context, holderIDs []string) (map[string][]models.Formation, []string) {
	batches := chunk(holderIDs, l.cfg.BatchSize)
	results := make([][]models.Formation, len(batches))
	errs := make([]error, len(batches))

	var g errgroup.Group
	g.SetLimit(l.cfg.Concurrency)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			batchCtx, cancel := context.WithTimeout(ctx, l.cfg.BatchTimeout)
			defer cancel()
			start := time.Now()
			formations, err := l.repo.ListByUsers(batchCtx, batch)
			l.metrics.ObserveClassifierBatch(err != nil, time.Since(start))
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = formations
			return nil
		})
	}
	_ = g.Wait()

	histories := make(map[string][]models.Formation, len(holderIDs))
	var failed []string
	for i, batch := range batches {
		if errs[i] != nil {
			l.logger.Warn("history batch failed",
				zap.Int("batch", i),
				zap.Int("size", len(batch)),
				zap.Error(errs[i]))
			failed = append(failed, batch...)
			continue
		}
		for _, id := range batch {
			histories[id] = nil
		}
		for _, f := range results[i] {
			histories[f.UserID] = append(histories[f.UserID], f)
		}
	}
	return histories, failed
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}

// ClassificationService tells diplomas from recyclings among the links a trainer holds.
type ClassificationService struct {
	links      trainerLinkRepository
	history    historyRepository
	loader     *HistoryLoader
	classifier *recycling.Classifier
	logger     *zap.Logger
}

// NewClassificationService constructs a ClassificationService.
func NewClassificationService(links trainerLinkRepository, history historyRepository, loader *HistoryLoader, classifier *recycling.Classifier, logger *zap.Logger) *ClassificationService {
	if classifier == nil {
		classifier = recycling.NewClassifier(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loader == nil {
		loader = NewHistoryLoader(history, HistoryBatchConfig{}, nil, logger)
	}
	return &ClassificationService{links: links, history: history, loader: loader, classifier: classifier, logger: logger}
}

// ClassifyStudent classifies the trainer's links for one student. When the student's history
// cannot be read every link without a stored kind is reported as a diploma and degraded is true.
func (s *ClassificationService) ClassifyStudent(ctx context.Context, trainerID, studentID string) ([]models.ClassifiedTraining, bool, error) {
	links, err := s.links.ListByTrainerAndStudent(ctx, trainerID, studentID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load trainings")
	}

	degraded := false
	history, err := s.history.ListByUser(ctx, studentID)
	if err != nil {
		s.logger.Warn("student history unavailable, defaulting to diploma",
			zap.String("trainer_id", trainerID),
			zap.String("student_id", studentID),
			zap.Error(err))
		history = nil
		degraded = true
	}

	return s.Classify(links, history), degraded, nil
}

// ClassifyRoster classifies every link of a trainer using batched history lookups.
func (s *ClassificationService) ClassifyRoster(ctx context.Context, trainerID string) (*models.RosterClassification, error) {
	rows, err := s.links.ListByTrainer(ctx, trainerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	linksByStudent := make(map[string][]models.TrainerStudent)
	var studentIDs []string
	for _, row := range rows {
		if _, seen := linksByStudent[row.StudentID]; !seen {
			studentIDs = append(studentIDs, row.StudentID)
		}
		linksByStudent[row.StudentID] = append(linksByStudent[row.StudentID], row.TrainerStudent)
	}

	histories, failed := s.loader.Load(ctx, studentIDs)

	result := &models.RosterClassification{
		Trainings:        make([]models.ClassifiedTraining, 0, len(rows)),
		FailedStudentIDs: failed,
	}
	if result.FailedStudentIDs == nil {
		result.FailedStudentIDs = []string{}
	}
	for _, studentID := range studentIDs {
		result.Trainings = append(result.Trainings, s.Classify(linksByStudent[studentID], histories[studentID])...)
	}
	return result, nil
}

// Classify resolves the event kind of each link against the student's history.
func (s *ClassificationService) Classify(links []models.TrainerStudent, history []models.Formation) []models.ClassifiedTraining {
	records := make([]recycling.Record, 0, len(history))
	for _, f := range history {
		records = append(records, f.ToRecord())
	}
	idx := s.classifier.Index(records)

	out := make([]models.ClassifiedTraining, 0, len(links))
	for _, link := range links {
		out = append(out, models.ClassifiedTraining{
			LinkID:       link.ID,
			StudentID:    link.StudentID,
			TrainingType: link.TrainingType,
			TrainingDate: models.NewDate(link.TrainingDate.Date()),
			EventKind:    s.classifier.Resolve(link.ExplicitKind(), idx, link.TrainingType, link.TrainingDate),
		})
	}
	return out
}
