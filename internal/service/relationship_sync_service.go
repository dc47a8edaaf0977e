package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lifeguard-api/internal/models"
	"github.com/noah-isme/lifeguard-api/internal/recycling"
	"github.com/noah-isme/lifeguard-api/pkg/jobs"
)

// SyncJobType identifies relationship sync jobs on the worker queue.
const SyncJobType = "relationship.sync"

// TrainerDirectory resolves an organization name to the trainer account that runs it.
type TrainerDirectory interface {
	ResolveTrainer(ctx context.Context, orgName string) (trainerID string, found bool, err error)
}

type linkUpserter interface {
	Upsert(ctx context.Context, link *models.TrainerStudent) (bool, error)
}

// RelationshipSyncService mirrors credential events as trainer/student links.
type RelationshipSyncService struct {
	directory TrainerDirectory
	links     linkUpserter
	catalog   *recycling.Catalog
	timeout   time.Duration
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewRelationshipSyncService constructs a RelationshipSyncService. Each external call is bounded by timeout.
func NewRelationshipSyncService(directory TrainerDirectory, links linkUpserter, catalog *recycling.Catalog, timeout time.Duration, metrics *MetricsService, logger *zap.Logger) *RelationshipSyncService {
	if catalog == nil {
		catalog = recycling.DefaultCatalog()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelationshipSyncService{directory: directory, links: links, catalog: catalog, timeout: timeout, metrics: metrics, logger: logger}
}

// Sync applies one event and reports failures to the caller.
func (s *RelationshipSyncService) Sync(ctx context.Context, ev models.SyncEvent) (models.SyncOutcome, error) {
	outcome, err := s.sync(ctx, ev)
	s.metrics.RecordSync(outcome, ev.Kind)
	return outcome, err
}

// SyncEvent applies one event, logging and swallowing failures.
func (s *RelationshipSyncService) SyncEvent(ctx context.Context, ev models.SyncEvent) models.SyncOutcome {
	outcome, err := s.Sync(ctx, ev)
	if err != nil {
		s.logFailure(ev, err)
	}
	return outcome
}

// SyncCredential mirrors a formation for its issuing organization and, when recycled, for its
// recycling organization. It never fails the caller.
func (s *RelationshipSyncService) SyncCredential(ctx context.Context, formation models.Formation) []models.SyncOutcome {
	outcomes, _ := s.syncFormation(ctx, formation)
	return outcomes
}

// syncFormation applies the events of a formation in order, so the recycling event lands after
// the issuance event when both target the same link. Later events still run after a failure;
// the first error is returned so a retry replays the whole sequence.
func (s *RelationshipSyncService) syncFormation(ctx context.Context, formation models.Formation) ([]models.SyncOutcome, error) {
	events := models.EventsFor(formation)
	outcomes := make([]models.SyncOutcome, 0, len(events))
	var firstErr error
	for _, ev := range events {
		outcome, err := s.Sync(ctx, ev)
		if err != nil {
			s.logFailure(ev, err)
			if firstErr == nil {
				firstErr = err
			}
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, firstErr
}

func (s *RelationshipSyncService) logFailure(ev models.SyncEvent, err error) {
	s.logger.Warn("relationship sync failed",
		zap.String("holder_id", ev.HolderID),
		zap.String("organization", ev.Organization),
		zap.String("event_kind", string(ev.Kind)),
		zap.Error(err))
}

func (s *RelationshipSyncService) sync(ctx context.Context, ev models.SyncEvent) (models.SyncOutcome, error) {
	org := strings.TrimSpace(ev.Organization)
	if ev.HolderID == "" || strings.TrimSpace(ev.Title) == "" || org == "" || ev.Date.IsZero() {
		return models.SyncSkipped, nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.timeout)
	trainerID, found, err := s.directory.ResolveTrainer(lookupCtx, org)
	cancel()
	if err != nil {
		return models.SyncFailed, fmt.Errorf("resolve organization %q: %w", org, err)
	}
	if !found {
		s.logger.Debug("no trainer for organization", zap.String("organization", org))
		return models.SyncSkipped, nil
	}
	if trainerID == ev.HolderID {
		return models.SyncSkipped, nil
	}

	kind := string(ev.Kind)
	link := &models.TrainerStudent{
		TrainerID:    trainerID,
		StudentID:    ev.HolderID,
		TrainingType: s.catalog.Canonical(ev.Title),
		TrainingKey:  s.catalog.Normalize(ev.Title),
		TrainingDate: ev.Date,
		EventKind:    &kind,
	}

	upsertCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	inserted, err := s.links.Upsert(upsertCtx, link)
	if err != nil {
		return models.SyncFailed, fmt.Errorf("upsert link: %w", err)
	}
	s.logger.Debug("relationship synced",
		zap.String("trainer_id", trainerID),
		zap.String("student_id", ev.HolderID),
		zap.String("training_key", link.TrainingKey),
		zap.Bool("inserted", inserted))
	return models.SyncLinked, nil
}

// SyncDispatcherConfig sizes the background worker pool.
type SyncDispatcherConfig struct {
	Workers    int
	QueueSize  int
	MaxRetries int
	RetryDelay time.Duration
}

// RelationshipDispatcher runs relationship syncs off the request path.
type RelationshipDispatcher struct {
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewRelationshipDispatcher builds the dispatcher and its worker queue. Call Start before Dispatch.
func NewRelationshipDispatcher(sync *RelationshipSyncService, cfg SyncDispatcherConfig, metrics *MetricsService, logger *zap.Logger) *RelationshipDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		formation, ok := job.Payload.(models.Formation)
		if !ok {
			logger.Error("unexpected sync payload", zap.String("job_id", job.ID))
			return nil
		}
		_, err := sync.syncFormation(ctx, formation)
		return err
	}
	queue := jobs.NewQueue("relationship-sync", handler, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.QueueSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return &RelationshipDispatcher{queue: queue, metrics: metrics, logger: logger}
}

// Start launches the workers.
func (d *RelationshipDispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop waits for in-flight syncs; queued events are dropped.
func (d *RelationshipDispatcher) Stop() {
	d.queue.Stop()
}

// Dispatch enqueues one sync job per formation without blocking. A formation that cannot be
// queued is logged and dropped.
func (d *RelationshipDispatcher) Dispatch(formation models.Formation) {
	err := d.queue.TryEnqueue(jobs.Job{Type: SyncJobType, Payload: formation})
	if err == nil {
		return
	}
	d.metrics.RecordSyncDropped()
	level := d.logger.Warn
	if errors.Is(err, jobs.ErrQueueStopped) {
		level = d.logger.Error
	}
	level("relationship sync dropped",
		zap.String("holder_id", formation.UserID),
		zap.String("formation_id", formation.ID),
		zap.Error(err))
}
