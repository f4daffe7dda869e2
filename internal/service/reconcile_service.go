package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/hiufpe/hub-api/internal/repository"
	"github.com/hiufpe/hub-api/pkg/config"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
	"github.com/hiufpe/hub-api/pkg/jobs"
)

// JobTypeRecompute rederives the outcome of the enrollment named by the payload.
const JobTypeRecompute = "recompute"

// ReconcileService periodically re-runs outcome recomputation for every enrollment.
type ReconcileService struct {
	store    LedgerStore
	outcomes *OutcomeService
	queue    *jobs.Queue
	cron     *cron.Cron
	schedule string
	logger   *zap.Logger
}

// NewReconcileService wires the sweep to a job queue and a cron schedule.
func NewReconcileService(store LedgerStore, outcomes *OutcomeService, cfg config.ReconcileConfig, logger *zap.Logger) *ReconcileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReconcileService{
		store:    store,
		outcomes: outcomes,
		schedule: cfg.Schedule,
		logger:   logger,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
	s.queue = jobs.NewQueue("reconcile", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		Logger:     logger,
	})
	return s
}

// Start launches the workers and registers the cron entry.
func (s *ReconcileService) Start(ctx context.Context) error {
	s.queue.Start(ctx)
	if s.schedule == "" {
		return nil
	}
	_, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("reconcile sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		s.queue.Stop()
		return fmt.Errorf("register reconcile schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("reconcile scheduled", zap.String("schedule", s.schedule))
	return nil
}

// Stop halts the schedule and drains the workers.
func (s *ReconcileService) Stop() {
	<-s.cron.Stop().Done()
	s.queue.Stop()
}

// Sweep enqueues one recompute job per enrollment and reports how many were queued.
func (s *ReconcileService) Sweep(ctx context.Context) (int, error) {
	var ids []string
	err := s.store.View(ctx, func(tx repository.LedgerTx) error {
		var err error
		ids, err = tx.ListEnrollmentIDs(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("list enrollments: %w", err)
	}
	for i, id := range ids {
		if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: JobTypeRecompute, Payload: id}); err != nil {
			return i, err
		}
	}
	s.logger.Info("reconcile sweep queued", zap.Int("enrollments", len(ids)))
	return len(ids), nil
}

// Stats exposes the queue counters.
func (s *ReconcileService) Stats() jobs.Stats {
	return s.queue.Stats()
}

func (s *ReconcileService) handle(ctx context.Context, job jobs.Job) error {
	if job.Type != JobTypeRecompute {
		s.logger.Warn("unknown job type", zap.String("type", job.Type))
		return nil
	}
	_, err := s.outcomes.Recompute(ctx, job.Payload)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, appErrors.ErrNotFound):
		// deleted since the sweep
		return nil
	case errors.Is(err, appErrors.ErrUnsupported):
		return nil
	default:
		return err
	}
}
