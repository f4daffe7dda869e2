package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hiufpe/hub-api/internal/evaluation"
	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/internal/repository"
)

// LedgerMutation changes ledger rows of a locked enrollment.
type LedgerMutation func(ctx context.Context, tx repository.LedgerTx, enrollment *models.EnrollmentDetail) error

// OutcomeService is the only writer of derived enrollment fields.
type OutcomeService struct {
	store   LedgerStore
	cache   *StandingCache
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewOutcomeService constructs the outcome service.
func NewOutcomeService(store LedgerStore, cache *StandingCache, metrics *MetricsService, logger *zap.Logger) *OutcomeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutcomeService{store: store, cache: cache, metrics: metrics, logger: logger, now: time.Now}
}

// Recompute rederives the outcome of one enrollment from its ledgers.
func (s *OutcomeService) Recompute(ctx context.Context, enrollmentID string) (*models.EnrollmentDetail, error) {
	return s.Mutate(ctx, nil, enrollmentID, nil)
}

// Mutate locks the enrollment, applies fn and recomputes the outcome in the same transaction.
func (s *OutcomeService) Mutate(ctx context.Context, actor *models.JWTClaims, enrollmentID string, fn LedgerMutation) (*models.EnrollmentDetail, error) {
	var updated *models.EnrollmentDetail
	err := s.store.Update(ctx, func(tx repository.LedgerTx) error {
		enrollment, err := tx.LockEnrollment(ctx, enrollmentID)
		if err != nil {
			return lookupError(err, "enrollment")
		}
		if err := authorizeEnrollment(actor, enrollment); err != nil {
			return err
		}
		if fn != nil {
			if err := fn(ctx, tx, enrollment); err != nil {
				return err
			}
		}
		updated, err = s.apply(ctx, tx, enrollment)
		return err
	})
	if err != nil {
		return nil, normalizeError(err, "update enrollment")
	}
	s.invalidate(ctx, updated.StudentID)
	return updated, nil
}

// apply recomputes a locked enrollment. Callers must hold the enrollment lock through tx.
func (s *OutcomeService) apply(ctx context.Context, tx repository.LedgerTx, enrollment *models.EnrollmentDetail) (_ *models.EnrollmentDetail, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveRecompute(time.Since(start), err) }()

	method, err := loadMethod(ctx, tx, enrollment.ID)
	if err != nil {
		return nil, err
	}
	absences, err := tx.CountAbsences(ctx, enrollment.ID)
	if err != nil {
		return nil, lookupError(err, "absences")
	}

	input := evaluation.Input{
		Method:        method,
		TotalSessions: enrollment.Workload,
		AbsenceCount:  absences,
		MinAverage:    enrollment.MinAverage,
		MinAttendance: enrollment.MinAttendance,
		CurrentStatus: enrollment.Status,
	}
	if method != nil {
		input.Items = method.Items
	}
	outcome, err := evaluation.Recompute(input)
	if err != nil {
		return nil, err
	}
	outcome.RecomputedAt = s.now().UTC()

	if err := tx.UpdateOutcome(ctx, enrollment.ID, outcome); err != nil {
		return nil, normalizeError(err, "persist outcome")
	}

	updated := *enrollment
	updated.Average = outcome.Average
	updated.Status = outcome.Status
	updated.AttendanceRatio = outcome.AttendanceRatio
	updated.AbsenceCount = outcome.AbsenceCount
	updated.RecomputedAt = &outcome.RecomputedAt
	updated.UpdatedAt = outcome.RecomputedAt

	s.logger.Debug("outcome recomputed",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("status", string(outcome.Status)),
		zap.Int("attendance_ratio", outcome.AttendanceRatio),
		zap.Int("absences", outcome.AbsenceCount),
	)
	return &updated, nil
}

func (s *OutcomeService) invalidate(ctx context.Context, studentID string) {
	s.cache.Forget(ctx, studentID)
}
