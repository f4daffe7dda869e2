package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hiufpe/hub-api/internal/models"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

// CacheRepository stores JSON payloads under expiring keys.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// StandingCache keeps computed standings per student and term. Any recompute for a
// student drops all of that student's entries.
type StandingCache struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewStandingCache constructs the cache. A nil repo disables caching.
func NewStandingCache(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *StandingCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StandingCache{repo: repo, metrics: metrics, ttl: ttl, logger: logger}
}

// StandingKey is the cache key of a student's overall standing in a term.
func StandingKey(studentID, term string) string {
	if term == "" {
		term = "all"
	}
	return fmt.Sprintf("standing:%s:%s", studentID, term)
}

func standingPattern(studentID string) string {
	return fmt.Sprintf("standing:%s:*", studentID)
}

// Enabled indicates whether a backing store is configured.
func (s *StandingCache) Enabled() bool {
	return s != nil && s.repo != nil
}

// Load returns the cached standing, if any. A miss is (nil, false, nil).
func (s *StandingCache) Load(ctx context.Context, studentID, term string) (*models.Standing, bool, error) {
	if !s.Enabled() {
		return nil, false, nil
	}
	start := time.Now()
	var standing models.Standing
	err := s.repo.Get(ctx, StandingKey(studentID, term), &standing)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	switch {
	case err == nil:
		return &standing, true, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		return nil, false, nil
	default:
		return nil, false, err
	}
}

// Store caches the standing under its student and term.
func (s *StandingCache) Store(ctx context.Context, standing *models.Standing) error {
	if !s.Enabled() || standing == nil {
		return nil
	}
	start := time.Now()
	err := s.repo.Set(ctx, StandingKey(standing.StudentID, standing.Term), standing, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	return err
}

// Forget drops every cached standing of the student. Failures are logged only.
func (s *StandingCache) Forget(ctx context.Context, studentID string) {
	if !s.Enabled() || studentID == "" {
		return
	}
	if err := s.repo.DeleteByPattern(ctx, standingPattern(studentID)); err != nil {
		s.logger.Warn("standing cache invalidate failed", zap.String("student_id", studentID), zap.Error(err))
	}
}
