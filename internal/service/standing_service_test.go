package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hiufpe/hub-api/internal/models"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
	"github.com/hiufpe/hub-api/pkg/export"
)

type memoryCache struct {
	entries map[string]interface{}
	deleted []string
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	value, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*dest.(*models.Standing) = *value.(*models.Standing)
	return nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.entries[key] = value
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
			m.deleted = append(m.deleted, key)
		}
	}
	return nil
}

func seedStanding(t *testing.T, f *ledgerFixture) {
	t.Helper()
	algo := f.enroll(t, student, f.course(t, "INF110", "Algoritmos", 40).ID)
	f.weighted(t, algo.ID)
	f.addItem(t, algo.ID, "P1", 1, ptr(9.0))

	calc := f.enroll(t, student, f.course(t, "MAT101", "Cálculo I", 40).ID)
	f.weighted(t, calc.ID)
	f.addItem(t, calc.ID, "P1", 1, ptr(3.0))

	f.enroll(t, student, f.course(t, "FIS201", "Física II", 40).ID)
}

func TestStandingOverall(t *testing.T) {
	f := newLedgerFixture(t)
	seedStanding(t, f)
	svc := NewStandingService(f.store, nil, f.defaults, zap.NewNop(), nil, nil)

	standing, cached, err := svc.Overall(context.Background(), student, "", "")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, "2024.1", standing.Term)
	require.Len(t, standing.Courses, 3)
	assert.Equal(t, "Algoritmos", standing.Courses[0].CourseName)
	assert.Equal(t, 1, standing.Passed)
	assert.Equal(t, 1, standing.Failed)
	assert.Equal(t, 1, standing.InProgress)
}

func TestStandingIsCachedAndInvalidatedByRecompute(t *testing.T) {
	f := newLedgerFixture(t)
	cache := &memoryCache{entries: map[string]interface{}{}}
	cacheSvc := NewStandingCache(cache, nil, time.Minute, zap.NewNop())
	f.outcomes.cache = cacheSvc
	seedStanding(t, f)
	svc := NewStandingService(f.store, cacheSvc, f.defaults, zap.NewNop(), nil, nil)
	ctx := context.Background()

	_, cached, err := svc.Overall(ctx, student, "", "")
	require.NoError(t, err)
	assert.False(t, cached)

	_, cached, err = svc.Overall(ctx, student, "", "")
	require.NoError(t, err)
	assert.True(t, cached)

	enrollments, err := f.enrollments.List(ctx, student, models.EnrollmentFilter{})
	require.NoError(t, err)
	_, err = f.enrollments.Recompute(ctx, student, enrollments[0].ID)
	require.NoError(t, err)
	assert.Contains(t, cache.deleted, StandingKey("student-1", "2024.1"))

	_, cached, err = svc.Overall(ctx, student, "", "")
	require.NoError(t, err)
	assert.False(t, cached)
}

func TestStandingStaffMustNameStudent(t *testing.T) {
	f := newLedgerFixture(t)
	svc := NewStandingService(f.store, nil, f.defaults, zap.NewNop(), nil, nil)

	_, _, err := svc.Overall(context.Background(), staff, "", "")
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, _, err = svc.Overall(context.Background(), student, "student-2", "")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestStandingExport(t *testing.T) {
	f := newLedgerFixture(t)
	seedStanding(t, f)
	svc := NewStandingService(f.store, nil, f.defaults, zap.NewNop(), export.NewCSVExporter(), export.NewPDFExporter())

	csv, err := svc.Export(context.Background(), student, "", "", "csv")
	require.NoError(t, err)
	assert.Equal(t, "standing-2024.1.csv", csv.Filename)
	assert.Contains(t, string(csv.Payload), "INF110,Algoritmos,9.00,passed,100,0")
	assert.Contains(t, string(csv.Payload), "FIS201,Física II,-,in_progress,100,0")

	pdf, err := svc.Export(context.Background(), student, "", "", "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)

	_, err = svc.Export(context.Background(), student, "", "", "xlsx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
