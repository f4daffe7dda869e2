package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/internal/service"
	"github.com/hiufpe/hub-api/pkg/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Database:   config.DatabaseConfig{Driver: config.DriverMemory},
		JWT:        config.JWTConfig{Secret: "secret"},
		Evaluation: config.EvaluationConfig{DefaultMinAverage: 5, DefaultMinAttendance: 75, ActiveTerm: "2024.1"},
		Reconcile:  config.ReconcileConfig{Enabled: true, Workers: 1, Retries: 1},
	}
}

func TestNewWiresMemoryDriver(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Start(context.Background()))
	assert.Nil(t, a.Assistant)
	assert.Len(t, a.Tools.Specs(), 8)

	admin := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	course, err := a.Courses.Create(context.Background(), service.CreateCourseRequest{Code: "INF110", Name: "Algoritmos", Workload: 20})
	require.NoError(t, err)
	enrollment, err := a.Enrollments.Create(context.Background(), admin, service.CreateEnrollmentRequest{StudentID: "student-1", CourseID: course.ID, Term: "2024.1"})
	require.NoError(t, err)
	assert.Equal(t, 75, enrollment.MinAttendance)

	queued, err := a.Reconcile.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, queued)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.Database.Driver = "sqlite"
	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewRequiresAssistantToken(t *testing.T) {
	cfg := memoryConfig()
	cfg.Assistant = config.AssistantConfig{Enabled: true, Model: "gpt-4o-mini"}
	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
