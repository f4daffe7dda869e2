package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/internal/repository"
	"github.com/hiufpe/hub-api/internal/repository/memstore"
	"github.com/hiufpe/hub-api/pkg/config"
)

var (
	staff   = &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	student = models.StudentActor("student-1")
	other   = models.StudentActor("student-2")
)

type ledgerFixture struct {
	store       *memstore.Store
	defaults    config.EvaluationConfig
	outcomes    *OutcomeService
	enrollments *EnrollmentService
	methods     *EvaluationMethodService
	items       *AssessmentService
	absences    *AbsenceService
	projections *ProjectionService
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	store := memstore.New()
	defaults := config.EvaluationConfig{DefaultMinAverage: 5, DefaultMinAttendance: 75, ActiveTerm: "2024.1"}
	validate := validator.New()
	outcomes := NewOutcomeService(store, nil, nil, zap.NewNop())
	outcomes.now = func() time.Time { return time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC) }
	return &ledgerFixture{
		store:       store,
		defaults:    defaults,
		outcomes:    outcomes,
		enrollments: NewEnrollmentService(store, outcomes, defaults, validate, zap.NewNop()),
		methods:     NewEvaluationMethodService(store, outcomes, validate, zap.NewNop()),
		items:       NewAssessmentService(store, outcomes, validate, zap.NewNop()),
		absences:    NewAbsenceService(store, outcomes, validate, zap.NewNop()),
		projections: NewProjectionService(store, validate, zap.NewNop()),
	}
}

func (f *ledgerFixture) course(t *testing.T, code, name string, workload int) models.Course {
	t.Helper()
	course := models.Course{Code: code, Name: name, Workload: workload}
	require.NoError(t, f.store.Update(context.Background(), func(tx repository.LedgerTx) error {
		return tx.CreateCourse(context.Background(), &course)
	}))
	return course
}

func (f *ledgerFixture) session(t *testing.T, courseID string, weekday time.Weekday, start, end string) {
	t.Helper()
	session := models.ClassSession{CourseID: courseID, Term: f.defaults.ActiveTerm, Weekday: int(weekday), StartTime: start, EndTime: end, Room: "B-12"}
	require.NoError(t, f.store.Update(context.Background(), func(tx repository.LedgerTx) error {
		return tx.CreateSession(context.Background(), &session)
	}))
}

func (f *ledgerFixture) enroll(t *testing.T, actor *models.JWTClaims, courseID string) *models.EnrollmentDetail {
	t.Helper()
	enrollment, err := f.enrollments.Create(context.Background(), actor, CreateEnrollmentRequest{CourseID: courseID, Term: f.defaults.ActiveTerm})
	require.NoError(t, err)
	return enrollment
}

func (f *ledgerFixture) weighted(t *testing.T, enrollmentID string) {
	t.Helper()
	_, err := f.methods.Create(context.Background(), student, enrollmentID, EvaluationMethodRequest{Name: "Provas", Kind: models.EvaluationWeightedAverage})
	require.NoError(t, err)
}

func (f *ledgerFixture) addItem(t *testing.T, enrollmentID, name string, weight float64, score *float64) *ItemMutation {
	t.Helper()
	mutation, err := f.items.Create(context.Background(), student, enrollmentID, AssessmentRequest{Name: name, Weight: weight, Score: score})
	require.NoError(t, err)
	return mutation
}

func ptr[T any](v T) *T { return &v }
