package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiufpe/hub-api/internal/models"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

func TestProjectRequiredScore(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "INF110", "Algoritmos", 40)
	enrollment := f.enroll(t, student, course.ID)
	f.weighted(t, enrollment.ID)
	f.addItem(t, enrollment.ID, "A", 4, ptr(8.0))
	f.addItem(t, enrollment.ID, "B", 6, nil)

	result, err := f.projections.Project(context.Background(), student, enrollment.ID, ProjectionRequest{TargetAverage: ptr(7.0)})
	require.NoError(t, err)
	require.NotNil(t, result.RequiredScore)
	assert.Equal(t, 6.33, *result.RequiredScore)
	assert.False(t, result.Final)
	require.Len(t, result.PendingItems, 1)
	assert.Equal(t, "B", result.PendingItems[0].Name)
	assert.Equal(t, 8.0, *result.CurrentAverage)
}

func TestProjectSimpleAverageUnsupported(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "INF110", "Algoritmos", 40)
	enrollment := f.enroll(t, student, course.ID)
	_, err := f.methods.Create(context.Background(), student, enrollment.ID, EvaluationMethodRequest{Name: "Média", Kind: models.EvaluationSimpleAverage})
	require.NoError(t, err)
	f.addItem(t, enrollment.ID, "A", 1, nil)

	_, err = f.projections.Project(context.Background(), student, enrollment.ID, ProjectionRequest{TargetAverage: ptr(6.0)})
	assert.ErrorIs(t, err, appErrors.ErrUnsupported)
}

func TestSimulateLeavesLedgerUntouched(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "INF110", "Algoritmos", 40)
	enrollment := f.enroll(t, student, course.ID)
	f.weighted(t, enrollment.ID)
	f.addItem(t, enrollment.ID, "A", 4, ptr(8.0))
	b := f.addItem(t, enrollment.ID, "B", 6, nil)
	ctx := context.Background()

	first, err := f.projections.Simulate(ctx, student, enrollment.ID, SimulationRequest{ItemID: b.Item.ID, Score: ptr(9.5)})
	require.NoError(t, err)
	assert.Equal(t, 8.9, first.SimulatedAverage)
	require.NotNil(t, first.Difference)
	assert.Equal(t, 0.9, *first.Difference)

	second, err := f.projections.Simulate(ctx, student, enrollment.ID, SimulationRequest{ItemID: b.Item.ID, Score: ptr(3.0)})
	require.NoError(t, err)
	assert.Equal(t, 5.0, second.SimulatedAverage)

	current, err := f.enrollments.Get(ctx, student, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, 8.0, *current.Average)
	assert.Equal(t, models.EnrollmentStatusInProgress, current.Status)
}

func TestSimulateRejectsUnknownItemAndOutOfRangeScore(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "INF110", "Algoritmos", 40)
	enrollment := f.enroll(t, student, course.ID)
	f.weighted(t, enrollment.ID)
	a := f.addItem(t, enrollment.ID, "A", 4, ptr(8.0))

	_, err := f.projections.Simulate(context.Background(), student, enrollment.ID, SimulationRequest{ItemID: "nope", Score: ptr(5.0)})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = f.projections.Simulate(context.Background(), student, enrollment.ID, SimulationRequest{ItemID: a.Item.ID, Score: ptr(12.0)})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.projections.Simulate(context.Background(), student, enrollment.ID, SimulationRequest{ItemID: a.Item.ID})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestProjectRequiresTarget(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "INF110", "Algoritmos", 40)
	enrollment := f.enroll(t, student, course.ID)
	f.weighted(t, enrollment.ID)
	f.addItem(t, enrollment.ID, "A", 4, nil)

	_, err := f.projections.Project(context.Background(), student, enrollment.ID, ProjectionRequest{})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	result, err := f.projections.Project(context.Background(), student, enrollment.ID, ProjectionRequest{TargetAverage: ptr(0.0)})
	require.NoError(t, err)
	require.NotNil(t, result.RequiredScore)
	assert.Equal(t, 0.0, *result.RequiredScore)
}
