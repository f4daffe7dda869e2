package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiufpe/hub-api/internal/models"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

func TestEvaluationMethodLifecycle(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "INF110", "Algoritmos", 40)
	enrollment := f.enroll(t, student, course.ID)
	ctx := context.Background()

	_, err := f.methods.Get(ctx, student, enrollment.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	created, err := f.methods.Create(ctx, student, enrollment.ID, EvaluationMethodRequest{Name: " Média ", Kind: models.EvaluationSimpleAverage})
	require.NoError(t, err)
	assert.Equal(t, "Média", created.Name)
	assert.Empty(t, created.Items)

	_, err = f.methods.Create(ctx, student, enrollment.ID, EvaluationMethodRequest{Name: "Again", Kind: models.EvaluationSimpleAverage})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	f.addItem(t, enrollment.ID, "P1", 4, ptr(8.0))
	f.addItem(t, enrollment.ID, "P2", 6, ptr(6.0))

	current, err := f.enrollments.Get(ctx, student, enrollment.ID)
	require.NoError(t, err)
	require.NotNil(t, current.Average)
	assert.Equal(t, 7.0, *current.Average)

	_, err = f.methods.Update(ctx, student, enrollment.ID, EvaluationMethodRequest{Name: "Média", Kind: models.EvaluationWeightedAverage})
	require.NoError(t, err)
	current, err = f.enrollments.Get(ctx, student, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, 6.8, *current.Average)

	cleared, err := f.methods.Delete(ctx, student, enrollment.ID)
	require.NoError(t, err)
	assert.Nil(t, cleared.Average)
	assert.Equal(t, models.EnrollmentStatusInProgress, cleared.Status)
}

func TestEvaluationMethodUnsupportedKindRollsBack(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "INF110", "Algoritmos", 40)
	enrollment := f.enroll(t, student, course.ID)
	ctx := context.Background()

	_, err := f.methods.Create(ctx, student, enrollment.ID, EvaluationMethodRequest{Name: "Fórmula", Kind: models.EvaluationCustom, Formula: ptr("(P1+P2)/2")})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUnsupported)

	_, err = f.methods.Get(ctx, student, enrollment.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestEvaluationMethodValidation(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "INF110", "Algoritmos", 40)
	enrollment := f.enroll(t, student, course.ID)

	_, err := f.methods.Create(context.Background(), student, enrollment.ID, EvaluationMethodRequest{Name: "x", Kind: "median"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestEvaluationMethodForeignStudent(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "INF110", "Algoritmos", 40)
	enrollment := f.enroll(t, student, course.ID)

	_, err := f.methods.Create(context.Background(), other, enrollment.ID, EvaluationMethodRequest{Name: "x", Kind: models.EvaluationSimpleAverage})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
