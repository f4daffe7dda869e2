package evaluation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiufpe/hub-api/internal/models"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

func TestMinimumScoreFor(t *testing.T) {
	items := []models.AssessmentItem{item("A", 4, score(8)), item("B", 6, nil)}

	p, err := MinimumScoreFor(models.EvaluationWeightedAverage, items, 7)
	require.NoError(t, err)
	require.NotNil(t, p.RequiredScore)
	assert.Equal(t, 6.33, *p.RequiredScore)
	assert.False(t, p.Final)
	assert.Equal(t, 4.0, p.LockedWeight)
	assert.Equal(t, 32.0, p.LockedWeightedSum)
	assert.Equal(t, 6.0, p.PendingWeight)
	require.Len(t, p.PendingItems, 1)
	assert.Equal(t, "B", p.PendingItems[0].Name)
}

func TestMinimumScoreForIsNotClamped(t *testing.T) {
	items := []models.AssessmentItem{item("A", 8, score(2)), item("B", 2, nil)}
	p, err := MinimumScoreFor(models.EvaluationWeightedAverage, items, 7)
	require.NoError(t, err)
	assert.Equal(t, 27.0, *p.RequiredScore)

	items = []models.AssessmentItem{item("A", 8, score(10)), item("B", 2, nil)}
	p, err = MinimumScoreFor(models.EvaluationWeightedAverage, items, 5)
	require.NoError(t, err)
	assert.Equal(t, -15.0, *p.RequiredScore)
}

func TestMinimumScoreForAllGradedReportsFinal(t *testing.T) {
	items := []models.AssessmentItem{item("A", 4, score(8)), item("B", 6, score(6))}
	p, err := MinimumScoreFor(models.EvaluationWeightedAverage, items, 9)
	require.NoError(t, err)
	assert.True(t, p.Final)
	assert.Nil(t, p.RequiredScore)
	assert.Equal(t, 6.8, *p.FinalAverage)
	assert.Empty(t, p.PendingItems)
}

func TestMinimumScoreForWithoutWeight(t *testing.T) {
	_, err := MinimumScoreFor(models.EvaluationWeightedAverage, nil, 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidState))
}

func TestMinimumScoreForSimpleAverageUnsupported(t *testing.T) {
	_, err := MinimumScoreFor(models.EvaluationSimpleAverage, []models.AssessmentItem{item("A", 1, nil)}, 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnsupported))
}

func TestSimulateDoesNotMutateItems(t *testing.T) {
	items := []models.AssessmentItem{item("A", 4, score(8)), item("B", 6, nil), item("C", 2, nil)}

	first, err := Simulate(models.EvaluationWeightedAverage, items, "B", 10)
	require.NoError(t, err)
	assert.Equal(t, 9.2, first)

	second, err := Simulate(models.EvaluationWeightedAverage, items, "B", 5)
	require.NoError(t, err)
	assert.Equal(t, 6.2, second)

	assert.Nil(t, items[1].Score)
	assert.Nil(t, items[2].Score)
}

func TestSimulateOverridesGradedItem(t *testing.T) {
	items := []models.AssessmentItem{item("A", 4, score(8)), item("B", 6, score(2))}
	got, err := Simulate(models.EvaluationWeightedAverage, items, "B", 7)
	require.NoError(t, err)
	assert.Equal(t, 7.4, got)
	assert.Equal(t, 2.0, *items[1].Score)
}

func TestSimulateUnknownItem(t *testing.T) {
	_, err := Simulate(models.EvaluationWeightedAverage, []models.AssessmentItem{item("A", 1, nil)}, "Z", 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestSimulateZeroWeight(t *testing.T) {
	_, err := Simulate(models.EvaluationWeightedAverage, []models.AssessmentItem{item("A", 0, nil)}, "A", 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidState))
}
