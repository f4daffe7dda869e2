package evaluation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiufpe/hub-api/internal/models"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

func score(v float64) *float64 { return &v }

func item(id string, weight float64, s *float64) models.AssessmentItem {
	return models.AssessmentItem{ID: id, Name: id, Weight: weight, Score: s, MaxScore: models.DefaultMaxScore}
}

func TestWeightedAverageIgnoresUngradedItems(t *testing.T) {
	items := []models.AssessmentItem{item("A", 4, score(8)), item("B", 6, nil)}

	avg, err := Average(models.EvaluationWeightedAverage, items)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.InDelta(t, 8.0, *avg, 1e-9)

	items = append(items, item("C", 3, nil))
	again, err := Average(models.EvaluationWeightedAverage, items)
	require.NoError(t, err)
	assert.Equal(t, *avg, *again)
}

func TestWeightedAverageTextbookMean(t *testing.T) {
	items := []models.AssessmentItem{item("P1", 3, score(6)), item("P2", 3, score(8)), item("T", 4, score(9))}
	avg, err := Average(models.EvaluationWeightedAverage, items)
	require.NoError(t, err)
	assert.InDelta(t, (18.0+24.0+36.0)/10.0, *avg, 1e-9)
}

func TestWeightedAverageZeroDenominatorIsNil(t *testing.T) {
	avg, err := Average(models.EvaluationWeightedAverage, []models.AssessmentItem{item("A", 0, score(7)), item("B", 2, nil)})
	require.NoError(t, err)
	assert.Nil(t, avg)

	avg, err = Average(models.EvaluationWeightedAverage, nil)
	require.NoError(t, err)
	assert.Nil(t, avg)
}

func TestSimpleAverageIgnoresWeights(t *testing.T) {
	items := []models.AssessmentItem{item("A", 1, score(4)), item("B", 9, score(8)), item("C", 5, nil)}
	avg, err := Average(models.EvaluationSimpleAverage, items)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, *avg, 1e-9)

	avg, err = Average(models.EvaluationSimpleAverage, []models.AssessmentItem{item("A", 1, nil)})
	require.NoError(t, err)
	assert.Nil(t, avg)
}

func TestUnsupportedKinds(t *testing.T) {
	for _, kind := range []models.EvaluationKind{models.EvaluationCustom, models.EvaluationWeightedSubstitution} {
		_, err := Average(kind, []models.AssessmentItem{item("A", 1, score(5))})
		require.Error(t, err)
		assert.True(t, errors.Is(err, appErrors.ErrUnsupported), kind)
	}
}

func TestStatusNeverFinalWhileItemPending(t *testing.T) {
	pending := []models.AssessmentItem{item("A", 5, score(10)), item("B", 5, nil)}
	orders := [][]int{{0, 1}, {1, 0}}
	for _, order := range orders {
		items := []models.AssessmentItem{item("A", 5, nil), item("B", 5, nil)}
		for step, idx := range order {
			items[idx].Score = score(9)
			avg, err := Average(models.EvaluationWeightedAverage, items)
			require.NoError(t, err)
			status := Status(items, avg, 100, 5, 75)
			if step < len(order)-1 {
				assert.Equal(t, models.EnrollmentStatusInProgress, status)
			} else {
				assert.Equal(t, models.EnrollmentStatusPassed, status)
			}
		}
	}

	avg := 10.0
	assert.Equal(t, models.EnrollmentStatusInProgress, Status(pending, &avg, 100, 5, 75))
}

func TestStatusResolution(t *testing.T) {
	items := []models.AssessmentItem{item("A", 1, score(6))}
	avg := 6.0
	assert.Equal(t, models.EnrollmentStatusPassed, Status(items, &avg, 75, 5, 75))
	assert.Equal(t, models.EnrollmentStatusFailed, Status(items, &avg, 74, 5, 75))

	low := 4.99
	assert.Equal(t, models.EnrollmentStatusFailed, Status(items, &low, 100, 5, 75))
	assert.Equal(t, models.EnrollmentStatusInProgress, Status(nil, nil, 100, 5, 75))
}

func TestStatusFullyGradedWithoutWeightFails(t *testing.T) {
	items := []models.AssessmentItem{item("A", 0, score(9)), item("B", 0, score(10))}
	avg, err := Average(models.EvaluationWeightedAverage, items)
	require.NoError(t, err)
	assert.Nil(t, avg)
	assert.Equal(t, models.EnrollmentStatusFailed, Status(items, avg, 100, 5, 75))

	outcome, err := Recompute(Input{
		Method:        &models.EvaluationMethod{Kind: models.EvaluationWeightedAverage},
		Items:         items,
		TotalSessions: 20,
		MinAverage:    5,
		MinAttendance: 75,
	})
	require.NoError(t, err)
	assert.Nil(t, outcome.Average)
	assert.Equal(t, models.EnrollmentStatusFailed, outcome.Status)

	pending := []models.AssessmentItem{item("A", 0, score(9)), item("B", 0, nil)}
	assert.Equal(t, models.EnrollmentStatusInProgress, Status(pending, nil, 100, 5, 75))
}

func TestAttendanceRatio(t *testing.T) {
	assert.Equal(t, 85, AttendanceRatio(20, 3))
	assert.Equal(t, 100, AttendanceRatio(0, 3))
	assert.Equal(t, 100, AttendanceRatio(-1, 0))
	assert.Equal(t, 0, AttendanceRatio(10, 12))
	assert.Equal(t, 67, AttendanceRatio(3, 1))
}

func TestAbsenceAllowance(t *testing.T) {
	assert.Equal(t, 15, AbsenceAllowance(60, 75))
	assert.Equal(t, 5, AbsenceAllowance(20, 75))
	assert.Equal(t, 0, AbsenceAllowance(0, 75))
}

func TestRecomputeKeepsWithdrawn(t *testing.T) {
	out, err := Recompute(Input{
		Method:        &models.EvaluationMethod{Kind: models.EvaluationWeightedAverage},
		Items:         []models.AssessmentItem{item("A", 1, score(9))},
		TotalSessions: 20,
		AbsenceCount:  3,
		MinAverage:    5,
		MinAttendance: 75,
		CurrentStatus: models.EnrollmentStatusWithdrawn,
	})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusWithdrawn, out.Status)
	assert.Equal(t, 85, out.AttendanceRatio)
	assert.Equal(t, 9.0, *out.Average)
}

func TestRecomputeWithoutMethod(t *testing.T) {
	out, err := Recompute(Input{TotalSessions: 20, AbsenceCount: 2, MinAverage: 5, MinAttendance: 75, CurrentStatus: models.EnrollmentStatusPassed})
	require.NoError(t, err)
	assert.Nil(t, out.Average)
	assert.Equal(t, models.EnrollmentStatusInProgress, out.Status)
	assert.Equal(t, 90, out.AttendanceRatio)
	assert.Equal(t, 2, out.AbsenceCount)
}

func TestRecomputeIsIdempotentUnderReconstruction(t *testing.T) {
	method := &models.EvaluationMethod{Kind: models.EvaluationWeightedAverage}
	items := []models.AssessmentItem{item("A", 2, score(7.5)), item("B", 3, score(6.25)), item("C", 5, nil)}
	before, err := Recompute(Input{Method: method, Items: items, TotalSessions: 30, MinAverage: 5, MinAttendance: 75})
	require.NoError(t, err)

	rebuilt := []models.AssessmentItem{items[0], items[2], item("B2", 3, score(6.25))}
	after, err := Recompute(Input{Method: method, Items: rebuilt, TotalSessions: 30, MinAverage: 5, MinAttendance: 75})
	require.NoError(t, err)
	assert.Equal(t, *before.Average, *after.Average)
	assert.Equal(t, before.Status, after.Status)
}
