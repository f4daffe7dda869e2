package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiufpe/hub-api/internal/evaluation"
	"github.com/hiufpe/hub-api/internal/models"
)

func TestConcurrentLedgerWritesKeepOutcomeConsistent(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	course := f.course(t, "INF110", "Algoritmos", 20)
	enrollment := f.enroll(t, student, course.ID)
	f.weighted(t, enrollment.ID)

	const itemCount = 12
	ids := make([]string, itemCount)
	for i := range ids {
		ids[i] = f.addItem(t, enrollment.ID, fmt.Sprintf("Lista %d", i+1), float64(i+1), nil).Item.ID
	}

	var wg sync.WaitGroup
	errs := make(chan error, itemCount+3)
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = f.items.Grade(ctx, student, id, GradeRequest{Score: ptr(float64(5 + i%5))})
			} else {
				_, err = f.items.Delete(ctx, student, id)
			}
			errs <- err
		}(i, id)
	}
	for day := 4; day < 7; day++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			_, err := f.absences.Create(ctx, student, enrollment.ID, AbsenceRequest{Date: time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC)})
			errs <- err
		}(day)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	items, err := f.items.List(ctx, student, enrollment.ID)
	require.NoError(t, err)
	require.Len(t, items, itemCount/2)

	expected, err := evaluation.Average(models.EvaluationWeightedAverage, items)
	require.NoError(t, err)
	require.NotNil(t, expected)

	final, err := f.enrollments.Get(ctx, student, enrollment.ID)
	require.NoError(t, err)
	require.NotNil(t, final.Average)
	assert.Equal(t, evaluation.Round2(*expected), *final.Average)
	assert.Equal(t, 3, final.AbsenceCount)
	assert.Equal(t, 85, final.AttendanceRatio)
	assert.Equal(t, evaluation.Status(items, final.Average, final.AttendanceRatio, final.MinAverage, final.MinAttendance), final.Status)
	assert.Equal(t, models.EnrollmentStatusPassed, final.Status)
}
