package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiufpe/hub-api/internal/models"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

func TestAssessmentUngradedItemDoesNotMoveAverage(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "INF110", "Algoritmos", 40)
	enrollment := f.enroll(t, student, course.ID)
	f.weighted(t, enrollment.ID)

	a := f.addItem(t, enrollment.ID, "A", 4, ptr(8.0))
	require.NotNil(t, a.Enrollment.Average)
	assert.Equal(t, 8.0, *a.Enrollment.Average)
	assert.Equal(t, models.EnrollmentStatusPassed, a.Enrollment.Status)

	b := f.addItem(t, enrollment.ID, "B", 6, nil)
	assert.Equal(t, 8.0, *b.Enrollment.Average)
	assert.Equal(t, models.EnrollmentStatusInProgress, b.Enrollment.Status)

	graded, err := f.items.Grade(context.Background(), student, b.Item.ID, GradeRequest{Score: ptr(3.0)})
	require.NoError(t, err)
	assert.Equal(t, 5.0, *graded.Enrollment.Average)
	assert.Equal(t, models.EnrollmentStatusPassed, graded.Enrollment.Status)
	assert.NotNil(t, graded.Item.Date)

	cleared, err := f.items.Grade(context.Background(), student, b.Item.ID, GradeRequest{})
	require.NoError(t, err)
	assert.Nil(t, cleared.Item.Score)
	assert.Equal(t, models.EnrollmentStatusInProgress, cleared.Enrollment.Status)
}

func TestAssessmentStatusNeverFinalWhilePending(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "INF110", "Algoritmos", 40)
	enrollment := f.enroll(t, student, course.ID)
	f.weighted(t, enrollment.ID)

	ids := []string{
		f.addItem(t, enrollment.ID, "P1", 1, nil).Item.ID,
		f.addItem(t, enrollment.ID, "P2", 1, nil).Item.ID,
		f.addItem(t, enrollment.ID, "P3", 1, nil).Item.ID,
	}
	for i, id := range []string{ids[2], ids[0], ids[1]} {
		mutation, err := f.items.Grade(context.Background(), student, id, GradeRequest{Score: ptr(2.0)})
		require.NoError(t, err)
		if i < 2 {
			assert.Equal(t, models.EnrollmentStatusInProgress, mutation.Enrollment.Status)
		} else {
			assert.Equal(t, models.EnrollmentStatusFailed, mutation.Enrollment.Status)
		}
	}
}

func TestAssessmentDeleteAndReAddIsIdempotent(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "INF110", "Algoritmos", 40)
	enrollment := f.enroll(t, student, course.ID)
	f.weighted(t, enrollment.ID)

	f.addItem(t, enrollment.ID, "P1", 3, ptr(7.5))
	p2 := f.addItem(t, enrollment.ID, "P2", 2, ptr(4.25))
	original := *p2.Enrollment.Average

	after, err := f.items.Delete(context.Background(), student, p2.Item.ID)
	require.NoError(t, err)
	assert.Equal(t, 7.5, *after.Average)

	readded := f.addItem(t, enrollment.ID, "P2", 2, ptr(4.25))
	assert.Equal(t, original, *readded.Enrollment.Average)
}

func TestAssessmentScoreAboveMaximum(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "INF110", "Algoritmos", 40)
	enrollment := f.enroll(t, student, course.ID)
	f.weighted(t, enrollment.ID)

	_, err := f.items.Create(context.Background(), student, enrollment.ID, AssessmentRequest{Name: "P1", Weight: 1, Score: ptr(11.0)})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	item := f.addItem(t, enrollment.ID, "Projeto", 1, nil)
	_, err = f.items.Grade(context.Background(), student, item.Item.ID, GradeRequest{Score: ptr(10.5)})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	list, err := f.items.List(context.Background(), student, enrollment.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Score)
}

func TestAssessmentRequiresMethod(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "INF110", "Algoritmos", 40)
	enrollment := f.enroll(t, student, course.ID)

	_, err := f.items.Create(context.Background(), student, enrollment.ID, AssessmentRequest{Name: "P1", Weight: 1})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestAssessmentUpdateReplacesFields(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "INF110", "Algoritmos", 40)
	enrollment := f.enroll(t, student, course.ID)
	f.weighted(t, enrollment.ID)
	item := f.addItem(t, enrollment.ID, "P1", 1, ptr(4.0))

	updated, err := f.items.Update(context.Background(), student, item.Item.ID, AssessmentRequest{Name: "Prova 1", Category: "exam", Weight: 2, Score: ptr(16.0), MaxScore: ptr(20.0)})
	require.NoError(t, err)
	assert.Equal(t, "Prova 1", updated.Item.Name)
	assert.Equal(t, 20.0, updated.Item.MaxScore)
	assert.Equal(t, 16.0, *updated.Enrollment.Average)
}

func TestAssessmentForeignStudentCannotGrade(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "INF110", "Algoritmos", 40)
	enrollment := f.enroll(t, student, course.ID)
	f.weighted(t, enrollment.ID)
	item := f.addItem(t, enrollment.ID, "P1", 1, nil)

	_, err := f.items.Grade(context.Background(), other, item.Item.ID, GradeRequest{Score: ptr(10.0)})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
