package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiufpe/hub-api/internal/models"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

func TestEnrollmentCreateAppliesDefaults(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "MAT101", "Cálculo I", 60)

	enrollment := f.enroll(t, student, course.ID)

	assert.Equal(t, "student-1", enrollment.StudentID)
	assert.Equal(t, 5.0, enrollment.MinAverage)
	assert.Equal(t, 75, enrollment.MinAttendance)
	assert.Equal(t, models.EnrollmentStatusInProgress, enrollment.Status)
	assert.Nil(t, enrollment.Average)
	assert.Equal(t, 100, enrollment.AttendanceRatio)
	assert.Equal(t, "Cálculo I", enrollment.CourseName)
	require.NotNil(t, enrollment.RecomputedAt)
}

func TestEnrollmentCreateRejectsDuplicates(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "MAT101", "Cálculo I", 60)
	f.enroll(t, student, course.ID)

	_, err := f.enrollments.Create(context.Background(), student, CreateEnrollmentRequest{CourseID: course.ID, Term: "2024.1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestEnrollmentCreateUnknownCourse(t *testing.T) {
	f := newLedgerFixture(t)
	_, err := f.enrollments.Create(context.Background(), student, CreateEnrollmentRequest{CourseID: "missing", Term: "2024.1"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestEnrollmentStaffMustNameStudent(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "MAT101", "Cálculo I", 60)

	_, err := f.enrollments.Create(context.Background(), staff, CreateEnrollmentRequest{CourseID: course.ID, Term: "2024.1"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	created, err := f.enrollments.Create(context.Background(), staff, CreateEnrollmentRequest{StudentID: "student-9", CourseID: course.ID, Term: "2024.1"})
	require.NoError(t, err)
	assert.Equal(t, "student-9", created.StudentID)
}

func TestEnrollmentStudentsCannotReadOthers(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "MAT101", "Cálculo I", 60)
	enrollment := f.enroll(t, student, course.ID)

	_, err := f.enrollments.Get(context.Background(), other, enrollment.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	list, err := f.enrollments.List(context.Background(), other, models.EnrollmentFilter{StudentID: "student-1"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestEnrollmentUpdateThresholdRecomputesStatus(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "MAT101", "Cálculo I", 20)
	enrollment := f.enroll(t, student, course.ID)
	f.weighted(t, enrollment.ID)
	f.addItem(t, enrollment.ID, "P1", 1, ptr(6.0))

	current, err := f.enrollments.Get(context.Background(), student, enrollment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusPassed, current.Status)

	updated, err := f.enrollments.Update(context.Background(), staff, enrollment.ID, UpdateEnrollmentRequest{MinAverage: ptr(7.0)})
	require.NoError(t, err)
	assert.Equal(t, 7.0, updated.MinAverage)
	assert.Equal(t, models.EnrollmentStatusFailed, updated.Status)
}

func TestEnrollmentWithdrawnSurvivesRecompute(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "MAT101", "Cálculo I", 20)
	enrollment := f.enroll(t, student, course.ID)
	f.weighted(t, enrollment.ID)

	withdrawn, err := f.enrollments.Update(context.Background(), student, enrollment.ID, UpdateEnrollmentRequest{Withdrawn: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusWithdrawn, withdrawn.Status)

	mutation := f.addItem(t, enrollment.ID, "P1", 1, ptr(9.0))
	assert.Equal(t, models.EnrollmentStatusWithdrawn, mutation.Enrollment.Status)
	require.NotNil(t, mutation.Enrollment.Average)
	assert.Equal(t, 9.0, *mutation.Enrollment.Average)

	reinstated, err := f.enrollments.Update(context.Background(), student, enrollment.ID, UpdateEnrollmentRequest{Withdrawn: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusPassed, reinstated.Status)
}

func TestEnrollmentDeleteCascades(t *testing.T) {
	f := newLedgerFixture(t)
	course := f.course(t, "MAT101", "Cálculo I", 20)
	enrollment := f.enroll(t, student, course.ID)
	f.weighted(t, enrollment.ID)
	item := f.addItem(t, enrollment.ID, "P1", 1, ptr(9.0))
	_, err := f.absences.Create(context.Background(), student, enrollment.ID, AbsenceRequest{Date: mustDate("2024-03-04")})
	require.NoError(t, err)

	require.NoError(t, f.enrollments.Delete(context.Background(), student, enrollment.ID))

	_, err = f.enrollments.Get(context.Background(), student, enrollment.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, err = f.items.Grade(context.Background(), student, item.Item.ID, GradeRequest{Score: ptr(1.0)})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
