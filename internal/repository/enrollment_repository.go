package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hiufpe/hub-api/internal/models"
)

const enrollmentColumns = `e.id, e.student_id, e.course_id, e.term, e.min_average, e.min_attendance, e.status,
	e.average, e.attendance_ratio, e.absence_count, e.recomputed_at, e.created_at, e.updated_at,
	c.code AS course_code, c.name AS course_name, c.workload`

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db sqlx.ExtContext
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db sqlx.ExtContext) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListEnrollments returns enrollments with course info filtered by the provided criteria.
func (r *EnrollmentRepository) ListEnrollments(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)))
	}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		conditions = append(conditions, fmt.Sprintf("e.course_id = $%d", len(args)))
	}
	if filter.Term != "" {
		args = append(args, filter.Term)
		conditions = append(conditions, fmt.Sprintf("e.term = $%d", len(args)))
	}

	query := "SELECT " + enrollmentColumns + " FROM enrollments e JOIN courses c ON c.id = e.course_id"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY c.name ASC"

	var enrollments []models.EnrollmentDetail
	if err := sqlx.SelectContext(ctx, r.db, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// ListEnrollmentIDs returns every enrollment id, used by reconciliation sweeps.
func (r *EnrollmentRepository) ListEnrollmentIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := sqlx.SelectContext(ctx, r.db, &ids, `SELECT id FROM enrollments ORDER BY created_at ASC`); err != nil {
		return nil, fmt.Errorf("list enrollment ids: %w", err)
	}
	return ids, nil
}

// GetEnrollment fetches an enrollment by ID.
func (r *EnrollmentRepository) GetEnrollment(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	query := "SELECT " + enrollmentColumns + " FROM enrollments e JOIN courses c ON c.id = e.course_id WHERE e.id = $1"
	var enrollment models.EnrollmentDetail
	if err := sqlx.GetContext(ctx, r.db, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// LockEnrollment fetches an enrollment and holds a row lock until the transaction ends.
func (r *EnrollmentRepository) LockEnrollment(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	query := "SELECT " + enrollmentColumns + " FROM enrollments e JOIN courses c ON c.id = e.course_id WHERE e.id = $1 FOR UPDATE OF e"
	var enrollment models.EnrollmentDetail
	if err := sqlx.GetContext(ctx, r.db, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// CreateEnrollment inserts a new enrollment.
func (r *EnrollmentRepository) CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusInProgress
	}

	const query = `INSERT INTO enrollments (id, student_id, course_id, term, min_average, min_attendance, status, average, attendance_ratio, absence_count, created_at, updated_at)
VALUES (:id, :student_id, :course_id, :term, :min_average, :min_attendance, :status, :average, :attendance_ratio, :absence_count, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// UpdateEnrollmentSettings updates the configuration fields of an enrollment.
func (r *EnrollmentRepository) UpdateEnrollmentSettings(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE enrollments SET min_average = $1, min_attendance = $2, status = $3, updated_at = $4 WHERE id = $5`
	if _, err := r.db.ExecContext(ctx, query, enrollment.MinAverage, enrollment.MinAttendance, enrollment.Status, enrollment.UpdatedAt, enrollment.ID); err != nil {
		return fmt.Errorf("update enrollment settings: %w", err)
	}
	return nil
}

// UpdateOutcome writes every derived field in a single statement.
func (r *EnrollmentRepository) UpdateOutcome(ctx context.Context, id string, outcome models.Outcome) error {
	const query = `UPDATE enrollments SET average = $1, status = $2, attendance_ratio = $3, absence_count = $4, recomputed_at = $5, updated_at = $5 WHERE id = $6`
	if _, err := r.db.ExecContext(ctx, query, outcome.Average, outcome.Status, outcome.AttendanceRatio, outcome.AbsenceCount, outcome.RecomputedAt, id); err != nil {
		return fmt.Errorf("update enrollment outcome: %w", err)
	}
	return nil
}

// DeleteEnrollment removes an enrollment row. Ledger rows must be removed first.
func (r *EnrollmentRepository) DeleteEnrollment(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM enrollments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}
