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

// CourseRepository manages courses and their weekly sessions.
type CourseRepository struct {
	db sqlx.ExtContext
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db sqlx.ExtContext) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListCourses returns the catalog ordered by name.
func (r *CourseRepository) ListCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := sqlx.SelectContext(ctx, r.db, &courses, `SELECT id, code, name, workload, created_at, updated_at FROM courses ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// GetCourse returns a course by ID.
func (r *CourseRepository) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := sqlx.GetContext(ctx, r.db, &course, `SELECT id, code, name, workload, created_at, updated_at FROM courses WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// CreateCourse inserts a course.
func (r *CourseRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, code, name, workload, created_at, updated_at) VALUES (:id, :code, :name, :workload, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// ListSessions returns class sessions ordered by weekday and start time.
func (r *CourseRepository) ListSessions(ctx context.Context, filter SessionFilter) ([]models.ClassSession, error) {
	query := `SELECT id, course_id, term, weekday, start_time, end_time, room, instructor, created_at FROM class_sessions`
	var conditions []string
	var args []interface{}
	if len(filter.CourseIDs) > 0 {
		in, inArgs, err := sqlx.In("course_id IN (?)", filter.CourseIDs)
		if err != nil {
			return nil, fmt.Errorf("build session filter: %w", err)
		}
		conditions = append(conditions, in)
		args = append(args, inArgs...)
	}
	if filter.Term != "" {
		conditions = append(conditions, "term = ?")
		args = append(args, filter.Term)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY weekday ASC, start_time ASC"

	var sessions []models.ClassSession
	if err := sqlx.SelectContext(ctx, r.db, &sessions, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return nil, fmt.Errorf("list class sessions: %w", err)
	}
	return sessions, nil
}

// GetSession returns a class session by ID.
func (r *CourseRepository) GetSession(ctx context.Context, id string) (*models.ClassSession, error) {
	var session models.ClassSession
	const query = `SELECT id, course_id, term, weekday, start_time, end_time, room, instructor, created_at FROM class_sessions WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.db, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateSession inserts a weekly class session.
func (r *CourseRepository) CreateSession(ctx context.Context, session *models.ClassSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	session.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO class_sessions (id, course_id, term, weekday, start_time, end_time, room, instructor, created_at)
VALUES (:id, :course_id, :term, :weekday, :start_time, :end_time, :room, :instructor, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, session); err != nil {
		return fmt.Errorf("create class session: %w", err)
	}
	return nil
}

// DeleteSession removes a class session.
func (r *CourseRepository) DeleteSession(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM class_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete class session: %w", err)
	}
	return nil
}
