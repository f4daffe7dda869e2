package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hiufpe/hub-api/internal/models"
)

// LedgerTx is the unit of work over enrollments, their evaluation ledgers and the course catalog.
// Implementations returned by Update hold a write lock on every enrollment passed to LockEnrollment
// until the surrounding transaction ends.
type LedgerTx interface {
	ListEnrollments(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error)
	ListEnrollmentIDs(ctx context.Context) ([]string, error)
	GetEnrollment(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	LockEnrollment(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error
	UpdateEnrollmentSettings(ctx context.Context, enrollment *models.Enrollment) error
	UpdateOutcome(ctx context.Context, id string, outcome models.Outcome) error
	DeleteEnrollment(ctx context.Context, id string) error

	GetMethod(ctx context.Context, id string) (*models.EvaluationMethod, error)
	GetMethodByEnrollment(ctx context.Context, enrollmentID string) (*models.EvaluationMethod, error)
	CreateMethod(ctx context.Context, method *models.EvaluationMethod) error
	UpdateMethod(ctx context.Context, method *models.EvaluationMethod) error
	DeleteMethod(ctx context.Context, id string) error

	ListItems(ctx context.Context, methodID string) ([]models.AssessmentItem, error)
	GetItem(ctx context.Context, id string) (*models.AssessmentItem, error)
	CreateItem(ctx context.Context, item *models.AssessmentItem) error
	UpdateItem(ctx context.Context, item *models.AssessmentItem) error
	DeleteItem(ctx context.Context, id string) error
	DeleteItemsByMethod(ctx context.Context, methodID string) error

	ListAbsences(ctx context.Context, enrollmentID string) ([]models.Absence, error)
	GetAbsence(ctx context.Context, id string) (*models.Absence, error)
	CountAbsences(ctx context.Context, enrollmentID string) (int, error)
	CreateAbsence(ctx context.Context, absence *models.Absence) error
	DeleteAbsence(ctx context.Context, id string) error
	DeleteAbsencesByEnrollment(ctx context.Context, enrollmentID string) error

	ListCourses(ctx context.Context) ([]models.Course, error)
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	CreateCourse(ctx context.Context, course *models.Course) error
	ListSessions(ctx context.Context, filter SessionFilter) ([]models.ClassSession, error)
	GetSession(ctx context.Context, id string) (*models.ClassSession, error)
	CreateSession(ctx context.Context, session *models.ClassSession) error
	DeleteSession(ctx context.Context, id string) error
}

// SessionFilter narrows class session listings.
type SessionFilter struct {
	CourseIDs []string
	Term      string
}

// Ledger binds every ledger repository to the same connection or transaction.
type Ledger struct {
	*EnrollmentRepository
	*EvaluationMethodRepository
	*AssessmentRepository
	*AbsenceRepository
	*CourseRepository
}

// NewLedger constructs a ledger over a database handle or an open transaction.
func NewLedger(db sqlx.ExtContext) *Ledger {
	return &Ledger{
		EnrollmentRepository:       NewEnrollmentRepository(db),
		EvaluationMethodRepository: NewEvaluationMethodRepository(db),
		AssessmentRepository:       NewAssessmentRepository(db),
		AbsenceRepository:          NewAbsenceRepository(db),
		CourseRepository:           NewCourseRepository(db),
	}
}

// Store runs ledger work against PostgreSQL.
type Store struct {
	db *sqlx.DB
}

// NewStore constructs a SQL backed store.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// View runs read-only work outside of an explicit transaction.
func (s *Store) View(ctx context.Context, fn func(LedgerTx) error) error {
	return fn(NewLedger(s.db))
}

// Update runs fn in a transaction, committing only when fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(LedgerTx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(NewLedger(tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger transaction: %w", err)
	}
	return nil
}

var _ LedgerTx = (*Ledger)(nil)
