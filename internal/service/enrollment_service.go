package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/internal/repository"
	"github.com/hiufpe/hub-api/pkg/config"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

// CreateEnrollmentRequest registers a student in a course offering.
type CreateEnrollmentRequest struct {
	StudentID     string   `json:"student_id"`
	CourseID      string   `json:"course_id" validate:"required"`
	Term          string   `json:"term" validate:"required,max=20"`
	MinAverage    *float64 `json:"min_average" validate:"omitempty,gte=0,lte=10"`
	MinAttendance *int     `json:"min_attendance" validate:"omitempty,gte=0,lte=100"`
}

// UpdateEnrollmentRequest edits configuration fields of an enrollment.
type UpdateEnrollmentRequest struct {
	MinAverage    *float64 `json:"min_average" validate:"omitempty,gte=0,lte=10"`
	MinAttendance *int     `json:"min_attendance" validate:"omitempty,gte=0,lte=100"`
	Withdrawn     *bool    `json:"withdrawn"`
}

// EnrollmentService manages enrollment registration and configuration.
type EnrollmentService struct {
	store     LedgerStore
	outcomes  *OutcomeService
	defaults  config.EvaluationConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs the service.
func NewEnrollmentService(store LedgerStore, outcomes *OutcomeService, defaults config.EvaluationConfig, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{store: store, outcomes: outcomes, defaults: defaults, validator: validate, logger: logger}
}

// List returns enrollments visible to the actor. Students only see their own.
func (s *EnrollmentService) List(ctx context.Context, actor *models.JWTClaims, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if !isStaff(actor) {
		filter.StudentID = actor.UserID
	}
	var enrollments []models.EnrollmentDetail
	err := s.store.View(ctx, func(tx repository.LedgerTx) error {
		var err error
		enrollments, err = tx.ListEnrollments(ctx, filter)
		return err
	})
	if err != nil {
		return nil, normalizeError(err, "list enrollments")
	}
	if enrollments == nil {
		enrollments = []models.EnrollmentDetail{}
	}
	return enrollments, nil
}

// Get returns one enrollment.
func (s *EnrollmentService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.EnrollmentDetail, error) {
	var enrollment *models.EnrollmentDetail
	err := s.store.View(ctx, func(tx repository.LedgerTx) error {
		var err error
		enrollment, err = tx.GetEnrollment(ctx, id)
		if err != nil {
			return lookupError(err, "enrollment")
		}
		return authorizeEnrollment(actor, enrollment)
	})
	if err != nil {
		return nil, normalizeError(err, "load enrollment")
	}
	return enrollment, nil
}

// Create registers a new enrollment with default thresholds when none are given.
func (s *EnrollmentService) Create(ctx context.Context, actor *models.JWTClaims, req CreateEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	studentID, err := scopeStudent(actor, req.StudentID)
	if err != nil {
		return nil, err
	}

	enrollment := &models.Enrollment{
		StudentID:       studentID,
		CourseID:        req.CourseID,
		Term:            req.Term,
		MinAverage:      s.defaults.DefaultMinAverage,
		MinAttendance:   s.defaults.DefaultMinAttendance,
		Status:          models.EnrollmentStatusInProgress,
		AttendanceRatio: 100,
	}
	if req.MinAverage != nil {
		enrollment.MinAverage = *req.MinAverage
	}
	if req.MinAttendance != nil {
		enrollment.MinAttendance = *req.MinAttendance
	}

	var created *models.EnrollmentDetail
	err = s.store.Update(ctx, func(tx repository.LedgerTx) error {
		if _, err := tx.GetCourse(ctx, req.CourseID); err != nil {
			return lookupError(err, "course")
		}
		existing, err := tx.ListEnrollments(ctx, models.EnrollmentFilter{StudentID: studentID, CourseID: req.CourseID, Term: req.Term})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return appErrors.Clone(appErrors.ErrConflict, "student already enrolled in this course for the term")
		}
		if err := tx.CreateEnrollment(ctx, enrollment); err != nil {
			return err
		}
		detail, err := tx.LockEnrollment(ctx, enrollment.ID)
		if err != nil {
			return err
		}
		created, err = s.outcomes.apply(ctx, tx, detail)
		return err
	})
	if err != nil {
		return nil, normalizeError(err, "create enrollment")
	}
	s.outcomes.invalidate(ctx, studentID)
	s.logger.Info("enrollment created", zap.String("enrollment_id", created.ID), zap.String("student_id", studentID))
	return created, nil
}

// Update changes thresholds or withdraws the enrollment, then recomputes the outcome.
func (s *EnrollmentService) Update(ctx context.Context, actor *models.JWTClaims, id string, req UpdateEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	return s.outcomes.Mutate(ctx, actor, id, func(ctx context.Context, tx repository.LedgerTx, enrollment *models.EnrollmentDetail) error {
		if req.MinAverage != nil {
			enrollment.MinAverage = *req.MinAverage
		}
		if req.MinAttendance != nil {
			enrollment.MinAttendance = *req.MinAttendance
		}
		if req.Withdrawn != nil {
			if *req.Withdrawn {
				enrollment.Status = models.EnrollmentStatusWithdrawn
			} else if enrollment.Status == models.EnrollmentStatusWithdrawn {
				enrollment.Status = models.EnrollmentStatusInProgress
			}
		}
		return tx.UpdateEnrollmentSettings(ctx, &enrollment.Enrollment)
	})
}

// Recompute forces an outcome recomputation.
func (s *EnrollmentService) Recompute(ctx context.Context, actor *models.JWTClaims, id string) (*models.EnrollmentDetail, error) {
	return s.outcomes.Mutate(ctx, actor, id, nil)
}

// Delete removes an enrollment after cascading its ledgers.
func (s *EnrollmentService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	var studentID string
	err := s.store.Update(ctx, func(tx repository.LedgerTx) error {
		enrollment, err := tx.LockEnrollment(ctx, id)
		if err != nil {
			return lookupError(err, "enrollment")
		}
		if err := authorizeEnrollment(actor, enrollment); err != nil {
			return err
		}
		studentID = enrollment.StudentID

		method, err := loadMethod(ctx, tx, id)
		if err != nil {
			return err
		}
		if method != nil {
			if err := tx.DeleteItemsByMethod(ctx, method.ID); err != nil {
				return err
			}
			if err := tx.DeleteMethod(ctx, method.ID); err != nil {
				return err
			}
		}
		if err := tx.DeleteAbsencesByEnrollment(ctx, id); err != nil {
			return err
		}
		return tx.DeleteEnrollment(ctx, id)
	})
	if err != nil {
		return normalizeError(err, "delete enrollment")
	}
	s.outcomes.invalidate(ctx, studentID)
	s.logger.Info("enrollment deleted", zap.String("enrollment_id", id))
	return nil
}
