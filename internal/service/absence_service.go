package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hiufpe/hub-api/internal/evaluation"
	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/internal/repository"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

// AbsenceRequest records an absence.
type AbsenceRequest struct {
	Date          time.Time `json:"date" validate:"required"`
	Justified     bool      `json:"justified"`
	Justification *string   `json:"justification" validate:"omitempty,max=500"`
}

// AbsenceMutation reports a changed absence together with the recomputed enrollment.
type AbsenceMutation struct {
	Absence    *models.Absence          `json:"absence,omitempty"`
	Enrollment *models.EnrollmentDetail `json:"enrollment"`
}

// AbsenceService manages the attendance ledger.
type AbsenceService struct {
	store     LedgerStore
	outcomes  *OutcomeService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAbsenceService constructs the service.
func NewAbsenceService(store LedgerStore, outcomes *OutcomeService, validate *validator.Validate, logger *zap.Logger) *AbsenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AbsenceService{store: store, outcomes: outcomes, validator: validate, logger: logger}
}

// Report returns the attendance summary and absence list of an enrollment.
func (s *AbsenceService) Report(ctx context.Context, actor *models.JWTClaims, enrollmentID string) (*models.AbsenceReport, error) {
	var report *models.AbsenceReport
	err := s.store.View(ctx, func(tx repository.LedgerTx) error {
		enrollment, err := tx.GetEnrollment(ctx, enrollmentID)
		if err != nil {
			return lookupError(err, "enrollment")
		}
		if err := authorizeEnrollment(actor, enrollment); err != nil {
			return err
		}
		absences, err := tx.ListAbsences(ctx, enrollmentID)
		if err != nil {
			return err
		}
		if absences == nil {
			absences = []models.Absence{}
		}
		allowance := evaluation.AbsenceAllowance(enrollment.Workload, enrollment.MinAttendance)
		remaining := allowance - len(absences)
		if remaining < 0 {
			remaining = 0
		}
		report = &models.AbsenceReport{
			EnrollmentID:     enrollment.ID,
			CourseName:       enrollment.CourseName,
			AbsenceCount:     len(absences),
			AttendanceRatio:  evaluation.AttendanceRatio(enrollment.Workload, len(absences)),
			TotalSessions:    enrollment.Workload,
			Allowance:        allowance,
			RemainingAllowed: remaining,
			Absences:         absences,
		}
		return nil
	})
	if err != nil {
		return nil, normalizeError(err, "load absences")
	}
	return report, nil
}

// Create logs an absence and recomputes attendance.
func (s *AbsenceService) Create(ctx context.Context, actor *models.JWTClaims, enrollmentID string, req AbsenceRequest) (*AbsenceMutation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid absence payload")
	}
	absence := &models.Absence{Date: req.Date.UTC(), Justified: req.Justified}
	if req.Justification != nil && strings.TrimSpace(*req.Justification) != "" {
		text := strings.TrimSpace(*req.Justification)
		absence.Justification = &text
	}
	enrollment, err := s.outcomes.Mutate(ctx, actor, enrollmentID, func(ctx context.Context, tx repository.LedgerTx, enrollment *models.EnrollmentDetail) error {
		absence.EnrollmentID = enrollment.ID
		return tx.CreateAbsence(ctx, absence)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("absence logged", zap.String("enrollment_id", enrollmentID), zap.Int("absences", enrollment.AbsenceCount))
	return &AbsenceMutation{Absence: absence, Enrollment: enrollment}, nil
}

// Delete removes an absence and recomputes attendance.
func (s *AbsenceService) Delete(ctx context.Context, actor *models.JWTClaims, absenceID string) (*models.EnrollmentDetail, error) {
	var enrollmentID string
	err := s.store.View(ctx, func(tx repository.LedgerTx) error {
		absence, err := tx.GetAbsence(ctx, absenceID)
		if err != nil {
			return lookupError(err, "absence")
		}
		enrollmentID = absence.EnrollmentID
		return nil
	})
	if err != nil {
		return nil, normalizeError(err, "load absence")
	}
	return s.outcomes.Mutate(ctx, actor, enrollmentID, func(ctx context.Context, tx repository.LedgerTx, enrollment *models.EnrollmentDetail) error {
		absence, err := tx.GetAbsence(ctx, absenceID)
		if err != nil {
			return lookupError(err, "absence")
		}
		if absence.EnrollmentID != enrollment.ID {
			return appErrors.Clone(appErrors.ErrNotFound, "absence not found")
		}
		return tx.DeleteAbsence(ctx, absenceID)
	})
}
