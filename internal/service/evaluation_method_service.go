package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/internal/repository"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

// EvaluationMethodRequest configures the grading scheme of an enrollment.
type EvaluationMethodRequest struct {
	Name        string                `json:"name" validate:"required,max=120"`
	Description *string               `json:"description" validate:"omitempty,max=1000"`
	Kind        models.EvaluationKind `json:"kind" validate:"required,oneof=simple_average weighted_average weighted_with_substitution custom"`
	Formula     *string               `json:"formula" validate:"omitempty,max=2000"`
}

// EvaluationMethodService manages the zero-or-one evaluation method of each enrollment.
type EvaluationMethodService struct {
	store     LedgerStore
	outcomes  *OutcomeService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEvaluationMethodService constructs the service.
func NewEvaluationMethodService(store LedgerStore, outcomes *OutcomeService, validate *validator.Validate, logger *zap.Logger) *EvaluationMethodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationMethodService{store: store, outcomes: outcomes, validator: validate, logger: logger}
}

// Get returns the method of an enrollment with its items.
func (s *EvaluationMethodService) Get(ctx context.Context, actor *models.JWTClaims, enrollmentID string) (*models.EvaluationMethod, error) {
	var method *models.EvaluationMethod
	err := s.store.View(ctx, func(tx repository.LedgerTx) error {
		enrollment, err := tx.GetEnrollment(ctx, enrollmentID)
		if err != nil {
			return lookupError(err, "enrollment")
		}
		if err := authorizeEnrollment(actor, enrollment); err != nil {
			return err
		}
		method, err = requireMethod(ctx, tx, enrollmentID)
		return err
	})
	if err != nil {
		return nil, normalizeError(err, "load evaluation method")
	}
	return method, nil
}

// Create configures a method for an enrollment that has none.
func (s *EvaluationMethodService) Create(ctx context.Context, actor *models.JWTClaims, enrollmentID string, req EvaluationMethodRequest) (*models.EvaluationMethod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation method payload")
	}
	var method *models.EvaluationMethod
	_, err := s.outcomes.Mutate(ctx, actor, enrollmentID, func(ctx context.Context, tx repository.LedgerTx, enrollment *models.EnrollmentDetail) error {
		existing, err := loadMethod(ctx, tx, enrollment.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return appErrors.Clone(appErrors.ErrConflict, "enrollment already has an evaluation method")
		}
		method = &models.EvaluationMethod{
			EnrollmentID: enrollment.ID,
			Name:         strings.TrimSpace(req.Name),
			Description:  req.Description,
			Kind:         req.Kind,
			Formula:      req.Formula,
		}
		return tx.CreateMethod(ctx, method)
	})
	if err != nil {
		return nil, err
	}
	method.Items = []models.AssessmentItem{}
	return method, nil
}

// Update changes the method's description or weighting kind and recomputes the outcome.
func (s *EvaluationMethodService) Update(ctx context.Context, actor *models.JWTClaims, enrollmentID string, req EvaluationMethodRequest) (*models.EvaluationMethod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation method payload")
	}
	var method *models.EvaluationMethod
	_, err := s.outcomes.Mutate(ctx, actor, enrollmentID, func(ctx context.Context, tx repository.LedgerTx, enrollment *models.EnrollmentDetail) error {
		var err error
		method, err = requireMethod(ctx, tx, enrollment.ID)
		if err != nil {
			return err
		}
		method.Name = strings.TrimSpace(req.Name)
		method.Description = req.Description
		method.Kind = req.Kind
		method.Formula = req.Formula
		return tx.UpdateMethod(ctx, method)
	})
	if err != nil {
		return nil, err
	}
	return method, nil
}

// Delete removes the method and its items. The enrollment goes back to having no computable average.
func (s *EvaluationMethodService) Delete(ctx context.Context, actor *models.JWTClaims, enrollmentID string) (*models.EnrollmentDetail, error) {
	return s.outcomes.Mutate(ctx, actor, enrollmentID, func(ctx context.Context, tx repository.LedgerTx, enrollment *models.EnrollmentDetail) error {
		method, err := requireMethod(ctx, tx, enrollment.ID)
		if err != nil {
			return err
		}
		if err := tx.DeleteItemsByMethod(ctx, method.ID); err != nil {
			return err
		}
		return tx.DeleteMethod(ctx, method.ID)
	})
}
