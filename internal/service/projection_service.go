package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/hiufpe/hub-api/internal/evaluation"
	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/internal/repository"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

// ProjectionRequest asks for the score needed to reach a target average.
type ProjectionRequest struct {
	TargetAverage *float64 `json:"target_average" validate:"required,gte=0,lte=10"`
}

// SimulationRequest asks what the average would be if one item had a given score.
type SimulationRequest struct {
	ItemID string   `json:"item_id" validate:"required"`
	Score  *float64 `json:"score" validate:"required,gte=0"`
}

// ProjectionResult is a projection on the enrollment's current ledger.
type ProjectionResult struct {
	evaluation.Projection
	EnrollmentID   string   `json:"enrollment_id"`
	CourseName     string   `json:"course_name"`
	CurrentAverage *float64 `json:"current_average"`
}

// SimulationResult compares a hypothetical average to the persisted one.
type SimulationResult struct {
	EnrollmentID      string   `json:"enrollment_id"`
	CourseName        string   `json:"course_name"`
	ItemID            string   `json:"item_id"`
	ItemName          string   `json:"item_name"`
	HypotheticalScore float64  `json:"hypothetical_score"`
	SimulatedAverage  float64  `json:"simulated_average"`
	CurrentAverage    *float64 `json:"current_average"`
	Difference        *float64 `json:"difference"`
}

// ProjectionService answers read-only what-if questions about an enrollment.
type ProjectionService struct {
	store     LedgerStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProjectionService constructs the service.
func NewProjectionService(store LedgerStore, validate *validator.Validate, logger *zap.Logger) *ProjectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectionService{store: store, validator: validate, logger: logger}
}

// Project computes the minimum score required on the pending items.
func (s *ProjectionService) Project(ctx context.Context, actor *models.JWTClaims, enrollmentID string, req ProjectionRequest) (*ProjectionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid projection payload")
	}
	enrollment, method, err := s.load(ctx, actor, enrollmentID)
	if err != nil {
		return nil, err
	}
	projection, err := evaluation.MinimumScoreFor(method.Kind, method.Items, *req.TargetAverage)
	if err != nil {
		return nil, normalizeError(err, "project required score")
	}
	return &ProjectionResult{
		Projection:     projection,
		EnrollmentID:   enrollment.ID,
		CourseName:     enrollment.CourseName,
		CurrentAverage: enrollment.Average,
	}, nil
}

// Simulate recomputes the average with one substituted score. Nothing is persisted.
func (s *ProjectionService) Simulate(ctx context.Context, actor *models.JWTClaims, enrollmentID string, req SimulationRequest) (*SimulationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid simulation payload")
	}
	enrollment, method, err := s.load(ctx, actor, enrollmentID)
	if err != nil {
		return nil, err
	}
	item, ok := lo.Find(method.Items, func(item models.AssessmentItem) bool { return item.ID == req.ItemID })
	if !ok {
		return nil, evaluation.ErrItemNotInMethod
	}
	if err := checkScore(req.Score, item.MaxScore); err != nil {
		return nil, err
	}
	simulated, err := evaluation.Simulate(method.Kind, method.Items, req.ItemID, *req.Score)
	if err != nil {
		return nil, normalizeError(err, "simulate score")
	}

	result := &SimulationResult{
		EnrollmentID:      enrollment.ID,
		CourseName:        enrollment.CourseName,
		ItemID:            item.ID,
		ItemName:          item.Name,
		HypotheticalScore: *req.Score,
		SimulatedAverage:  simulated,
		CurrentAverage:    enrollment.Average,
	}
	if enrollment.Average != nil {
		diff := evaluation.Round2(simulated - *enrollment.Average)
		result.Difference = &diff
	}
	return result, nil
}

func (s *ProjectionService) load(ctx context.Context, actor *models.JWTClaims, enrollmentID string) (*models.EnrollmentDetail, *models.EvaluationMethod, error) {
	var (
		enrollment *models.EnrollmentDetail
		method     *models.EvaluationMethod
	)
	err := s.store.View(ctx, func(tx repository.LedgerTx) error {
		var err error
		enrollment, err = tx.GetEnrollment(ctx, enrollmentID)
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
		return nil, nil, normalizeError(err, "load evaluation method")
	}
	return enrollment, method, nil
}
