package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/internal/repository"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

// AssessmentRequest creates or replaces an assessment item.
type AssessmentRequest struct {
	Name     string     `json:"name" validate:"required,max=120"`
	Category string     `json:"category" validate:"max=60"`
	Weight   float64    `json:"weight" validate:"gte=0"`
	Score    *float64   `json:"score" validate:"omitempty,gte=0"`
	MaxScore *float64   `json:"max_score" validate:"omitempty,gt=0"`
	Date     *time.Time `json:"date"`
}

// GradeRequest posts or clears the obtained score of an item.
type GradeRequest struct {
	Score *float64 `json:"score" validate:"omitempty,gte=0"`
}

// ItemMutation reports a changed item together with the recomputed enrollment.
type ItemMutation struct {
	Item       *models.AssessmentItem   `json:"item,omitempty"`
	Enrollment *models.EnrollmentDetail `json:"enrollment"`
}

// AssessmentService manages the assessment ledger of an evaluation method.
type AssessmentService struct {
	store     LedgerStore
	outcomes  *OutcomeService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssessmentService constructs the service.
func NewAssessmentService(store LedgerStore, outcomes *OutcomeService, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{store: store, outcomes: outcomes, validator: validate, logger: logger}
}

// List returns the items of an enrollment's method.
func (s *AssessmentService) List(ctx context.Context, actor *models.JWTClaims, enrollmentID string) ([]models.AssessmentItem, error) {
	var items []models.AssessmentItem
	err := s.store.View(ctx, func(tx repository.LedgerTx) error {
		enrollment, err := tx.GetEnrollment(ctx, enrollmentID)
		if err != nil {
			return lookupError(err, "enrollment")
		}
		if err := authorizeEnrollment(actor, enrollment); err != nil {
			return err
		}
		method, err := requireMethod(ctx, tx, enrollmentID)
		if err != nil {
			return err
		}
		items = method.Items
		return nil
	})
	if err != nil {
		return nil, normalizeError(err, "list assessment items")
	}
	if items == nil {
		items = []models.AssessmentItem{}
	}
	return items, nil
}

// Create adds an item to the enrollment's method.
func (s *AssessmentService) Create(ctx context.Context, actor *models.JWTClaims, enrollmentID string, req AssessmentRequest) (*ItemMutation, error) {
	item, err := s.buildItem(req)
	if err != nil {
		return nil, err
	}
	enrollment, err := s.outcomes.Mutate(ctx, actor, enrollmentID, func(ctx context.Context, tx repository.LedgerTx, enrollment *models.EnrollmentDetail) error {
		method, err := requireMethod(ctx, tx, enrollment.ID)
		if err != nil {
			return err
		}
		item.MethodID = method.ID
		return tx.CreateItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("assessment item created", zap.String("enrollment_id", enrollmentID), zap.String("item_id", item.ID))
	return &ItemMutation{Item: item, Enrollment: enrollment}, nil
}

// Update replaces the editable fields of an item.
func (s *AssessmentService) Update(ctx context.Context, actor *models.JWTClaims, itemID string, req AssessmentRequest) (*ItemMutation, error) {
	replacement, err := s.buildItem(req)
	if err != nil {
		return nil, err
	}
	return s.mutateItem(ctx, actor, itemID, func(item *models.AssessmentItem) error {
		item.Name = replacement.Name
		item.Category = replacement.Category
		item.Weight = replacement.Weight
		item.Score = replacement.Score
		item.MaxScore = replacement.MaxScore
		item.Date = replacement.Date
		return nil
	})
}

// Grade posts a score on an item, or clears it when score is nil.
func (s *AssessmentService) Grade(ctx context.Context, actor *models.JWTClaims, itemID string, req GradeRequest) (*ItemMutation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	return s.mutateItem(ctx, actor, itemID, func(item *models.AssessmentItem) error {
		if err := checkScore(req.Score, item.MaxScore); err != nil {
			return err
		}
		item.Score = req.Score
		if req.Score != nil && item.Date == nil {
			now := time.Now().UTC()
			item.Date = &now
		}
		return nil
	})
}

// Delete removes an item.
func (s *AssessmentService) Delete(ctx context.Context, actor *models.JWTClaims, itemID string) (*models.EnrollmentDetail, error) {
	enrollmentID, err := s.enrollmentOf(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return s.outcomes.Mutate(ctx, actor, enrollmentID, func(ctx context.Context, tx repository.LedgerTx, enrollment *models.EnrollmentDetail) error {
		if _, err := s.lockedItem(ctx, tx, enrollment.ID, itemID); err != nil {
			return err
		}
		return tx.DeleteItem(ctx, itemID)
	})
}

func (s *AssessmentService) mutateItem(ctx context.Context, actor *models.JWTClaims, itemID string, change func(*models.AssessmentItem) error) (*ItemMutation, error) {
	enrollmentID, err := s.enrollmentOf(ctx, itemID)
	if err != nil {
		return nil, err
	}
	var item *models.AssessmentItem
	enrollment, err := s.outcomes.Mutate(ctx, actor, enrollmentID, func(ctx context.Context, tx repository.LedgerTx, enrollment *models.EnrollmentDetail) error {
		var err error
		item, err = s.lockedItem(ctx, tx, enrollment.ID, itemID)
		if err != nil {
			return err
		}
		if err := change(item); err != nil {
			return err
		}
		return tx.UpdateItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return &ItemMutation{Item: item, Enrollment: enrollment}, nil
}

// enrollmentOf resolves which enrollment owns an item so its lock can be taken.
func (s *AssessmentService) enrollmentOf(ctx context.Context, itemID string) (string, error) {
	var enrollmentID string
	err := s.store.View(ctx, func(tx repository.LedgerTx) error {
		item, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return lookupError(err, "assessment item")
		}
		method, err := tx.GetMethod(ctx, item.MethodID)
		if err != nil {
			return lookupError(err, "evaluation method")
		}
		enrollmentID = method.EnrollmentID
		return nil
	})
	if err != nil {
		return "", normalizeError(err, "load assessment item")
	}
	return enrollmentID, nil
}

// lockedItem re-reads the item under the enrollment lock.
func (s *AssessmentService) lockedItem(ctx context.Context, tx repository.LedgerTx, enrollmentID, itemID string) (*models.AssessmentItem, error) {
	item, err := tx.GetItem(ctx, itemID)
	if err != nil {
		return nil, lookupError(err, "assessment item")
	}
	method, err := requireMethod(ctx, tx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if item.MethodID != method.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment item not found")
	}
	return item, nil
}

func (s *AssessmentService) buildItem(req AssessmentRequest) (*models.AssessmentItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	maxScore := models.DefaultMaxScore
	if req.MaxScore != nil {
		maxScore = *req.MaxScore
	}
	if err := checkScore(req.Score, maxScore); err != nil {
		return nil, err
	}
	return &models.AssessmentItem{
		Name:     strings.TrimSpace(req.Name),
		Category: strings.TrimSpace(req.Category),
		Weight:   req.Weight,
		Score:    req.Score,
		MaxScore: maxScore,
		Date:     req.Date,
	}, nil
}

func checkScore(score *float64, maxScore float64) error {
	if score == nil {
		return nil
	}
	if *score < 0 || *score > maxScore {
		return appErrors.Clone(appErrors.ErrValidation, "score must be between 0 and the maximum score")
	}
	return nil
}
