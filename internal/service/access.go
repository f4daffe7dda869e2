package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/internal/repository"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

// LedgerStore runs units of work over the academic ledger.
type LedgerStore interface {
	View(ctx context.Context, fn func(repository.LedgerTx) error) error
	Update(ctx context.Context, fn func(repository.LedgerTx) error) error
}

// isStaff reports whether the actor may act on any student's records.
func isStaff(actor *models.JWTClaims) bool {
	return actor != nil && actor.Role.Staff()
}

// authorizeEnrollment rejects students touching someone else's enrollment. A nil actor is an internal caller.
func authorizeEnrollment(actor *models.JWTClaims, enrollment *models.EnrollmentDetail) error {
	if actor == nil || isStaff(actor) {
		return nil
	}
	if actor.UserID == "" || enrollment.StudentID != actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "enrollment belongs to another student")
	}
	return nil
}

// scopeStudent resolves which student a request targets.
func scopeStudent(actor *models.JWTClaims, requested string) (string, error) {
	if actor == nil {
		return "", appErrors.ErrUnauthorized
	}
	if isStaff(actor) {
		if requested == "" {
			return "", appErrors.Clone(appErrors.ErrValidation, "student_id is required")
		}
		return requested, nil
	}
	if requested != "" && requested != actor.UserID {
		return "", appErrors.Clone(appErrors.ErrForbidden, "cannot access another student's records")
	}
	return actor.UserID, nil
}

func lookupError(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+entity)
}

func normalizeError(err error, action string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+action)
}

// loadMethod returns the enrollment's method with its items, or nil when none is configured.
func loadMethod(ctx context.Context, tx repository.LedgerTx, enrollmentID string) (*models.EvaluationMethod, error) {
	method, err := tx.GetMethodByEnrollment(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, lookupError(err, "evaluation method")
	}
	items, err := tx.ListItems(ctx, method.ID)
	if err != nil {
		return nil, lookupError(err, "assessment items")
	}
	method.Items = items
	return method, nil
}

func requireMethod(ctx context.Context, tx repository.LedgerTx, enrollmentID string) (*models.EvaluationMethod, error) {
	method, err := loadMethod(ctx, tx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if method == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "evaluation method not configured")
	}
	return method, nil
}
