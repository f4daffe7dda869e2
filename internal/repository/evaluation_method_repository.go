package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hiufpe/hub-api/internal/models"
)

const methodColumns = `id, enrollment_id, name, description, kind, formula, created_at, updated_at`

// EvaluationMethodRepository manages evaluation method persistence.
type EvaluationMethodRepository struct {
	db sqlx.ExtContext
}

// NewEvaluationMethodRepository creates a new repository instance.
func NewEvaluationMethodRepository(db sqlx.ExtContext) *EvaluationMethodRepository {
	return &EvaluationMethodRepository{db: db}
}

// GetMethod returns a method by ID without its items.
func (r *EvaluationMethodRepository) GetMethod(ctx context.Context, id string) (*models.EvaluationMethod, error) {
	var method models.EvaluationMethod
	if err := sqlx.GetContext(ctx, r.db, &method, `SELECT `+methodColumns+` FROM evaluation_methods WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &method, nil
}

// GetMethodByEnrollment returns the method configured for an enrollment.
func (r *EvaluationMethodRepository) GetMethodByEnrollment(ctx context.Context, enrollmentID string) (*models.EvaluationMethod, error) {
	var method models.EvaluationMethod
	if err := sqlx.GetContext(ctx, r.db, &method, `SELECT `+methodColumns+` FROM evaluation_methods WHERE enrollment_id = $1`, enrollmentID); err != nil {
		return nil, err
	}
	return &method, nil
}

// CreateMethod inserts a method.
func (r *EvaluationMethodRepository) CreateMethod(ctx context.Context, method *models.EvaluationMethod) error {
	if method.ID == "" {
		method.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	method.CreatedAt = now
	method.UpdatedAt = now
	const query = `INSERT INTO evaluation_methods (id, enrollment_id, name, description, kind, formula, created_at, updated_at)
VALUES (:id, :enrollment_id, :name, :description, :kind, :formula, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, method); err != nil {
		return fmt.Errorf("create evaluation method: %w", err)
	}
	return nil
}

// UpdateMethod updates descriptive fields and the weighting kind.
func (r *EvaluationMethodRepository) UpdateMethod(ctx context.Context, method *models.EvaluationMethod) error {
	method.UpdatedAt = time.Now().UTC()
	const query = `UPDATE evaluation_methods SET name = $1, description = $2, kind = $3, formula = $4, updated_at = $5 WHERE id = $6`
	if _, err := r.db.ExecContext(ctx, query, method.Name, method.Description, method.Kind, method.Formula, method.UpdatedAt, method.ID); err != nil {
		return fmt.Errorf("update evaluation method: %w", err)
	}
	return nil
}

// DeleteMethod removes a method row. Items must be removed first.
func (r *EvaluationMethodRepository) DeleteMethod(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM evaluation_methods WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete evaluation method: %w", err)
	}
	return nil
}
