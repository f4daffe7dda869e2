package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hiufpe/hub-api/internal/models"
)

const itemColumns = `id, method_id, name, category, weight, score, max_score, date, created_at, updated_at`

// AssessmentRepository persists assessment items.
type AssessmentRepository struct {
	db sqlx.ExtContext
}

// NewAssessmentRepository constructs the repository.
func NewAssessmentRepository(db sqlx.ExtContext) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// ListItems returns the items of a method ordered by date then creation.
func (r *AssessmentRepository) ListItems(ctx context.Context, methodID string) ([]models.AssessmentItem, error) {
	query := `SELECT ` + itemColumns + ` FROM assessment_items WHERE method_id = $1 ORDER BY date ASC NULLS LAST, created_at ASC`
	var items []models.AssessmentItem
	if err := sqlx.SelectContext(ctx, r.db, &items, query, methodID); err != nil {
		return nil, fmt.Errorf("list assessment items: %w", err)
	}
	return items, nil
}

// GetItem returns an item by ID.
func (r *AssessmentRepository) GetItem(ctx context.Context, id string) (*models.AssessmentItem, error) {
	var item models.AssessmentItem
	if err := sqlx.GetContext(ctx, r.db, &item, `SELECT `+itemColumns+` FROM assessment_items WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts an item.
func (r *AssessmentRepository) CreateItem(ctx context.Context, item *models.AssessmentItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO assessment_items (id, method_id, name, category, weight, score, max_score, date, created_at, updated_at)
VALUES (:id, :method_id, :name, :category, :weight, :score, :max_score, :date, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, item); err != nil {
		return fmt.Errorf("create assessment item: %w", err)
	}
	return nil
}

// UpdateItem overwrites the mutable columns of an item.
func (r *AssessmentRepository) UpdateItem(ctx context.Context, item *models.AssessmentItem) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assessment_items SET name = $1, category = $2, weight = $3, score = $4, max_score = $5, date = $6, updated_at = $7 WHERE id = $8`
	if _, err := r.db.ExecContext(ctx, query, item.Name, item.Category, item.Weight, item.Score, item.MaxScore, item.Date, item.UpdatedAt, item.ID); err != nil {
		return fmt.Errorf("update assessment item: %w", err)
	}
	return nil
}

// DeleteItem removes one item.
func (r *AssessmentRepository) DeleteItem(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assessment_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete assessment item: %w", err)
	}
	return nil
}

// DeleteItemsByMethod removes every item of a method.
func (r *AssessmentRepository) DeleteItemsByMethod(ctx context.Context, methodID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assessment_items WHERE method_id = $1`, methodID); err != nil {
		return fmt.Errorf("delete assessment items: %w", err)
	}
	return nil
}
