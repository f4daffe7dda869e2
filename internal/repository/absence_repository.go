package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hiufpe/hub-api/internal/models"
)

// AbsenceRepository persists absence events.
type AbsenceRepository struct {
	db sqlx.ExtContext
}

// NewAbsenceRepository constructs the repository.
func NewAbsenceRepository(db sqlx.ExtContext) *AbsenceRepository {
	return &AbsenceRepository{db: db}
}

// ListAbsences returns absences of an enrollment, most recent first.
func (r *AbsenceRepository) ListAbsences(ctx context.Context, enrollmentID string) ([]models.Absence, error) {
	const query = `SELECT id, enrollment_id, date, justified, justification, created_at FROM absences WHERE enrollment_id = $1 ORDER BY date DESC`
	var absences []models.Absence
	if err := sqlx.SelectContext(ctx, r.db, &absences, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list absences: %w", err)
	}
	return absences, nil
}

// GetAbsence returns one absence.
func (r *AbsenceRepository) GetAbsence(ctx context.Context, id string) (*models.Absence, error) {
	const query = `SELECT id, enrollment_id, date, justified, justification, created_at FROM absences WHERE id = $1`
	var absence models.Absence
	if err := sqlx.GetContext(ctx, r.db, &absence, query, id); err != nil {
		return nil, err
	}
	return &absence, nil
}

// CountAbsences counts justified and unjustified absences alike.
func (r *AbsenceRepository) CountAbsences(ctx context.Context, enrollmentID string) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, r.db, &count, `SELECT COUNT(*) FROM absences WHERE enrollment_id = $1`, enrollmentID); err != nil {
		return 0, fmt.Errorf("count absences: %w", err)
	}
	return count, nil
}

// CreateAbsence inserts an absence.
func (r *AbsenceRepository) CreateAbsence(ctx context.Context, absence *models.Absence) error {
	if absence.ID == "" {
		absence.ID = uuid.NewString()
	}
	absence.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO absences (id, enrollment_id, date, justified, justification, created_at)
VALUES (:id, :enrollment_id, :date, :justified, :justification, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, absence); err != nil {
		return fmt.Errorf("create absence: %w", err)
	}
	return nil
}

// DeleteAbsence removes one absence.
func (r *AbsenceRepository) DeleteAbsence(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM absences WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete absence: %w", err)
	}
	return nil
}

// DeleteAbsencesByEnrollment removes every absence of an enrollment.
func (r *AbsenceRepository) DeleteAbsencesByEnrollment(ctx context.Context, enrollmentID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM absences WHERE enrollment_id = $1`, enrollmentID); err != nil {
		return fmt.Errorf("delete absences: %w", err)
	}
	return nil
}
