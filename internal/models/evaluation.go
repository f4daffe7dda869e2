package models

import "time"

// EvaluationKind names the weighting scheme of an evaluation method.
type EvaluationKind string

const (
	// EvaluationSimpleAverage averages graded scores ignoring weights.
	EvaluationSimpleAverage EvaluationKind = "simple_average"
	// EvaluationWeightedAverage applies item weights to graded scores.
	EvaluationWeightedAverage EvaluationKind = "weighted_average"
	// EvaluationWeightedSubstitution replaces low scores by make-up scores.
	EvaluationWeightedSubstitution EvaluationKind = "weighted_with_substitution"
	// EvaluationCustom evaluates an instructor supplied formula.
	EvaluationCustom EvaluationKind = "custom"
)

// DefaultMaxScore is used when an assessment item does not define its own scale.
const DefaultMaxScore = 10.0

// EvaluationMethod defines how the outcome of one enrollment is computed.
type EvaluationMethod struct {
	ID           string           `db:"id" json:"id"`
	EnrollmentID string           `db:"enrollment_id" json:"enrollment_id"`
	Name         string           `db:"name" json:"name"`
	Description  *string          `db:"description" json:"description,omitempty"`
	Kind         EvaluationKind   `db:"kind" json:"kind"`
	Formula      *string          `db:"formula" json:"formula,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
	Items        []AssessmentItem `db:"-" json:"items,omitempty"`
}

// AssessmentItem is one individually weighted graded component.
type AssessmentItem struct {
	ID        string     `db:"id" json:"id"`
	MethodID  string     `db:"method_id" json:"method_id"`
	Name      string     `db:"name" json:"name"`
	Category  string     `db:"category" json:"category"`
	Weight    float64    `db:"weight" json:"weight"`
	Score     *float64   `db:"score" json:"score"`
	MaxScore  float64    `db:"max_score" json:"max_score"`
	Date      *time.Time `db:"date" json:"date,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Graded reports whether the item carries an obtained score.
func (i AssessmentItem) Graded() bool {
	return i.Score != nil
}
