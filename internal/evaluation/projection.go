package evaluation

import (
	"github.com/samber/lo"

	"github.com/hiufpe/hub-api/internal/models"
)

// PendingItem is an ungraded item a projection is distributed across.
type PendingItem struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// Projection is the result of a minimum score calculation.
type Projection struct {
	TargetAverage     float64       `json:"target_average"`
	LockedWeight      float64       `json:"locked_weight"`
	LockedWeightedSum float64       `json:"locked_weighted_sum"`
	PendingWeight     float64       `json:"pending_weight"`
	RequiredScore     *float64      `json:"required_score,omitempty"`
	Final             bool          `json:"final"`
	FinalAverage      *float64      `json:"final_average,omitempty"`
	PendingItems      []PendingItem `json:"pending_items"`
}

// MinimumScoreFor reports the weighted score required on pending items to reach targetAverage.
// The required score is not clamped: values above the maximum mean the target is unreachable,
// negative values mean it is already guaranteed.
func MinimumScoreFor(kind models.EvaluationKind, items []models.AssessmentItem, targetAverage float64) (Projection, error) {
	if kind != models.EvaluationWeightedAverage {
		return Projection{}, ErrUnsupportedKind
	}

	graded, pending := lo.FilterReject(items, func(item models.AssessmentItem, _ int) bool { return item.Graded() })
	lockedWeight, lockedSum := weightedSums(graded)
	pendingWeight := lo.SumBy(pending, func(item models.AssessmentItem) float64 { return item.Weight })

	p := Projection{
		TargetAverage:     targetAverage,
		LockedWeight:      lockedWeight,
		LockedWeightedSum: lockedSum,
		PendingWeight:     pendingWeight,
		PendingItems: lo.Map(pending, func(item models.AssessmentItem, _ int) PendingItem {
			return PendingItem{ID: item.ID, Name: item.Name, Weight: item.Weight}
		}),
	}

	if pendingWeight == 0 {
		if lockedWeight == 0 {
			return Projection{}, ErrNoRemainingWeight
		}
		final := Round2(lockedSum / lockedWeight)
		p.Final = true
		p.FinalAverage = &final
		return p, nil
	}

	required := Round2((targetAverage*(lockedWeight+pendingWeight) - lockedSum) / pendingWeight)
	p.RequiredScore = &required
	return p, nil
}

// Simulate recomputes the average as if itemID had hypotheticalScore. Items is never modified.
func Simulate(kind models.EvaluationKind, items []models.AssessmentItem, itemID string, hypotheticalScore float64) (float64, error) {
	if !lo.ContainsBy(items, func(item models.AssessmentItem) bool { return item.ID == itemID }) {
		return 0, ErrItemNotInMethod
	}

	scenario := lo.Map(items, func(item models.AssessmentItem, _ int) models.AssessmentItem {
		if item.ID == itemID {
			score := hypotheticalScore
			item.Score = &score
		}
		return item
	})

	avg, err := Average(kind, scenario)
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, ErrNoGradedWeight
	}
	return Round2(*avg), nil
}
