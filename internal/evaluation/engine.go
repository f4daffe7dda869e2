// Package evaluation derives course outcomes from assessment and attendance ledgers.
// Every function is pure; persistence is the caller's concern.
package evaluation

import (
	"math"

	"github.com/samber/lo"

	"github.com/hiufpe/hub-api/internal/models"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

var (
	// ErrUnsupportedKind is returned for weighting schemes without a defined formula.
	ErrUnsupportedKind = appErrors.Clone(appErrors.ErrUnsupported, "unsupported evaluation type")
	// ErrNoRemainingWeight signals a projection with nothing left to grade and nothing graded.
	ErrNoRemainingWeight = appErrors.Clone(appErrors.ErrInvalidState, "no assessment weight available for projection")
	// ErrNoGradedWeight signals an average that cannot be computed from the graded items.
	ErrNoGradedWeight = appErrors.Clone(appErrors.ErrInvalidState, "no graded weight to average")
	// ErrItemNotInMethod is returned when simulating an item that does not belong to the method.
	ErrItemNotInMethod = appErrors.Clone(appErrors.ErrNotFound, "assessment item not found")
)

// Round2 rounds to two decimal places using banker's rounding.
func Round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// Average computes the running average over graded items. A nil result means nothing is computable yet.
func Average(kind models.EvaluationKind, items []models.AssessmentItem) (*float64, error) {
	graded := lo.Filter(items, func(item models.AssessmentItem, _ int) bool { return item.Graded() })

	switch kind {
	case models.EvaluationSimpleAverage:
		if len(graded) == 0 {
			return nil, nil
		}
		sum := lo.SumBy(graded, func(item models.AssessmentItem) float64 { return *item.Score })
		avg := sum / float64(len(graded))
		return &avg, nil
	case models.EvaluationWeightedAverage:
		weight, weighted := weightedSums(graded)
		if weight == 0 {
			return nil, nil
		}
		avg := weighted / weight
		return &avg, nil
	default:
		return nil, ErrUnsupportedKind
	}
}

// Status resolves the enrollment status. Outcomes stay in progress until every item is graded;
// a fully graded method without a computable average fails.
func Status(items []models.AssessmentItem, average *float64, attendanceRatio int, minAverage float64, minAttendance int) models.EnrollmentStatus {
	if len(items) == 0 {
		return models.EnrollmentStatusInProgress
	}
	if lo.SomeBy(items, func(item models.AssessmentItem) bool { return !item.Graded() }) {
		return models.EnrollmentStatusInProgress
	}
	if average == nil {
		return models.EnrollmentStatusFailed
	}
	if Round2(*average) >= minAverage && attendanceRatio >= minAttendance {
		return models.EnrollmentStatusPassed
	}
	return models.EnrollmentStatusFailed
}

// AttendanceRatio returns the attended percentage of total sessions, rounded to an integer.
func AttendanceRatio(totalSessions, absences int) int {
	if totalSessions <= 0 {
		return 100
	}
	ratio := int(math.Round(100 * float64(totalSessions-absences) / float64(totalSessions)))
	if ratio < 0 {
		return 0
	}
	if ratio > 100 {
		return 100
	}
	return ratio
}

// AbsenceAllowance is the number of absences tolerated before attendance drops below minAttendance.
func AbsenceAllowance(totalSessions, minAttendance int) int {
	if totalSessions <= 0 {
		return 0
	}
	return int(math.Floor(float64(totalSessions) * float64(100-minAttendance) / 100))
}

// Input gathers everything needed to recompute one enrollment.
type Input struct {
	Method        *models.EvaluationMethod
	Items         []models.AssessmentItem
	TotalSessions int
	AbsenceCount  int
	MinAverage    float64
	MinAttendance int
	CurrentStatus models.EnrollmentStatus
}

// Recompute derives the full outcome of an enrollment from its ledgers.
func Recompute(in Input) (models.Outcome, error) {
	outcome := models.Outcome{
		AttendanceRatio: AttendanceRatio(in.TotalSessions, in.AbsenceCount),
		AbsenceCount:    in.AbsenceCount,
		Status:          models.EnrollmentStatusInProgress,
	}

	if in.Method != nil {
		avg, err := Average(in.Method.Kind, in.Items)
		if err != nil {
			return models.Outcome{}, err
		}
		if avg != nil {
			rounded := Round2(*avg)
			outcome.Average = &rounded
		}
		outcome.Status = Status(in.Items, outcome.Average, outcome.AttendanceRatio, in.MinAverage, in.MinAttendance)
	}

	if in.CurrentStatus == models.EnrollmentStatusWithdrawn {
		outcome.Status = models.EnrollmentStatusWithdrawn
	}
	return outcome, nil
}

func weightedSums(graded []models.AssessmentItem) (weight, weighted float64) {
	for _, item := range graded {
		weight += item.Weight
		weighted += *item.Score * item.Weight
	}
	return weight, weighted
}
