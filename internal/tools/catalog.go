package tools

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/hiufpe/hub-api/internal/evaluation"
	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/internal/service"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

// Tool names.
const (
	QueryAverage         = "query_average"
	PostGrade            = "post_grade"
	LogAbsence           = "log_absence"
	ProjectRequiredScore = "project_required_score"
	SimulateGrade        = "simulate_grade"
	QueryAbsences        = "query_absences"
	QueryNextSession     = "query_next_session"
	QueryOverallStanding = "query_overall_standing"
)

const dateLayout = "2006-01-02"

// Services are the operations the catalog adapts.
type Services struct {
	Enrollments *service.EnrollmentService
	Methods     *service.EvaluationMethodService
	Assessments *service.AssessmentService
	Absences    *service.AbsenceService
	Projections *service.ProjectionService
	Schedule    *service.ScheduleService
	Standing    *service.StandingService
}

type subjectArgs struct {
	Subject string `json:"subject" validate:"required" desc:"Course name or code, e.g. 'Cálculo I'"`
}

type gradeArgs struct {
	Subject    string   `json:"subject" validate:"required" desc:"Course name or code"`
	Assessment string   `json:"assessment" validate:"required" desc:"Assessment item name, e.g. 'Prova 1'"`
	Score      *float64 `json:"score" validate:"required,gte=0" desc:"Obtained score"`
}

type absenceArgs struct {
	Subject       string `json:"subject" validate:"required" desc:"Course name or code"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02" desc:"Day of the absence as YYYY-MM-DD"`
	Justified     bool   `json:"justified" desc:"Whether the absence was justified"`
	Justification string `json:"justification" validate:"max=500" desc:"Optional justification text"`
}

type projectionArgs struct {
	Subject       string   `json:"subject" validate:"required" desc:"Course name or code"`
	TargetAverage *float64 `json:"target_average" validate:"required,gte=0,lte=10" desc:"Desired final average"`
}

type noArgs struct{}

// AverageResult answers query_average.
type AverageResult struct {
	Subject      string   `json:"subject"`
	Average      *float64 `json:"average"`
	Status       string   `json:"status"`
	MinAverage   float64  `json:"min_average"`
	Method       string   `json:"method,omitempty"`
	GradedItems  []string `json:"graded_items"`
	PendingItems []string `json:"pending_items"`
}

// GradeResult answers post_grade.
type GradeResult struct {
	Subject    string   `json:"subject"`
	Assessment string   `json:"assessment"`
	Score      float64  `json:"score"`
	Average    *float64 `json:"average"`
	Status     string   `json:"status"`
}

// AbsenceLogResult answers log_absence.
type AbsenceLogResult struct {
	Subject          string `json:"subject"`
	Date             string `json:"date"`
	AbsenceCount     int    `json:"absence_count"`
	AttendanceRatio  int    `json:"attendance_ratio"`
	RemainingAllowed int    `json:"remaining_allowed"`
	Status           string `json:"status"`
}

// ProjectionResult answers project_required_score.
type ProjectionResult struct {
	Subject       string   `json:"subject"`
	TargetAverage float64  `json:"target_average"`
	RequiredScore *float64 `json:"required_score,omitempty"`
	Final         bool     `json:"final"`
	FinalAverage  *float64 `json:"final_average,omitempty"`
	PendingItems  []string `json:"pending_items"`
}

// SimulationResult answers simulate_grade.
type SimulationResult struct {
	Subject           string   `json:"subject"`
	Assessment        string   `json:"assessment"`
	HypotheticalScore float64  `json:"hypothetical_score"`
	SimulatedAverage  float64  `json:"simulated_average"`
	CurrentAverage    *float64 `json:"current_average"`
	Difference        *float64 `json:"difference"`
}

// AbsenceEntry is one absence in query_absences.
type AbsenceEntry struct {
	Date          string `json:"date"`
	Justified     bool   `json:"justified"`
	Justification string `json:"justification,omitempty"`
}

// AbsencesResult answers query_absences.
type AbsencesResult struct {
	Subject          string         `json:"subject"`
	AbsenceCount     int            `json:"absence_count"`
	AttendanceRatio  int            `json:"attendance_ratio"`
	TotalSessions    int            `json:"total_sessions"`
	Allowance        int            `json:"allowance"`
	RemainingAllowed int            `json:"remaining_allowed"`
	Absences         []AbsenceEntry `json:"absences"`
}

// NextSessionResult answers query_next_session.
type NextSessionResult struct {
	Subject    string `json:"subject"`
	Weekday    string `json:"weekday"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Room       string `json:"room,omitempty"`
	Instructor string `json:"instructor,omitempty"`
	Today      bool   `json:"today"`
}

// StandingCourse is one line of query_overall_standing.
type StandingCourse struct {
	Subject         string   `json:"subject"`
	Average         *float64 `json:"average"`
	Status          string   `json:"status"`
	AttendanceRatio int      `json:"attendance_ratio"`
	Absences        int      `json:"absences"`
}

// StandingResult answers query_overall_standing.
type StandingResult struct {
	Term       string           `json:"term,omitempty"`
	Passed     int              `json:"passed"`
	Failed     int              `json:"failed"`
	InProgress int              `json:"in_progress"`
	Courses    []StandingCourse `json:"courses"`
}

// NewCatalog registers the eight academic tools.
func NewCatalog(svc Services, validate *validator.Validate, observer Observer, logger *zap.Logger) *Registry {
	r := NewRegistry(validate, observer, logger)
	c := &catalog{svc: svc}

	Register(r, QueryAverage, "Current average, status and graded/pending assessments of one of the student's subjects.", c.queryAverage)
	Register(r, PostGrade, "Record the score the student obtained on an assessment of a subject.", c.postGrade)
	Register(r, LogAbsence, "Record an absence of the student in a subject on a given day.", c.logAbsence)
	Register(r, ProjectRequiredScore, "Score needed on the remaining assessments of a weighted subject to reach a target average.", c.projectRequiredScore)
	Register(r, SimulateGrade, "What the subject average would be if one assessment had the given score. Nothing is saved.", c.simulateGrade)
	Register(r, QueryAbsences, "Absences, attendance percentage and remaining allowed absences in a subject.", c.queryAbsences)
	Register(r, QueryNextSession, "The student's next scheduled class.", c.queryNextSession)
	Register(r, QueryOverallStanding, "Average and status of every subject in the current term.", c.queryOverallStanding)
	return r
}

type catalog struct {
	svc Services
}

func (c *catalog) method(ctx context.Context, actor *models.JWTClaims, subject string) (*models.EnrollmentDetail, *models.EvaluationMethod, error) {
	enrollment, err := c.svc.Enrollments.ResolveSubject(ctx, actor, subject)
	if err != nil {
		return nil, nil, err
	}
	method, err := c.svc.Methods.Get(ctx, actor, enrollment.ID)
	if err != nil {
		return nil, nil, err
	}
	return enrollment, method, nil
}

func (c *catalog) queryAverage(ctx context.Context, actor *models.JWTClaims, args subjectArgs) (AverageResult, error) {
	enrollment, err := c.svc.Enrollments.ResolveSubject(ctx, actor, args.Subject)
	if err != nil {
		return AverageResult{}, err
	}
	result := AverageResult{
		Subject:      enrollment.CourseName,
		Average:      enrollment.Average,
		Status:       string(enrollment.Status),
		MinAverage:   enrollment.MinAverage,
		GradedItems:  []string{},
		PendingItems: []string{},
	}
	method, err := c.svc.Methods.Get(ctx, actor, enrollment.ID)
	if errors.Is(err, appErrors.ErrNotFound) {
		// no method configured yet
		return result, nil
	}
	if err != nil {
		return AverageResult{}, err
	}
	result.Method = string(method.Kind)
	graded, pending := lo.FilterReject(method.Items, func(item models.AssessmentItem, _ int) bool { return item.Graded() })
	result.GradedItems = itemNames(graded)
	result.PendingItems = itemNames(pending)
	return result, nil
}

func (c *catalog) postGrade(ctx context.Context, actor *models.JWTClaims, args gradeArgs) (GradeResult, error) {
	_, method, err := c.method(ctx, actor, args.Subject)
	if err != nil {
		return GradeResult{}, err
	}
	item, err := service.ResolveAssessment(method.Items, args.Assessment)
	if err != nil {
		return GradeResult{}, err
	}
	mutation, err := c.svc.Assessments.Grade(ctx, actor, item.ID, service.GradeRequest{Score: args.Score})
	if err != nil {
		return GradeResult{}, err
	}
	return GradeResult{
		Subject:    mutation.Enrollment.CourseName,
		Assessment: mutation.Item.Name,
		Score:      *args.Score,
		Average:    mutation.Enrollment.Average,
		Status:     string(mutation.Enrollment.Status),
	}, nil
}

func (c *catalog) logAbsence(ctx context.Context, actor *models.JWTClaims, args absenceArgs) (AbsenceLogResult, error) {
	enrollment, err := c.svc.Enrollments.ResolveSubject(ctx, actor, args.Subject)
	if err != nil {
		return AbsenceLogResult{}, err
	}
	date, _ := time.Parse(dateLayout, args.Date)
	req := service.AbsenceRequest{Date: date, Justified: args.Justified}
	if args.Justification != "" {
		req.Justification = &args.Justification
	}
	mutation, err := c.svc.Absences.Create(ctx, actor, enrollment.ID, req)
	if err != nil {
		return AbsenceLogResult{}, err
	}
	updated := mutation.Enrollment
	remaining := evaluation.AbsenceAllowance(updated.Workload, updated.MinAttendance) - updated.AbsenceCount
	return AbsenceLogResult{
		Subject:          updated.CourseName,
		Date:             args.Date,
		AbsenceCount:     updated.AbsenceCount,
		AttendanceRatio:  updated.AttendanceRatio,
		RemainingAllowed: max(remaining, 0),
		Status:           string(updated.Status),
	}, nil
}

func (c *catalog) projectRequiredScore(ctx context.Context, actor *models.JWTClaims, args projectionArgs) (ProjectionResult, error) {
	enrollment, err := c.svc.Enrollments.ResolveSubject(ctx, actor, args.Subject)
	if err != nil {
		return ProjectionResult{}, err
	}
	projection, err := c.svc.Projections.Project(ctx, actor, enrollment.ID, service.ProjectionRequest{TargetAverage: args.TargetAverage})
	if err != nil {
		return ProjectionResult{}, err
	}
	return ProjectionResult{
		Subject:       enrollment.CourseName,
		TargetAverage: *args.TargetAverage,
		RequiredScore: projection.RequiredScore,
		Final:         projection.Final,
		FinalAverage:  projection.FinalAverage,
		PendingItems:  lo.Map(projection.PendingItems, func(p evaluation.PendingItem, _ int) string { return p.Name }),
	}, nil
}

func (c *catalog) simulateGrade(ctx context.Context, actor *models.JWTClaims, args gradeArgs) (SimulationResult, error) {
	enrollment, method, err := c.method(ctx, actor, args.Subject)
	if err != nil {
		return SimulationResult{}, err
	}
	item, err := service.ResolveAssessment(method.Items, args.Assessment)
	if err != nil {
		return SimulationResult{}, err
	}
	sim, err := c.svc.Projections.Simulate(ctx, actor, enrollment.ID, service.SimulationRequest{ItemID: item.ID, Score: args.Score})
	if err != nil {
		return SimulationResult{}, err
	}
	return SimulationResult{
		Subject:           sim.CourseName,
		Assessment:        sim.ItemName,
		HypotheticalScore: sim.HypotheticalScore,
		SimulatedAverage:  sim.SimulatedAverage,
		CurrentAverage:    sim.CurrentAverage,
		Difference:        sim.Difference,
	}, nil
}

func (c *catalog) queryAbsences(ctx context.Context, actor *models.JWTClaims, args subjectArgs) (AbsencesResult, error) {
	enrollment, err := c.svc.Enrollments.ResolveSubject(ctx, actor, args.Subject)
	if err != nil {
		return AbsencesResult{}, err
	}
	report, err := c.svc.Absences.Report(ctx, actor, enrollment.ID)
	if err != nil {
		return AbsencesResult{}, err
	}
	return AbsencesResult{
		Subject:          report.CourseName,
		AbsenceCount:     report.AbsenceCount,
		AttendanceRatio:  report.AttendanceRatio,
		TotalSessions:    report.TotalSessions,
		Allowance:        report.Allowance,
		RemainingAllowed: report.RemainingAllowed,
		Absences: lo.Map(report.Absences, func(a models.Absence, _ int) AbsenceEntry {
			return AbsenceEntry{Date: a.Date.Format(dateLayout), Justified: a.Justified, Justification: lo.FromPtr(a.Justification)}
		}),
	}, nil
}

func (c *catalog) queryNextSession(ctx context.Context, actor *models.JWTClaims, _ noArgs) (NextSessionResult, error) {
	next, err := c.svc.Schedule.NextSession(ctx, actor, "")
	if err != nil {
		return NextSessionResult{}, err
	}
	return NextSessionResult{
		Subject:    next.CourseName,
		Weekday:    next.Weekday,
		Date:       next.StartsAt.Format(dateLayout),
		StartTime:  next.StartTime,
		EndTime:    next.EndTime,
		Room:       next.Room,
		Instructor: next.Instructor,
		Today:      next.Today,
	}, nil
}

func (c *catalog) queryOverallStanding(ctx context.Context, actor *models.JWTClaims, _ noArgs) (StandingResult, error) {
	standing, _, err := c.svc.Standing.Overall(ctx, actor, "", "")
	if err != nil {
		return StandingResult{}, err
	}
	return StandingResult{
		Term:       standing.Term,
		Passed:     standing.Passed,
		Failed:     standing.Failed,
		InProgress: standing.InProgress,
		Courses: lo.Map(standing.Courses, func(row models.StandingRow, _ int) StandingCourse {
			return StandingCourse{
				Subject:         row.CourseName,
				Average:         row.Average,
				Status:          string(row.Status),
				AttendanceRatio: row.AttendanceRatio,
				Absences:        row.AbsenceCount,
			}
		}),
	}, nil
}

func itemNames(items []models.AssessmentItem) []string {
	return lo.Map(items, func(item models.AssessmentItem, _ int) string { return item.Name })
}
