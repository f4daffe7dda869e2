package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/internal/service"
)

// EnrollmentLister lists the enrollments visible to an actor.
type EnrollmentLister interface {
	List(ctx context.Context, actor *models.JWTClaims, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error)
}

// ScheduleLister lists a student's weekly sessions.
type ScheduleLister interface {
	Weekly(ctx context.Context, actor *models.JWTClaims, studentID string) ([]service.ScheduleEntry, error)
}

const systemPreamble = `You are the academic assistant of a university student.
Use the available tools to read or record grades, absences, projections and schedules; never make up numbers.
When a tool returns {"error": ...}, explain the problem to the student or ask for the missing detail, such as which subject they meant.
Answer briefly, in the student's language.`

// PromptBuilder renders the system prompt from the student's current enrollments and timetable.
type PromptBuilder struct {
	enrollments EnrollmentLister
	schedule    ScheduleLister
	term        string
	now         func() time.Time
}

// NewPromptBuilder constructs a builder scoped to the active term.
func NewPromptBuilder(enrollments EnrollmentLister, schedule ScheduleLister, term string) *PromptBuilder {
	return &PromptBuilder{enrollments: enrollments, schedule: schedule, term: term, now: time.Now}
}

// Build returns the system prompt for actor.
func (b *PromptBuilder) Build(ctx context.Context, actor *models.JWTClaims) (string, error) {
	enrollments, err := b.enrollments.List(ctx, actor, models.EnrollmentFilter{StudentID: actor.UserID, Term: b.term})
	if err != nil {
		return "", err
	}
	sessions, err := b.schedule.Weekly(ctx, actor, actor.UserID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(systemPreamble)
	now := b.now()
	fmt.Fprintf(&sb, "\n\nToday is %s, %s.", now.Weekday(), now.Format("2006-01-02 15:04"))
	if b.term != "" {
		fmt.Fprintf(&sb, " Current term: %s.", b.term)
	}

	sb.WriteString("\n\nEnrolled subjects:\n")
	if len(enrollments) == 0 {
		sb.WriteString("- none\n")
	}
	for _, e := range enrollments {
		average := "no average yet"
		if e.Average != nil {
			average = fmt.Sprintf("average %.2f", *e.Average)
		}
		fmt.Fprintf(&sb, "- %s (%s): %s, status %s, attendance %d%%, %d absences, requires %.2f and %d%%\n",
			e.CourseName, e.CourseCode, average, e.Status, e.AttendanceRatio, e.AbsenceCount, e.MinAverage, e.MinAttendance)
	}

	if len(sessions) > 0 {
		sb.WriteString("\nWeekly schedule:\n")
		for _, s := range sessions {
			fmt.Fprintf(&sb, "- %s %s-%s %s", s.WeekdayName, s.StartTime, s.EndTime, s.CourseName)
			if s.Room != "" {
				fmt.Fprintf(&sb, " (room %s)", s.Room)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}
