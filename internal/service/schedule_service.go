package service

import (
	"context"
	"sort"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/internal/repository"
	"github.com/hiufpe/hub-api/pkg/config"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

const clockLayout = "15:04"

// ScheduleEntry is a weekly session labelled with its course.
type ScheduleEntry struct {
	models.ClassSession
	CourseName  string `json:"course_name"`
	WeekdayName string `json:"weekday_name"`
}

// ScheduleService answers questions about a student's weekly timetable.
type ScheduleService struct {
	store    LedgerStore
	defaults config.EvaluationConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduleService constructs the service.
func NewScheduleService(store LedgerStore, defaults config.EvaluationConfig, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{store: store, defaults: defaults, logger: logger, now: time.Now}
}

// Weekly lists the sessions of every course the student is enrolled in, Sunday first.
func (s *ScheduleService) Weekly(ctx context.Context, actor *models.JWTClaims, studentID string) ([]ScheduleEntry, error) {
	studentID, err := scopeStudent(actor, studentID)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []ScheduleEntry{}
	}
	return entries, nil
}

// NextSession returns the first session starting after now, looking at most one week ahead.
func (s *ScheduleService) NextSession(ctx context.Context, actor *models.JWTClaims, studentID string) (*models.NextSession, error) {
	studentID, err := scopeStudent(actor, studentID)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries(ctx, studentID)
	if err != nil {
		return nil, err
	}
	next := nextOccurrence(entries, s.now())
	if next == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no upcoming class sessions")
	}
	return next, nil
}

func (s *ScheduleService) entries(ctx context.Context, studentID string) ([]ScheduleEntry, error) {
	var entries []ScheduleEntry
	err := s.store.View(ctx, func(tx repository.LedgerTx) error {
		enrollments, err := tx.ListEnrollments(ctx, models.EnrollmentFilter{StudentID: studentID, Term: s.defaults.ActiveTerm})
		if err != nil {
			return err
		}
		enrollments = lo.Filter(enrollments, func(e models.EnrollmentDetail, _ int) bool {
			return e.Status != models.EnrollmentStatusWithdrawn
		})
		if len(enrollments) == 0 {
			return nil
		}
		byOffering := lo.KeyBy(enrollments, func(e models.EnrollmentDetail) string { return e.CourseID + "|" + e.Term })
		sessions, err := tx.ListSessions(ctx, repository.SessionFilter{
			CourseIDs: lo.Uniq(lo.Map(enrollments, func(e models.EnrollmentDetail, _ int) string { return e.CourseID })),
			Term:      s.defaults.ActiveTerm,
		})
		if err != nil {
			return err
		}
		for _, session := range sessions {
			enrollment, ok := byOffering[session.CourseID+"|"+session.Term]
			if !ok {
				continue
			}
			entries = append(entries, ScheduleEntry{
				ClassSession: session,
				CourseName:   enrollment.CourseName,
				WeekdayName:  time.Weekday(session.Weekday).String(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, normalizeError(err, "load schedule")
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Weekday != entries[j].Weekday {
			return entries[i].Weekday < entries[j].Weekday
		}
		return entries[i].StartTime < entries[j].StartTime
	})
	return entries, nil
}

// nextOccurrence scans today after now, then the following seven days. The same weekday next week
// is included so a student whose only class already happened today still gets an answer.
func nextOccurrence(entries []ScheduleEntry, now time.Time) *models.NextSession {
	for offset := 0; offset <= 7; offset++ {
		day := now.AddDate(0, 0, offset)
		var best *models.NextSession
		for _, entry := range entries {
			if time.Weekday(entry.Weekday) != day.Weekday() {
				continue
			}
			clock, err := time.Parse(clockLayout, entry.StartTime)
			if err != nil {
				continue
			}
			startsAt := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, now.Location())
			if offset == 0 && !startsAt.After(now) {
				continue
			}
			if best != nil && !startsAt.Before(best.StartsAt) {
				continue
			}
			best = &models.NextSession{
				CourseID:   entry.CourseID,
				CourseName: entry.CourseName,
				Weekday:    entry.WeekdayName,
				StartsAt:   startsAt,
				StartTime:  entry.StartTime,
				EndTime:    entry.EndTime,
				Room:       entry.Room,
				Instructor: entry.Instructor,
				Today:      offset == 0,
			}
		}
		if best != nil {
			return best
		}
	}
	return nil
}
