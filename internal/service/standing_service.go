package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/internal/repository"
	"github.com/hiufpe/hub-api/pkg/config"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
	"github.com/hiufpe/hub-api/pkg/export"
)

// Standing export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

var standingHeaders = []string{"Code", "Course", "Average", "Status", "Attendance %", "Absences"}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// StandingExport is a rendered standing report.
type StandingExport struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// StandingService aggregates a student's enrollments into an overall standing.
type StandingService struct {
	store    LedgerStore
	cache    *StandingCache
	defaults config.EvaluationConfig
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewStandingService constructs the service. Nil renderers fall back to pkg/export.
func NewStandingService(store LedgerStore, cache *StandingCache, defaults config.EvaluationConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *StandingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &StandingService{store: store, cache: cache, defaults: defaults, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Overall returns the student's standing for a term, defaulting to the active term.
// The boolean reports whether the result came from cache.
func (s *StandingService) Overall(ctx context.Context, actor *models.JWTClaims, studentID, term string) (*models.Standing, bool, error) {
	studentID, err := scopeStudent(actor, studentID)
	if err != nil {
		return nil, false, err
	}
	if term == "" {
		term = s.defaults.ActiveTerm
	}

	if cached, hit, err := s.cache.Load(ctx, studentID, term); err != nil {
		s.logger.Warn("standing cache unavailable", zap.String("student_id", studentID), zap.Error(err))
	} else if hit {
		return cached, true, nil
	}

	var enrollments []models.EnrollmentDetail
	err = s.store.View(ctx, func(tx repository.LedgerTx) error {
		var err error
		enrollments, err = tx.ListEnrollments(ctx, models.EnrollmentFilter{StudentID: studentID, Term: term})
		return err
	})
	if err != nil {
		return nil, false, normalizeError(err, "load standing")
	}

	standing := buildStanding(studentID, term, enrollments, s.now().UTC())
	if err := s.cache.Store(ctx, standing); err != nil {
		s.logger.Warn("cache standing", zap.Error(err))
	}
	return standing, false, nil
}

// Export renders the standing as CSV or PDF.
func (s *StandingService) Export(ctx context.Context, actor *models.JWTClaims, studentID, term, format string) (*StandingExport, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	standing, _, err := s.Overall(ctx, actor, studentID, term)
	if err != nil {
		return nil, err
	}

	data := standingDataset(standing)
	base := "standing"
	if standing.Term != "" {
		base += "-" + standing.Term
	}
	var out StandingExport
	switch format {
	case FormatPDF:
		out.Payload, err = s.pdf.Render(data, "Overall standing")
		out.ContentType = "application/pdf"
	default:
		out.Payload, err = s.csv.Render(data)
		out.ContentType = "text/csv; charset=utf-8"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render standing")
	}
	out.Filename = fmt.Sprintf("%s.%s", base, format)
	return &out, nil
}

func buildStanding(studentID, term string, enrollments []models.EnrollmentDetail, now time.Time) *models.Standing {
	rows := lo.Map(enrollments, func(e models.EnrollmentDetail, _ int) models.StandingRow {
		return models.StandingRow{
			EnrollmentID:    e.ID,
			CourseCode:      e.CourseCode,
			CourseName:      e.CourseName,
			Average:         e.Average,
			Status:          e.Status,
			AttendanceRatio: e.AttendanceRatio,
			AbsenceCount:    e.AbsenceCount,
		}
	})
	countStatus := func(status models.EnrollmentStatus) int {
		return lo.CountBy(rows, func(r models.StandingRow) bool { return r.Status == status })
	}
	return &models.Standing{
		StudentID:   studentID,
		Term:        term,
		Courses:     rows,
		Passed:      countStatus(models.EnrollmentStatusPassed),
		Failed:      countStatus(models.EnrollmentStatusFailed),
		InProgress:  countStatus(models.EnrollmentStatusInProgress),
		GeneratedAt: now,
	}
}

func standingDataset(standing *models.Standing) export.Dataset {
	caption := fmt.Sprintf("Student %s", standing.StudentID)
	if standing.Term != "" {
		caption += fmt.Sprintf(" - term %s", standing.Term)
	}
	return export.Dataset{
		Headers: standingHeaders,
		Caption: caption,
		Rows: lo.Map(standing.Courses, func(r models.StandingRow, _ int) map[string]string {
			average := "-"
			if r.Average != nil {
				average = fmt.Sprintf("%.2f", *r.Average)
			}
			return map[string]string{
				"Code":         r.CourseCode,
				"Course":       r.CourseName,
				"Average":      average,
				"Status":       string(r.Status),
				"Attendance %": fmt.Sprintf("%d", r.AttendanceRatio),
				"Absences":     fmt.Sprintf("%d", r.AbsenceCount),
			}
		}),
	}
}
