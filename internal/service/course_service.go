package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/internal/repository"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

// CreateCourseRequest adds a course to the catalog.
type CreateCourseRequest struct {
	Code     string `json:"code" validate:"required,max=20"`
	Name     string `json:"name" validate:"required,max=120"`
	Workload int    `json:"workload" validate:"required,gte=1,lte=500"`
}

// CreateSessionRequest adds a weekly meeting to a course offering.
type CreateSessionRequest struct {
	Term       string `json:"term" validate:"required,max=20"`
	Weekday    int    `json:"weekday" validate:"gte=0,lte=6"`
	StartTime  string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime    string `json:"end_time" validate:"required,datetime=15:04"`
	Room       string `json:"room" validate:"max=60"`
	Instructor string `json:"instructor" validate:"max=120"`
}

// CourseService manages the course catalog and class sessions.
type CourseService struct {
	store     LedgerStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the service.
func NewCourseService(store LedgerStore, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{store: store, validator: validate, logger: logger}
}

// List returns every course ordered by name.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	err := s.store.View(ctx, func(tx repository.LedgerTx) error {
		var err error
		courses, err = tx.ListCourses(ctx)
		return err
	})
	if err != nil {
		return nil, normalizeError(err, "list courses")
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, nil
}

// Get returns a course by id.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	var course *models.Course
	err := s.store.View(ctx, func(tx repository.LedgerTx) error {
		var err error
		course, err = tx.GetCourse(ctx, id)
		if err != nil {
			return lookupError(err, "course")
		}
		return nil
	})
	if err != nil {
		return nil, normalizeError(err, "load course")
	}
	return course, nil
}

// Create registers a course. Codes are unique case-insensitively.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{
		Code:     strings.ToUpper(strings.TrimSpace(req.Code)),
		Name:     strings.TrimSpace(req.Name),
		Workload: req.Workload,
	}
	err := s.store.Update(ctx, func(tx repository.LedgerTx) error {
		existing, err := tx.ListCourses(ctx)
		if err != nil {
			return err
		}
		for _, c := range existing {
			if strings.EqualFold(c.Code, course.Code) {
				return appErrors.Clone(appErrors.ErrConflict, "course code already exists")
			}
		}
		return tx.CreateCourse(ctx, course)
	})
	if err != nil {
		return nil, normalizeError(err, "create course")
	}
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("code", course.Code))
	return course, nil
}

// ListSessions returns the weekly sessions of a course, optionally for one term.
func (s *CourseService) ListSessions(ctx context.Context, courseID, term string) ([]models.ClassSession, error) {
	var sessions []models.ClassSession
	err := s.store.View(ctx, func(tx repository.LedgerTx) error {
		if _, err := tx.GetCourse(ctx, courseID); err != nil {
			return lookupError(err, "course")
		}
		var err error
		sessions, err = tx.ListSessions(ctx, repository.SessionFilter{CourseIDs: []string{courseID}, Term: term})
		return err
	})
	if err != nil {
		return nil, normalizeError(err, "list sessions")
	}
	if sessions == nil {
		sessions = []models.ClassSession{}
	}
	return sessions, nil
}

// CreateSession schedules a weekly meeting.
func (s *CourseService) CreateSession(ctx context.Context, courseID string, req CreateSessionRequest) (*models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if req.EndTime <= req.StartTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	session := &models.ClassSession{
		CourseID:   courseID,
		Term:       strings.TrimSpace(req.Term),
		Weekday:    req.Weekday,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Room:       strings.TrimSpace(req.Room),
		Instructor: strings.TrimSpace(req.Instructor),
	}
	err := s.store.Update(ctx, func(tx repository.LedgerTx) error {
		if _, err := tx.GetCourse(ctx, courseID); err != nil {
			return lookupError(err, "course")
		}
		return tx.CreateSession(ctx, session)
	})
	if err != nil {
		return nil, normalizeError(err, "create session")
	}
	return session, nil
}

// DeleteSession removes a weekly meeting.
func (s *CourseService) DeleteSession(ctx context.Context, sessionID string) error {
	err := s.store.Update(ctx, func(tx repository.LedgerTx) error {
		if _, err := tx.GetSession(ctx, sessionID); err != nil {
			return lookupError(err, "session")
		}
		return tx.DeleteSession(ctx, sessionID)
	})
	if err != nil {
		return normalizeError(err, "delete session")
	}
	return nil
}
