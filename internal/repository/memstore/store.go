// Package memstore keeps the academic ledger in process memory. It backs the
// memory driver and the service level tests.
package memstore

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/internal/repository"
)

type state struct {
	courses     map[string]models.Course
	sessions    map[string]models.ClassSession
	enrollments map[string]models.Enrollment
	methods     map[string]models.EvaluationMethod
	items       map[string]models.AssessmentItem
	absences    map[string]models.Absence
}

func newState() *state {
	return &state{
		courses:     map[string]models.Course{},
		sessions:    map[string]models.ClassSession{},
		enrollments: map[string]models.Enrollment{},
		methods:     map[string]models.EvaluationMethod{},
		items:       map[string]models.AssessmentItem{},
		absences:    map[string]models.Absence{},
	}
}

func (s *state) clone() *state {
	return &state{
		courses:     lo.Assign(s.courses),
		sessions:    lo.Assign(s.sessions),
		enrollments: lo.Assign(s.enrollments),
		methods:     lo.Assign(s.methods),
		items:       lo.Assign(s.items),
		absences:    lo.Assign(s.absences),
	}
}

// Store is an in-memory ledger. Writers are fully serialised; a failed Update leaves no trace.
type Store struct {
	mu    sync.RWMutex
	state *state
}

// New returns an empty store.
func New() *Store {
	return &Store{state: newState()}
}

// View runs fn under a shared lock.
func (s *Store) View(ctx context.Context, fn func(repository.LedgerTx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&tx{state: s.state})
}

// Update runs fn under the exclusive lock against a copy that replaces the live state on success.
func (s *Store) Update(ctx context.Context, fn func(repository.LedgerTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	working := s.state.clone()
	if err := fn(&tx{state: working}); err != nil {
		return err
	}
	s.state = working
	return nil
}

type tx struct {
	state *state
}

var _ repository.LedgerTx = (*tx)(nil)

func (t *tx) detail(e models.Enrollment) models.EnrollmentDetail {
	course := t.state.courses[e.CourseID]
	return models.EnrollmentDetail{Enrollment: e, CourseCode: course.Code, CourseName: course.Name, Workload: course.Workload}
}

func (t *tx) ListEnrollments(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	var out []models.EnrollmentDetail
	for _, e := range t.state.enrollments {
		if filter.StudentID != "" && e.StudentID != filter.StudentID {
			continue
		}
		if filter.CourseID != "" && e.CourseID != filter.CourseID {
			continue
		}
		if filter.Term != "" && e.Term != filter.Term {
			continue
		}
		out = append(out, t.detail(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CourseName == out[j].CourseName {
			return out[i].ID < out[j].ID
		}
		return out[i].CourseName < out[j].CourseName
	})
	return out, nil
}

func (t *tx) ListEnrollmentIDs(ctx context.Context) ([]string, error) {
	ids := lo.Keys(t.state.enrollments)
	sort.Strings(ids)
	return ids, nil
}

func (t *tx) GetEnrollment(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	e, ok := t.state.enrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	d := t.detail(e)
	return &d, nil
}

// LockEnrollment is a plain read: Update already holds the exclusive lock.
func (t *tx) LockEnrollment(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	return t.GetEnrollment(ctx, id)
}

func (t *tx) CreateEnrollment(ctx context.Context, e *models.Enrollment) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	if e.Status == "" {
		e.Status = models.EnrollmentStatusInProgress
	}
	t.state.enrollments[e.ID] = *e
	return nil
}

func (t *tx) UpdateEnrollmentSettings(ctx context.Context, e *models.Enrollment) error {
	current, ok := t.state.enrollments[e.ID]
	if !ok {
		return sql.ErrNoRows
	}
	e.UpdatedAt = time.Now().UTC()
	current.MinAverage = e.MinAverage
	current.MinAttendance = e.MinAttendance
	current.Status = e.Status
	current.UpdatedAt = e.UpdatedAt
	t.state.enrollments[e.ID] = current
	return nil
}

func (t *tx) UpdateOutcome(ctx context.Context, id string, outcome models.Outcome) error {
	current, ok := t.state.enrollments[id]
	if !ok {
		return sql.ErrNoRows
	}
	at := outcome.RecomputedAt
	current.Average = copyFloat(outcome.Average)
	current.Status = outcome.Status
	current.AttendanceRatio = outcome.AttendanceRatio
	current.AbsenceCount = outcome.AbsenceCount
	current.RecomputedAt = &at
	current.UpdatedAt = at
	t.state.enrollments[id] = current
	return nil
}

func (t *tx) DeleteEnrollment(ctx context.Context, id string) error {
	delete(t.state.enrollments, id)
	return nil
}

func (t *tx) GetMethod(ctx context.Context, id string) (*models.EvaluationMethod, error) {
	m, ok := t.state.methods[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &m, nil
}

func (t *tx) GetMethodByEnrollment(ctx context.Context, enrollmentID string) (*models.EvaluationMethod, error) {
	m, ok := lo.Find(lo.Values(t.state.methods), func(m models.EvaluationMethod) bool { return m.EnrollmentID == enrollmentID })
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &m, nil
}

func (t *tx) CreateMethod(ctx context.Context, m *models.EvaluationMethod) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	stored := *m
	stored.Items = nil
	t.state.methods[m.ID] = stored
	return nil
}

func (t *tx) UpdateMethod(ctx context.Context, m *models.EvaluationMethod) error {
	if _, ok := t.state.methods[m.ID]; !ok {
		return sql.ErrNoRows
	}
	m.UpdatedAt = time.Now().UTC()
	stored := *m
	stored.Items = nil
	t.state.methods[m.ID] = stored
	return nil
}

func (t *tx) DeleteMethod(ctx context.Context, id string) error {
	delete(t.state.methods, id)
	return nil
}

func (t *tx) ListItems(ctx context.Context, methodID string) ([]models.AssessmentItem, error) {
	items := lo.Filter(lo.Values(t.state.items), func(i models.AssessmentItem, _ int) bool { return i.MethodID == methodID })
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.Date != nil && b.Date != nil && !a.Date.Equal(*b.Date):
			return a.Date.Before(*b.Date)
		case a.Date != nil && b.Date == nil:
			return true
		case a.Date == nil && b.Date != nil:
			return false
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return items, nil
}

func (t *tx) GetItem(ctx context.Context, id string) (*models.AssessmentItem, error) {
	i, ok := t.state.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &i, nil
}

func (t *tx) CreateItem(ctx context.Context, i *models.AssessmentItem) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	i.CreatedAt, i.UpdatedAt = now, now
	stored := *i
	stored.Score = copyFloat(i.Score)
	t.state.items[i.ID] = stored
	return nil
}

func (t *tx) UpdateItem(ctx context.Context, i *models.AssessmentItem) error {
	current, ok := t.state.items[i.ID]
	if !ok {
		return sql.ErrNoRows
	}
	i.UpdatedAt = time.Now().UTC()
	stored := *i
	stored.MethodID = current.MethodID
	stored.CreatedAt = current.CreatedAt
	stored.Score = copyFloat(i.Score)
	t.state.items[i.ID] = stored
	return nil
}

func (t *tx) DeleteItem(ctx context.Context, id string) error {
	delete(t.state.items, id)
	return nil
}

func (t *tx) DeleteItemsByMethod(ctx context.Context, methodID string) error {
	for id, i := range t.state.items {
		if i.MethodID == methodID {
			delete(t.state.items, id)
		}
	}
	return nil
}

func (t *tx) ListAbsences(ctx context.Context, enrollmentID string) ([]models.Absence, error) {
	absences := lo.Filter(lo.Values(t.state.absences), func(a models.Absence, _ int) bool { return a.EnrollmentID == enrollmentID })
	sort.Slice(absences, func(i, j int) bool {
		if absences[i].Date.Equal(absences[j].Date) {
			return absences[i].ID < absences[j].ID
		}
		return absences[i].Date.After(absences[j].Date)
	})
	return absences, nil
}

func (t *tx) GetAbsence(ctx context.Context, id string) (*models.Absence, error) {
	a, ok := t.state.absences[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &a, nil
}

func (t *tx) CountAbsences(ctx context.Context, enrollmentID string) (int, error) {
	return lo.CountBy(lo.Values(t.state.absences), func(a models.Absence) bool { return a.EnrollmentID == enrollmentID }), nil
}

func (t *tx) CreateAbsence(ctx context.Context, a *models.Absence) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now().UTC()
	t.state.absences[a.ID] = *a
	return nil
}

func (t *tx) DeleteAbsence(ctx context.Context, id string) error {
	delete(t.state.absences, id)
	return nil
}

func (t *tx) DeleteAbsencesByEnrollment(ctx context.Context, enrollmentID string) error {
	for id, a := range t.state.absences {
		if a.EnrollmentID == enrollmentID {
			delete(t.state.absences, id)
		}
	}
	return nil
}

func (t *tx) ListCourses(ctx context.Context) ([]models.Course, error) {
	courses := lo.Values(t.state.courses)
	sort.Slice(courses, func(i, j int) bool { return strings.ToLower(courses[i].Name) < strings.ToLower(courses[j].Name) })
	return courses, nil
}

func (t *tx) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	c, ok := t.state.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (t *tx) CreateCourse(ctx context.Context, c *models.Course) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	t.state.courses[c.ID] = *c
	return nil
}

func (t *tx) ListSessions(ctx context.Context, filter repository.SessionFilter) ([]models.ClassSession, error) {
	sessions := lo.Filter(lo.Values(t.state.sessions), func(s models.ClassSession, _ int) bool {
		if len(filter.CourseIDs) > 0 && !lo.Contains(filter.CourseIDs, s.CourseID) {
			return false
		}
		return filter.Term == "" || s.Term == filter.Term
	})
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].Weekday != sessions[j].Weekday {
			return sessions[i].Weekday < sessions[j].Weekday
		}
		return sessions[i].StartTime < sessions[j].StartTime
	})
	return sessions, nil
}

func (t *tx) GetSession(ctx context.Context, id string) (*models.ClassSession, error) {
	s, ok := t.state.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (t *tx) CreateSession(ctx context.Context, s *models.ClassSession) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = time.Now().UTC()
	t.state.sessions[s.ID] = *s
	return nil
}

func (t *tx) DeleteSession(ctx context.Context, id string) error {
	delete(t.state.sessions, id)
	return nil
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
