package models

import "time"

// StandingRow is one enrollment line of a student's overall standing.
type StandingRow struct {
	EnrollmentID    string           `json:"enrollment_id"`
	CourseCode      string           `json:"course_code"`
	CourseName      string           `json:"course_name"`
	Average         *float64         `json:"average"`
	Status          EnrollmentStatus `json:"status"`
	AttendanceRatio int              `json:"attendance_ratio"`
	AbsenceCount    int              `json:"absence_count"`
}

// Standing aggregates every enrollment of a student in a term.
type Standing struct {
	StudentID   string        `json:"student_id"`
	Term        string        `json:"term,omitempty"`
	Courses     []StandingRow `json:"courses"`
	Passed      int           `json:"passed"`
	Failed      int           `json:"failed"`
	InProgress  int           `json:"in_progress"`
	GeneratedAt time.Time     `json:"generated_at"`
}
