package models

import "time"

// Absence records a single missed session for an enrollment.
type Absence struct {
	ID            string    `db:"id" json:"id"`
	EnrollmentID  string    `db:"enrollment_id" json:"enrollment_id"`
	Date          time.Time `db:"date" json:"date"`
	Justified     bool      `db:"justified" json:"justified"`
	Justification *string   `db:"justification" json:"justification,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// AbsenceReport summarises attendance for one enrollment.
type AbsenceReport struct {
	EnrollmentID     string    `json:"enrollment_id"`
	CourseName       string    `json:"course_name"`
	AbsenceCount     int       `json:"absence_count"`
	AttendanceRatio  int       `json:"attendance_ratio"`
	TotalSessions    int       `json:"total_sessions"`
	Allowance        int       `json:"allowance"`
	RemainingAllowed int       `json:"remaining_allowed"`
	Absences         []Absence `json:"absences"`
}
