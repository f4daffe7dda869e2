package models

import "time"

// EnrollmentStatus represents the outcome lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusInProgress EnrollmentStatus = "in_progress"
	EnrollmentStatusPassed     EnrollmentStatus = "passed"
	EnrollmentStatusFailed     EnrollmentStatus = "failed"
	EnrollmentStatusWithdrawn  EnrollmentStatus = "withdrawn"
)

// Enrollment captures a student's registration to a course within a term.
type Enrollment struct {
	ID              string           `db:"id" json:"id"`
	StudentID       string           `db:"student_id" json:"student_id"`
	CourseID        string           `db:"course_id" json:"course_id"`
	Term            string           `db:"term" json:"term"`
	MinAverage      float64          `db:"min_average" json:"min_average"`
	MinAttendance   int              `db:"min_attendance" json:"min_attendance"`
	Status          EnrollmentStatus `db:"status" json:"status"`
	Average         *float64         `db:"average" json:"average"`
	AttendanceRatio int              `db:"attendance_ratio" json:"attendance_ratio"`
	AbsenceCount    int              `db:"absence_count" json:"absence_count"`
	RecomputedAt    *time.Time       `db:"recomputed_at" json:"recomputed_at,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches Enrollment with course info.
type EnrollmentDetail struct {
	Enrollment
	CourseCode string `db:"course_code" json:"course_code"`
	CourseName string `db:"course_name" json:"course_name"`
	Workload   int    `db:"workload" json:"workload"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID string
	CourseID  string
	Term      string
}

// Outcome is the derived state written back to an enrollment after recomputation.
type Outcome struct {
	Average         *float64         `json:"average"`
	Status          EnrollmentStatus `json:"status"`
	AttendanceRatio int              `json:"attendance_ratio"`
	AbsenceCount    int              `json:"absence_count"`
	RecomputedAt    time.Time        `json:"recomputed_at"`
}
