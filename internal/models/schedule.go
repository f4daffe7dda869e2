package models

import "time"

// ClassSession is a weekly recurring meeting of a course.
type ClassSession struct {
	ID         string    `db:"id" json:"id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	Term       string    `db:"term" json:"term"`
	Weekday    int       `db:"weekday" json:"weekday"`
	StartTime  string    `db:"start_time" json:"start_time"`
	EndTime    string    `db:"end_time" json:"end_time"`
	Room       string    `db:"room" json:"room"`
	Instructor string    `db:"instructor" json:"instructor"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// NextSession describes the upcoming meeting for a student.
type NextSession struct {
	CourseID   string    `json:"course_id"`
	CourseName string    `json:"course_name"`
	Weekday    string    `json:"weekday"`
	StartsAt   time.Time `json:"starts_at"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	Room       string    `json:"room"`
	Instructor string    `json:"instructor"`
	Today      bool      `json:"today"`
}
