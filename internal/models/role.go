package models

// UserRole is the caller role carried in access tokens.
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleInstructor UserRole = "INSTRUCTOR"
	RoleStudent    UserRole = "STUDENT"
)

// Known reports whether the role is one this API serves.
func (r UserRole) Known() bool {
	switch r {
	case RoleAdmin, RoleInstructor, RoleStudent:
		return true
	}
	return false
}

// Staff roles may read and write any student's ledgers.
func (r UserRole) Staff() bool {
	return r == RoleAdmin || r == RoleInstructor
}
