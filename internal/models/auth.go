package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens issued by the identity provider.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
	Email  string   `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// StudentActor builds claims for internal callers acting on behalf of a student.
func StudentActor(studentID string) *JWTClaims {
	return &JWTClaims{UserID: studentID, Role: RoleStudent}
}
