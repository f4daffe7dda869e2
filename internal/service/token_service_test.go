package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/pkg/config"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService(config.JWTConfig{Secret: "secret", Issuer: "idp"})

	token, err := svc.Sign("student-1", models.RoleStudent, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "student-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestTokenRejections(t *testing.T) {
	svc := NewTokenService(config.JWTConfig{Secret: "secret", Issuer: "idp"})

	expired, err := svc.Sign("student-1", models.RoleStudent, -time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	foreign, err := NewTokenService(config.JWTConfig{Secret: "other", Issuer: "idp"}).Sign("student-1", models.RoleStudent, time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	wrongIssuer, err := NewTokenService(config.JWTConfig{Secret: "secret", Issuer: "elsewhere"}).Sign("student-1", models.RoleStudent, time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(wrongIssuer)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	unknown, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{
		UserID:           "x",
		Role:             "GUEST",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = NewTokenService(config.JWTConfig{Secret: "secret"}).ValidateToken(unknown)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
