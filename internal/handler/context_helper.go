package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hiufpe/hub-api/internal/middleware"
	"github.com/hiufpe/hub-api/internal/models"
	appErrors "github.com/hiufpe/hub-api/pkg/errors"
	"github.com/hiufpe/hub-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// bindJSON decodes the request body and writes a validation error on failure.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}
