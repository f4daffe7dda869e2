package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiufpe/hub-api/internal/models"
	"github.com/hiufpe/hub-api/internal/service"
	"github.com/hiufpe/hub-api/pkg/config"
	"github.com/hiufpe/hub-api/pkg/logger"
)

func newRouter(tokens TokenValidator, roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWT(tokens))
	if len(roles) > 0 {
		router.Use(RequireRoles(roles...))
	}
	router.GET("/me", func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.String(http.StatusOK, claims.UserID)
	})
	return router
}

func get(router *gin.Engine, header string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestJWTMiddleware(t *testing.T) {
	tokens := service.NewTokenService(config.JWTConfig{Secret: "secret"})
	token, err := tokens.Sign("student-1", models.RoleStudent, time.Hour)
	require.NoError(t, err)
	router := newRouter(tokens)

	ok := get(router, "Bearer "+token)
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "student-1", ok.Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(router, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "Token "+token).Code)
	assert.Equal(t, http.StatusUnauthorized, get(router, "Bearer not-a-token").Code)
}

func TestRequireRoles(t *testing.T) {
	tokens := service.NewTokenService(config.JWTConfig{Secret: "secret"})
	router := newRouter(tokens, models.RoleAdmin, models.RoleInstructor)

	student, err := tokens.Sign("student-1", models.RoleStudent, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(router, "Bearer "+student).Code)

	instructor, err := tokens.Sign("prof-1", models.RoleInstructor, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(router, "Bearer "+instructor).Code)
}

func TestMetricsMiddlewareRecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	router := gin.New()
	router.Use(Metrics(metrics))
	router.GET("/courses/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/courses/42", nil))

	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, uint64(1), metrics.Snapshot().RequestsTotal)
}

type recordedRequest struct {
	method string
	route  string
	status int
}

type recordingObserver struct {
	requests []recordedRequest
}

func (r *recordingObserver) ObserveHTTPRequest(method, route string, status int, _ time.Duration) {
	r.requests = append(r.requests, recordedRequest{method: method, route: route, status: status})
}

func TestMetricsMiddlewareLabelsUnmatchedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}
	router := gin.New()
	router.Use(Metrics(observer))
	router.GET("/courses/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/courses/7", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-admin/login.php", nil))

	require.Len(t, observer.requests, 2)
	assert.Equal(t, recordedRequest{method: http.MethodGet, route: "/courses/:id", status: http.StatusOK}, observer.requests[0])
	assert.Equal(t, recordedRequest{method: http.MethodGet, route: "unmatched", status: http.StatusNotFound}, observer.requests[1])
}

func TestJWTMiddlewareTagsActor(t *testing.T) {
	tokens := service.NewTokenService(config.JWTConfig{Secret: "secret"})
	token, err := tokens.Sign("student-9", models.RoleStudent, time.Hour)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWT(tokens))
	router.GET("/me", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(logger.ContextActorKey)) })

	recorder := get(router, "Bearer "+token)
	assert.Equal(t, "student-9", recorder.Body.String())
}
