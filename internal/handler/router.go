package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hiufpe/hub-api/internal/middleware"
	"github.com/hiufpe/hub-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Enrollments *EnrollmentHandler
	Evaluation  *EvaluationHandler
	Attendance  *AttendanceHandler
	Courses     *CourseHandler
	Standing    *StandingHandler
	Assistant   *AssistantHandler
	Metrics     *MetricsHandler
}

// RegisterRoutes mounts the authenticated API on group.
func RegisterRoutes(group *gin.RouterGroup, tokens middleware.TokenValidator, h Handlers) {
	api := group.Group("")
	api.Use(middleware.JWT(tokens))
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor)

	api.GET("/courses", h.Courses.List)
	api.GET("/courses/:id", h.Courses.Get)
	api.GET("/courses/:id/sessions", h.Courses.ListSessions)
	api.POST("/courses", staff, h.Courses.Create)
	api.POST("/courses/:id/sessions", staff, h.Courses.CreateSession)
	api.DELETE("/sessions/:sessionId", staff, h.Courses.DeleteSession)

	api.GET("/enrollments", h.Enrollments.List)
	api.GET("/enrollments/resolve", h.Enrollments.Resolve)
	api.POST("/enrollments", h.Enrollments.Create)
	api.GET("/enrollments/:id", h.Enrollments.Get)
	api.PATCH("/enrollments/:id", h.Enrollments.Update)
	api.DELETE("/enrollments/:id", h.Enrollments.Delete)
	api.POST("/enrollments/:id/recompute", h.Enrollments.Recompute)

	api.GET("/enrollments/:id/method", h.Evaluation.GetMethod)
	api.POST("/enrollments/:id/method", h.Evaluation.CreateMethod)
	api.PUT("/enrollments/:id/method", h.Evaluation.UpdateMethod)
	api.DELETE("/enrollments/:id/method", h.Evaluation.DeleteMethod)
	api.GET("/enrollments/:id/assessments", h.Evaluation.ListAssessments)
	api.POST("/enrollments/:id/assessments", h.Evaluation.CreateAssessment)
	api.PUT("/assessments/:itemId", h.Evaluation.UpdateAssessment)
	api.PUT("/assessments/:itemId/score", h.Evaluation.GradeAssessment)
	api.DELETE("/assessments/:itemId", h.Evaluation.DeleteAssessment)
	api.POST("/enrollments/:id/projection", h.Evaluation.Project)
	api.POST("/enrollments/:id/simulation", h.Evaluation.Simulate)

	api.GET("/enrollments/:id/absences", h.Attendance.Report)
	api.POST("/enrollments/:id/absences", h.Attendance.Create)
	api.DELETE("/absences/:absenceId", h.Attendance.Delete)

	api.GET("/standing", h.Standing.Overall)
	api.GET("/standing/export", h.Standing.Export)
	api.GET("/schedule", h.Standing.Weekly)
	api.GET("/schedule/next", h.Standing.Next)

	api.POST("/assistant/messages", h.Assistant.Send)
	api.GET("/assistant/conversations", h.Assistant.Conversations)
	api.GET("/assistant/conversations/:id/messages", h.Assistant.History)
	api.GET("/assistant/tools", h.Assistant.Tools)
	api.POST("/assistant/tools/:name", h.Assistant.Invoke)

	api.GET("/system/metrics", staff, h.Metrics.Snapshot)
	api.POST("/system/reconcile", middleware.RequireRoles(models.RoleAdmin), h.Metrics.Reconcile)
}
