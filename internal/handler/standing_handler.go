package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hiufpe/hub-api/internal/service"
	"github.com/hiufpe/hub-api/pkg/response"
)

// StandingHandler exposes the student's overall standing and timetable.
type StandingHandler struct {
	standing *service.StandingService
	schedule *service.ScheduleService
}

// NewStandingHandler constructs StandingHandler.
func NewStandingHandler(standing *service.StandingService, schedule *service.ScheduleService) *StandingHandler {
	return &StandingHandler{standing: standing, schedule: schedule}
}

// Overall godoc
// @Summary Overall standing for a term
// @Tags Standing
// @Produce json
// @Security BearerAuth
// @Param student_id query string false "Student (staff only)"
// @Param term query string false "Term, defaults to the active term"
// @Success 200 {object} response.Envelope
// @Router /standing [get]
func (h *StandingHandler) Overall(c *gin.Context) {
	standing, cached, err := h.standing.Overall(c.Request.Context(), claimsFromContext(c), c.Query("student_id"), c.Query("term"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, standing, map[string]interface{}{"cached": cached})
}

// Export godoc
// @Summary Export standing as CSV or PDF
// @Tags Standing
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param student_id query string false "Student (staff only)"
// @Param term query string false "Term"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /standing/export [get]
func (h *StandingHandler) Export(c *gin.Context) {
	out, err := h.standing.Export(c.Request.Context(), claimsFromContext(c), c.Query("student_id"), c.Query("term"), c.DefaultQuery("format", service.FormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, out.Filename, out.ContentType, out.Payload)
}

// Weekly godoc
// @Summary Weekly class schedule
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param student_id query string false "Student (staff only)"
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *StandingHandler) Weekly(c *gin.Context) {
	entries, err := h.schedule.Weekly(c.Request.Context(), claimsFromContext(c), c.Query("student_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entries)
}

// Next godoc
// @Summary Next class session
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param student_id query string false "Student (staff only)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedule/next [get]
func (h *StandingHandler) Next(c *gin.Context) {
	next, err := h.schedule.NextSession(c.Request.Context(), claimsFromContext(c), c.Query("student_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, next)
}
