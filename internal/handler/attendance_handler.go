package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hiufpe/hub-api/internal/service"
	"github.com/hiufpe/hub-api/pkg/response"
)

// AttendanceHandler exposes absence endpoints.
type AttendanceHandler struct {
	absences *service.AbsenceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(absences *service.AbsenceService) *AttendanceHandler {
	return &AttendanceHandler{absences: absences}
}

// Report godoc
// @Summary Absence report
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/absences [get]
func (h *AttendanceHandler) Report(c *gin.Context) {
	report, err := h.absences.Report(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}

// Create godoc
// @Summary Record an absence
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Param payload body service.AbsenceRequest true "Absence"
// @Success 201 {object} response.Envelope
// @Router /enrollments/{id}/absences [post]
func (h *AttendanceHandler) Create(c *gin.Context) {
	var req service.AbsenceRequest
	if !bindJSON(c, &req) {
		return
	}
	mutation, err := h.absences.Create(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, mutation)
}

// Delete godoc
// @Summary Remove an absence
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param absenceId path string true "Absence ID"
// @Success 200 {object} response.Envelope
// @Router /absences/{absenceId} [delete]
func (h *AttendanceHandler) Delete(c *gin.Context) {
	enrollment, err := h.absences.Delete(c.Request.Context(), claimsFromContext(c), c.Param("absenceId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, enrollment)
}
