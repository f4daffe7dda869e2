package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/hiufpe/hub-api/internal/service"
	"github.com/hiufpe/hub-api/pkg/response"
)

// EvaluationHandler exposes evaluation method, assessment and projection endpoints.
type EvaluationHandler struct {
	methods     *service.EvaluationMethodService
	assessments *service.AssessmentService
	projections *service.ProjectionService
}

// NewEvaluationHandler constructs EvaluationHandler.
func NewEvaluationHandler(methods *service.EvaluationMethodService, assessments *service.AssessmentService, projections *service.ProjectionService) *EvaluationHandler {
	return &EvaluationHandler{methods: methods, assessments: assessments, projections: projections}
}

// GetMethod godoc
// @Summary Get evaluation method with items
// @Tags Evaluation
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/method [get]
func (h *EvaluationHandler) GetMethod(c *gin.Context) {
	method, err := h.methods.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, method)
}

// CreateMethod godoc
// @Summary Configure evaluation method
// @Tags Evaluation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Param payload body service.EvaluationMethodRequest true "Method"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /enrollments/{id}/method [post]
func (h *EvaluationHandler) CreateMethod(c *gin.Context) {
	var req service.EvaluationMethodRequest
	if !bindJSON(c, &req) {
		return
	}
	method, err := h.methods.Create(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, method)
}

// UpdateMethod godoc
// @Summary Replace evaluation method settings
// @Tags Evaluation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Param payload body service.EvaluationMethodRequest true "Method"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/method [put]
func (h *EvaluationHandler) UpdateMethod(c *gin.Context) {
	var req service.EvaluationMethodRequest
	if !bindJSON(c, &req) {
		return
	}
	method, err := h.methods.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, method)
}

// DeleteMethod godoc
// @Summary Remove evaluation method and its items
// @Tags Evaluation
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/method [delete]
func (h *EvaluationHandler) DeleteMethod(c *gin.Context) {
	enrollment, err := h.methods.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, enrollment)
}

// ListAssessments godoc
// @Summary List assessment items
// @Tags Evaluation
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/assessments [get]
func (h *EvaluationHandler) ListAssessments(c *gin.Context) {
	items, err := h.assessments.List(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// CreateAssessment godoc
// @Summary Add assessment item
// @Tags Evaluation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Param payload body service.AssessmentRequest true "Assessment"
// @Success 201 {object} response.Envelope
// @Router /enrollments/{id}/assessments [post]
func (h *EvaluationHandler) CreateAssessment(c *gin.Context) {
	var req service.AssessmentRequest
	if !bindJSON(c, &req) {
		return
	}
	mutation, err := h.assessments.Create(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, mutation)
}

// UpdateAssessment godoc
// @Summary Replace assessment item
// @Tags Evaluation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param itemId path string true "Assessment item ID"
// @Param payload body service.AssessmentRequest true "Assessment"
// @Success 200 {object} response.Envelope
// @Router /assessments/{itemId} [put]
func (h *EvaluationHandler) UpdateAssessment(c *gin.Context) {
	var req service.AssessmentRequest
	if !bindJSON(c, &req) {
		return
	}
	mutation, err := h.assessments.Update(c.Request.Context(), claimsFromContext(c), c.Param("itemId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, mutation)
}

// GradeAssessment godoc
// @Summary Record or clear a score
// @Tags Evaluation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param itemId path string true "Assessment item ID"
// @Param payload body service.GradeRequest true "Score; null clears it"
// @Success 200 {object} response.Envelope
// @Router /assessments/{itemId}/score [put]
func (h *EvaluationHandler) GradeAssessment(c *gin.Context) {
	var req service.GradeRequest
	if !bindJSON(c, &req) {
		return
	}
	mutation, err := h.assessments.Grade(c.Request.Context(), claimsFromContext(c), c.Param("itemId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, mutation)
}

// DeleteAssessment godoc
// @Summary Delete assessment item
// @Tags Evaluation
// @Produce json
// @Security BearerAuth
// @Param itemId path string true "Assessment item ID"
// @Success 200 {object} response.Envelope
// @Router /assessments/{itemId} [delete]
func (h *EvaluationHandler) DeleteAssessment(c *gin.Context) {
	enrollment, err := h.assessments.Delete(c.Request.Context(), claimsFromContext(c), c.Param("itemId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, enrollment)
}

// Project godoc
// @Summary Score required on pending items to reach a target
// @Tags Evaluation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Param payload body service.ProjectionRequest true "Target"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /enrollments/{id}/projection [post]
func (h *EvaluationHandler) Project(c *gin.Context) {
	var req service.ProjectionRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.projections.Project(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Simulate godoc
// @Summary Average with a hypothetical score
// @Tags Evaluation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Param payload body service.SimulationRequest true "Hypothetical score"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/simulation [post]
func (h *EvaluationHandler) Simulate(c *gin.Context) {
	var req service.SimulationRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.projections.Simulate(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
