package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduportal-api/internal/dto"
	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/service"
	"github.com/noah-isme/eduportal-api/pkg/response"
)

type assessmentService interface {
	List(ctx context.Context, p *service.Principal, filter models.ListFilter) ([]models.Assessment, *models.Pagination, error)
	Create(ctx context.Context, p *service.Principal, req dto.CreateAssessmentRequest) (*models.Assessment, error)
	ListSubmissions(ctx context.Context, p *service.Principal, assessmentID string, filter models.ListFilter) ([]models.AssessmentSubmission, *models.Pagination, error)
	Submit(ctx context.Context, p *service.Principal, assessmentID string, req dto.SubmitAssessmentRequest) (*models.AssessmentSubmission, error)
	Grade(ctx context.Context, p *service.Principal, submissionID string, req dto.GradeSubmissionRequest) (*models.AssessmentSubmission, error)
}

// AssessmentHandler exposes assessments, submissions and grading.
type AssessmentHandler struct {
	service    assessmentService
	principals principalResolver
}

// NewAssessmentHandler constructs an assessment handler.
func NewAssessmentHandler(svc assessmentService, principals principalResolver) *AssessmentHandler {
	return &AssessmentHandler{service: svc, principals: principals}
}

// List godoc
// @Summary List assessments
// @Tags Assessments
// @Produce json
// @Security BearerAuth
// @Param classId query string false "Class ID"
// @Success 200 {object} response.Envelope
// @Router /assessments [get]
func (h *AssessmentHandler) List(c *gin.Context) {
	p, ok := currentPrincipal(c, h.principals)
	if !ok {
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), p, listFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Create godoc
// @Summary Create assessment
// @Tags Assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateAssessmentRequest true "Assessment payload"
// @Success 201 {object} response.Envelope
// @Router /assessments [post]
func (h *AssessmentHandler) Create(c *gin.Context) {
	p, ok := currentPrincipal(c, h.principals)
	if !ok {
		return
	}
	var req dto.CreateAssessmentRequest
	if !bindJSON(c, &req, "invalid assessment payload") {
		return
	}
	item, err := h.service.Create(c.Request.Context(), p, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Assessment created", item)
}

// ListSubmissions godoc
// @Summary List submissions of an assessment
// @Tags Assessments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Router /assessments/{id}/submissions [get]
func (h *AssessmentHandler) ListSubmissions(c *gin.Context) {
	p, ok := currentPrincipal(c, h.principals)
	if !ok {
		return
	}
	items, pagination, err := h.service.ListSubmissions(c.Request.Context(), p, c.Param("id"), listFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Submit godoc
// @Summary Submit answers
// @Tags Assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Assessment ID"
// @Param payload body dto.SubmitAssessmentRequest true "Answers"
// @Success 201 {object} response.Envelope
// @Router /assessments/{id}/submissions [post]
func (h *AssessmentHandler) Submit(c *gin.Context) {
	p, ok := currentPrincipal(c, h.principals)
	if !ok {
		return
	}
	var req dto.SubmitAssessmentRequest
	if !bindJSON(c, &req, "invalid submission payload") {
		return
	}
	sub, err := h.service.Submit(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Submission received", sub)
}

// Grade godoc
// @Summary Grade a submission
// @Tags Assessments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Submission ID"
// @Param payload body dto.GradeSubmissionRequest true "Grade"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/grade [put]
func (h *AssessmentHandler) Grade(c *gin.Context) {
	p, ok := currentPrincipal(c, h.principals)
	if !ok {
		return
	}
	var req dto.GradeSubmissionRequest
	if !bindJSON(c, &req, "invalid grade payload") {
		return
	}
	sub, err := h.service.Grade(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sub, nil)
}
