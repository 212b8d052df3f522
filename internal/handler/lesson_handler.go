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

type lessonService interface {
	List(ctx context.Context, p *service.Principal, filter models.ListFilter) ([]models.Lesson, *models.Pagination, error)
	Create(ctx context.Context, p *service.Principal, req dto.CreateLessonRequest) (*models.Lesson, error)
	Update(ctx context.Context, p *service.Principal, id string, req dto.UpdateLessonRequest) (*models.Lesson, error)
}

// LessonHandler exposes lesson endpoints.
type LessonHandler struct {
	service    lessonService
	principals principalResolver
}

// NewLessonHandler constructs a lesson handler.
func NewLessonHandler(svc lessonService, principals principalResolver) *LessonHandler {
	return &LessonHandler{service: svc, principals: principals}
}

// List godoc
// @Summary List lessons
// @Tags Lessons
// @Produce json
// @Security BearerAuth
// @Param classId query string false "Class ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /lessons [get]
func (h *LessonHandler) List(c *gin.Context) {
	p, ok := currentPrincipal(c, h.principals)
	if !ok {
		return
	}
	lessons, pagination, err := h.service.List(c.Request.Context(), p, listFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, pagination)
}

// Create godoc
// @Summary Create lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateLessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	p, ok := currentPrincipal(c, h.principals)
	if !ok {
		return
	}
	var req dto.CreateLessonRequest
	if !bindJSON(c, &req, "invalid lesson payload") {
		return
	}
	lesson, err := h.service.Create(c.Request.Context(), p, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Lesson created", lesson)
}

// Update godoc
// @Summary Update lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lesson ID"
// @Param payload body dto.UpdateLessonRequest true "Lesson changes"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /lessons/{id} [put]
func (h *LessonHandler) Update(c *gin.Context) {
	p, ok := currentPrincipal(c, h.principals)
	if !ok {
		return
	}
	var req dto.UpdateLessonRequest
	if !bindJSON(c, &req, "invalid lesson payload") {
		return
	}
	lesson, err := h.service.Update(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}
