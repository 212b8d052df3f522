package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/service"
	"github.com/noah-isme/eduportal-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, p *service.Principal, filter models.ListFilter) ([]models.StudentDetail, *models.Pagination, error)
}

// StudentHandler exposes the student profiles visible to the caller.
type StudentHandler struct {
	service    studentService
	principals principalResolver
}

// NewStudentHandler constructs a student handler.
func NewStudentHandler(svc studentService, principals principalResolver) *StudentHandler {
	return &StudentHandler{service: svc, principals: principals}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param classId query string false "Restrict to one class roster"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	p, ok := currentPrincipal(c, h.principals)
	if !ok {
		return
	}
	students, pagination, err := h.service.List(c.Request.Context(), p, listFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}
