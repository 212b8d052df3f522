package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/service"
	"github.com/noah-isme/eduportal-api/pkg/response"
)

type classService interface {
	List(ctx context.Context, p *service.Principal, filter models.ListFilter) ([]models.Class, *models.Pagination, error)
	Get(ctx context.Context, p *service.Principal, id string) (*models.Class, error)
}

// ClassHandler exposes the classes visible to the caller.
type ClassHandler struct {
	service    classService
	principals principalResolver
}

// NewClassHandler constructs a class handler.
func NewClassHandler(svc classService, principals principalResolver) *ClassHandler {
	return &ClassHandler{service: svc, principals: principals}
}

// List godoc
// @Summary List classes
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	p, ok := currentPrincipal(c, h.principals)
	if !ok {
		return
	}
	classes, pagination, err := h.service.List(c.Request.Context(), p, listFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// Get godoc
// @Summary Get class
// @Tags Classes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	p, ok := currentPrincipal(c, h.principals)
	if !ok {
		return
	}
	class, err := h.service.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}
