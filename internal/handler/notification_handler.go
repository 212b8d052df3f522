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

type notificationService interface {
	List(ctx context.Context, p *service.Principal, filter models.ListFilter) ([]models.Notification, *models.Pagination, error)
	MarkRead(ctx context.Context, p *service.Principal, id string) error
}

type messageService interface {
	List(ctx context.Context, p *service.Principal, filter models.ListFilter) ([]models.Message, *models.Pagination, error)
	Send(ctx context.Context, p *service.Principal, req dto.SendMessageRequest) (*models.Message, error)
}

// NotificationHandler exposes notifications and messages.
type NotificationHandler struct {
	notifications notificationService
	messages      messageService
	principals    principalResolver
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(notifications notificationService, messages messageService, principals principalResolver) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, messages: messages, principals: principals}
}

// List godoc
// @Summary List notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	p, ok := currentPrincipal(c, h.principals)
	if !ok {
		return
	}
	items, pagination, err := h.notifications.List(c.Request.Context(), p, listFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// MarkRead godoc
// @Summary Mark notification as read
// @Tags Notifications
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Router /notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	p, ok := currentPrincipal(c, h.principals)
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), p, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListMessages godoc
// @Summary List messages
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param classId query string false "Class ID"
// @Success 200 {object} response.Envelope
// @Router /messages [get]
func (h *NotificationHandler) ListMessages(c *gin.Context) {
	p, ok := currentPrincipal(c, h.principals)
	if !ok {
		return
	}
	items, pagination, err := h.messages.List(c.Request.Context(), p, listFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// SendMessage godoc
// @Summary Send a message
// @Tags Messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.SendMessageRequest true "Message"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /messages [post]
func (h *NotificationHandler) SendMessage(c *gin.Context) {
	p, ok := currentPrincipal(c, h.principals)
	if !ok {
		return
	}
	var req dto.SendMessageRequest
	if !bindJSON(c, &req, "invalid message payload") {
		return
	}
	msg, err := h.messages.Send(c.Request.Context(), p, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Message sent", msg)
}
