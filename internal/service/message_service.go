package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/eduportal-api/internal/dto"
	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/repository"
	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
	"github.com/noah-isme/eduportal-api/pkg/validation"
)

const messageNotifyType = "MESSAGE"

type messageStore interface {
	ListMessages(ctx context.Context, pred repository.Predicate, filter models.ListFilter) ([]models.Message, int, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
}

type notificationWriter interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// MessageService sends and lists direct and class-wide messages.
type MessageService struct {
	repo       messageStore
	notifier   notificationWriter
	visibility *VisibilityService
	cache      *CacheService
	validator  *validation.Validator
	logger     *zap.Logger
}

// NewMessageService constructs MessageService.
func NewMessageService(repo messageStore, notifier notificationWriter, visibility *VisibilityService, cacheSvc *CacheService, validate *validation.Validator, logger *zap.Logger) *MessageService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{repo: repo, notifier: notifier, visibility: visibility, cache: cacheSvc, validator: validate, logger: logger}
}

// List returns messages the caller sent or received plus class-wide messages
// for classes in scope.
func (s *MessageService) List(ctx context.Context, p *Principal, filter models.ListFilter) ([]models.Message, *models.Pagination, error) {
	pred, err := s.visibility.Scope(p, models.EntityMessage)
	if err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.ListMessages(ctx, narrow(pred, filter, "m.class_id", ""), filter)
	if err != nil {
		return nil, nil, s.visibility.scopedError(p, models.EntityMessage, err, "failed to list messages")
	}
	return items, pageOf(filter, total), nil
}

// Send stores a message. A direct receiver must be one of the caller's
// contacts and a class must lie in the caller's class scope.
func (s *MessageService) Send(ctx context.Context, p *Principal, req dto.SendMessageRequest) (*models.Message, error) {
	if err := s.validator.Check(req, "invalid message payload"); err != nil {
		return nil, err
	}
	if err := s.visibility.Require(p, models.EntityMessage, models.ActionCreate); err != nil {
		return nil, err
	}
	if req.ReceiverID != nil {
		if *req.ReceiverID == p.AccountID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "cannot send a message to yourself")
		}
		if err := s.visibility.Authorize(ctx, p, models.EntityAccount, *req.ReceiverID, models.ActionRead); err != nil {
			return nil, err
		}
	}
	if req.ClassID != nil {
		if err := s.visibility.Authorize(ctx, p, models.EntityClass, *req.ClassID, models.ActionRead); err != nil {
			return nil, err
		}
	}

	msg := &models.Message{
		SenderID:   p.AccountID,
		ReceiverID: req.ReceiverID,
		ClassID:    req.ClassID,
		Title:      req.Title,
		Content:    req.Content,
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, appErrors.Internal(err, "failed to send message")
	}

	if msg.ReceiverID != nil {
		if err := s.notifier.CreateNotification(ctx, &models.Notification{
			UserID:  *msg.ReceiverID,
			Title:   fmt.Sprintf("New message: %s", msg.Title),
			Message: msg.Content,
			Type:    messageNotifyType,
		}); err != nil {
			s.logger.Warn("message notification failed", zap.String("message_id", msg.ID), zap.Error(err))
		} else {
			s.cache.Invalidate(ctx, dashboardCacheKey(*msg.ReceiverID))
		}
	}
	return msg, nil
}
