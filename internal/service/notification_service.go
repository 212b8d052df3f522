package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/repository"
)

type notificationStore interface {
	List(ctx context.Context, pred repository.Predicate, filter models.ListFilter) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, pred repository.Predicate, id string) error
}

// NotificationService exposes the notifications addressed to the caller.
type NotificationService struct {
	repo       notificationStore
	visibility *VisibilityService
	cache      *CacheService
	logger     *zap.Logger
}

// NewNotificationService constructs NotificationService.
func NewNotificationService(repo notificationStore, visibility *VisibilityService, cacheSvc *CacheService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, visibility: visibility, cache: cacheSvc, logger: logger}
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, p *Principal, filter models.ListFilter) ([]models.Notification, *models.Pagination, error) {
	pred, err := s.visibility.Scope(p, models.EntityNotification)
	if err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.List(ctx, pred, filter)
	if err != nil {
		return nil, nil, s.visibility.scopedError(p, models.EntityNotification, err, "failed to list notifications")
	}
	return items, pageOf(filter, total), nil
}

// MarkRead flags one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, p *Principal, id string) error {
	if err := s.visibility.Require(p, models.EntityNotification, models.ActionUpdate); err != nil {
		return err
	}
	pred, err := s.visibility.Scope(p, models.EntityNotification)
	if err != nil {
		return err
	}
	if err := s.repo.MarkRead(ctx, pred, id); err != nil {
		return s.visibility.scopedError(p, models.EntityNotification, err, "failed to update notification")
	}
	s.cache.Invalidate(ctx, dashboardCacheKey(p.AccountID))
	return nil
}
