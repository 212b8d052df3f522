package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/repository"
)

type classReader interface {
	List(ctx context.Context, pred repository.Predicate, filter models.ListFilter) ([]models.Class, int, error)
	Get(ctx context.Context, pred repository.Predicate, id string) (*models.Class, error)
}

// ClassService lists the classes visible to a principal.
type ClassService struct {
	repo       classReader
	visibility *VisibilityService
	logger     *zap.Logger
}

// NewClassService constructs ClassService.
func NewClassService(repo classReader, visibility *VisibilityService, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, visibility: visibility, logger: logger}
}

// List returns classes with pagination metadata.
func (s *ClassService) List(ctx context.Context, p *Principal, filter models.ListFilter) ([]models.Class, *models.Pagination, error) {
	pred, err := s.visibility.Scope(p, models.EntityClass)
	if err != nil {
		return nil, nil, err
	}
	pred = narrow(pred, filter, "c.id", "")
	classes, total, err := s.repo.List(ctx, pred, filter)
	if err != nil {
		return nil, nil, s.visibility.scopedError(p, models.EntityClass, err, "failed to list classes")
	}
	return classes, pageOf(filter, total), nil
}

// Get returns one visible class.
func (s *ClassService) Get(ctx context.Context, p *Principal, id string) (*models.Class, error) {
	pred, err := s.visibility.Scope(p, models.EntityClass)
	if err != nil {
		return nil, err
	}
	class, err := s.repo.Get(ctx, pred, id)
	if err != nil {
		return nil, s.visibility.scopedError(p, models.EntityClass, err, "failed to load class")
	}
	return class, nil
}
