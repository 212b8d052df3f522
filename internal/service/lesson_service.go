package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/eduportal-api/internal/dto"
	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/repository"
	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
	"github.com/noah-isme/eduportal-api/pkg/validation"
)

type lessonStore interface {
	List(ctx context.Context, pred repository.Predicate, filter models.ListFilter) ([]models.Lesson, int, error)
	Get(ctx context.Context, pred repository.Predicate, id string) (*models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
}

// LessonService manages lessons inside the caller's class scope.
type LessonService struct {
	repo       lessonStore
	visibility *VisibilityService
	validator  *validation.Validator
	logger     *zap.Logger
}

// NewLessonService constructs LessonService.
func NewLessonService(repo lessonStore, visibility *VisibilityService, validate *validation.Validator, logger *zap.Logger) *LessonService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{repo: repo, visibility: visibility, validator: validate, logger: logger}
}

// List returns visible lessons, optionally for one class.
func (s *LessonService) List(ctx context.Context, p *Principal, filter models.ListFilter) ([]models.Lesson, *models.Pagination, error) {
	pred, err := s.visibility.Scope(p, models.EntityLesson)
	if err != nil {
		return nil, nil, err
	}
	lessons, total, err := s.repo.List(ctx, narrow(pred, filter, "l.class_id", ""), filter)
	if err != nil {
		return nil, nil, s.visibility.scopedError(p, models.EntityLesson, err, "failed to list lessons")
	}
	return lessons, pageOf(filter, total), nil
}

// Create adds a lesson to a class the teacher owns.
func (s *LessonService) Create(ctx context.Context, p *Principal, req dto.CreateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Check(req, "invalid lesson payload"); err != nil {
		return nil, err
	}
	if err := s.visibility.Require(p, models.EntityLesson, models.ActionCreate); err != nil {
		return nil, err
	}
	if err := s.visibility.Authorize(ctx, p, models.EntityClass, req.ClassID, models.ActionRead); err != nil {
		return nil, err
	}
	if p.TeacherProfileID == nil {
		return nil, s.visibility.deny(p, models.EntityLesson, "missing_profile")
	}
	lesson := &models.Lesson{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		VideoURL:    req.VideoURL,
		Attachments: req.Attachments,
		ClassID:     req.ClassID,
		TeacherID:   *p.TeacherProfileID,
		ScheduledAt: req.ScheduledAt,
		Published:   req.Published,
	}
	if lesson.Attachments == nil {
		lesson.Attachments = []string{}
	}
	if err := s.repo.Create(ctx, lesson); err != nil {
		return nil, appErrors.Internal(err, "failed to create lesson")
	}
	s.logger.Info("lesson created", zap.String("lesson_id", lesson.ID), zap.String("class_id", lesson.ClassID))
	return lesson, nil
}

// Update patches a visible lesson.
func (s *LessonService) Update(ctx context.Context, p *Principal, id string, req dto.UpdateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Check(req, "invalid lesson payload"); err != nil {
		return nil, err
	}
	if err := s.visibility.Authorize(ctx, p, models.EntityLesson, id, models.ActionUpdate); err != nil {
		return nil, err
	}
	pred, err := s.visibility.Scope(p, models.EntityLesson)
	if err != nil {
		return nil, err
	}
	lesson, err := s.repo.Get(ctx, pred, id)
	if err != nil {
		return nil, s.visibility.scopedError(p, models.EntityLesson, err, "failed to load lesson")
	}
	if req.Title != nil {
		lesson.Title = *req.Title
	}
	if req.Description != nil {
		lesson.Description = req.Description
	}
	if req.Content != nil {
		lesson.Content = *req.Content
	}
	if req.VideoURL != nil {
		lesson.VideoURL = req.VideoURL
	}
	if req.ScheduledAt != nil {
		lesson.ScheduledAt = req.ScheduledAt
	}
	if req.Published != nil {
		lesson.Published = *req.Published
	}
	if err := s.repo.Update(ctx, lesson); err != nil {
		return nil, s.visibility.scopedError(p, models.EntityLesson, err, "failed to update lesson")
	}
	return lesson, nil
}
