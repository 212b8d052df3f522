package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/repository"
)

type studentReader interface {
	List(ctx context.Context, pred repository.Predicate, filter models.ListFilter) ([]models.StudentDetail, int, error)
}

// StudentService lists the student profiles a principal may see: children for
// parents, rosters for teachers, the school or district for admins and the
// student's own profile.
type StudentService struct {
	repo       studentReader
	visibility *VisibilityService
	logger     *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentReader, visibility *VisibilityService, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, visibility: visibility, logger: logger}
}

// List returns visible students, optionally restricted to one class roster.
func (s *StudentService) List(ctx context.Context, p *Principal, filter models.ListFilter) ([]models.StudentDetail, *models.Pagination, error) {
	pred, err := s.visibility.Scope(p, models.EntityStudent)
	if err != nil {
		return nil, nil, err
	}
	if filter.ClassID != "" {
		pred = pred.And(repository.Match("sp.id IN (SELECT ce.student_id FROM class_enrollments ce WHERE ce.class_id = ?)", filter.ClassID))
	}
	students, total, err := s.repo.List(ctx, pred, filter)
	if err != nil {
		return nil, nil, s.visibility.scopedError(p, models.EntityStudent, err, "failed to list students")
	}
	return students, pageOf(filter, total), nil
}
