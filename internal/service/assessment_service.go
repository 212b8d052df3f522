package service

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/eduportal-api/internal/dto"
	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/repository"
	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
	"github.com/noah-isme/eduportal-api/pkg/validation"
)

type assessmentStore interface {
	List(ctx context.Context, pred repository.Predicate, filter models.ListFilter) ([]models.Assessment, int, error)
	Get(ctx context.Context, pred repository.Predicate, id string) (*models.Assessment, error)
	Create(ctx context.Context, item *models.Assessment) error
	ListSubmissions(ctx context.Context, pred repository.Predicate, filter models.ListFilter) ([]models.AssessmentSubmission, int, error)
	CreateSubmission(ctx context.Context, sub *models.AssessmentSubmission, maxAttempts int) error
	GetSubmission(ctx context.Context, pred repository.Predicate, id string) (*models.AssessmentSubmission, error)
	GradeSubmission(ctx context.Context, id string, score float64, feedback *string, gradedAt time.Time) error
}

// AssessmentService covers assessments, student submissions and grading.
type AssessmentService struct {
	repo       assessmentStore
	visibility *VisibilityService
	validator  *validation.Validator
	now        func() time.Time
	logger     *zap.Logger
}

// NewAssessmentService constructs AssessmentService.
func NewAssessmentService(repo assessmentStore, visibility *VisibilityService, validate *validation.Validator, now func() time.Time, logger *zap.Logger) *AssessmentService {
	if validate == nil {
		validate = validation.New()
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{repo: repo, visibility: visibility, validator: validate, now: now, logger: logger}
}

// List returns visible assessments.
func (s *AssessmentService) List(ctx context.Context, p *Principal, filter models.ListFilter) ([]models.Assessment, *models.Pagination, error) {
	pred, err := s.visibility.Scope(p, models.EntityAssessment)
	if err != nil {
		return nil, nil, err
	}
	items, total, err := s.repo.List(ctx, narrow(pred, filter, "a.class_id", ""), filter)
	if err != nil {
		return nil, nil, s.visibility.scopedError(p, models.EntityAssessment, err, "failed to list assessments")
	}
	return items, pageOf(filter, total), nil
}

// Create attaches an assessment to one of the teacher's classes.
func (s *AssessmentService) Create(ctx context.Context, p *Principal, req dto.CreateAssessmentRequest) (*models.Assessment, error) {
	if err := s.validator.Check(req, "invalid assessment payload"); err != nil {
		return nil, err
	}
	if err := s.visibility.Require(p, models.EntityAssessment, models.ActionCreate); err != nil {
		return nil, err
	}
	if err := s.visibility.Authorize(ctx, p, models.EntityClass, req.ClassID, models.ActionRead); err != nil {
		return nil, err
	}
	if p.TeacherProfileID == nil {
		return nil, s.visibility.deny(p, models.EntityAssessment, "missing_profile")
	}
	maxAttempts := req.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 1
	}
	item := &models.Assessment{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		Questions:   types.JSONText(req.Questions),
		ClassID:     req.ClassID,
		TeacherID:   *p.TeacherProfileID,
		DueDate:     req.DueDate,
		TimeLimit:   req.TimeLimit,
		MaxAttempts: maxAttempts,
		Published:   req.Published,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Internal(err, "failed to create assessment")
	}
	return item, nil
}

// ListSubmissions returns the visible submissions of one assessment.
func (s *AssessmentService) ListSubmissions(ctx context.Context, p *Principal, assessmentID string, filter models.ListFilter) ([]models.AssessmentSubmission, *models.Pagination, error) {
	if err := s.visibility.Authorize(ctx, p, models.EntityAssessment, assessmentID, models.ActionRead); err != nil {
		return nil, nil, err
	}
	pred, err := s.visibility.Scope(p, models.EntitySubmission)
	if err != nil {
		return nil, nil, err
	}
	pred = narrow(pred.And(repository.Match("s.assessment_id = ?", assessmentID)), filter, "", "s.student_id")
	items, total, err := s.repo.ListSubmissions(ctx, pred, filter)
	if err != nil {
		return nil, nil, s.visibility.scopedError(p, models.EntitySubmission, err, "failed to list submissions")
	}
	return items, pageOf(filter, total), nil
}

// Submit records a student's attempt at a visible, published assessment.
func (s *AssessmentService) Submit(ctx context.Context, p *Principal, assessmentID string, req dto.SubmitAssessmentRequest) (*models.AssessmentSubmission, error) {
	if err := s.validator.Check(req, "invalid submission payload"); err != nil {
		return nil, err
	}
	if err := s.visibility.Require(p, models.EntitySubmission, models.ActionCreate); err != nil {
		return nil, err
	}
	pred, err := s.visibility.Scope(p, models.EntityAssessment)
	if err != nil {
		return nil, err
	}
	assessment, err := s.repo.Get(ctx, pred, assessmentID)
	if err != nil {
		return nil, s.visibility.scopedError(p, models.EntityAssessment, err, "failed to load assessment")
	}
	now := s.now().UTC()
	if assessment.DueDate != nil && now.After(*assessment.DueDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Assessment is past its due date")
	}
	sub := &models.AssessmentSubmission{
		AssessmentID: assessmentID,
		StudentID:    *p.StudentProfileID,
		Answers:      types.JSONText(req.Answers),
		SubmittedAt:  now,
	}
	if err := s.repo.CreateSubmission(ctx, sub, assessment.MaxAttempts); err != nil {
		if errors.Is(err, repository.ErrAttemptsExhausted) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Maximum attempts reached")
		}
		return nil, appErrors.Internal(err, "failed to store submission")
	}
	return sub, nil
}

// Grade scores a submission inside the grader's scope.
func (s *AssessmentService) Grade(ctx context.Context, p *Principal, submissionID string, req dto.GradeSubmissionRequest) (*models.AssessmentSubmission, error) {
	if err := s.validator.Check(req, "invalid grade payload"); err != nil {
		return nil, err
	}
	if err := s.visibility.Authorize(ctx, p, models.EntitySubmission, submissionID, models.ActionUpdate); err != nil {
		return nil, err
	}
	gradedAt := s.now().UTC()
	if err := s.repo.GradeSubmission(ctx, submissionID, req.Score, req.Feedback, gradedAt); err != nil {
		return nil, s.visibility.scopedError(p, models.EntitySubmission, err, "failed to grade submission")
	}
	pred, err := s.visibility.Scope(p, models.EntitySubmission)
	if err != nil {
		return nil, err
	}
	sub, err := s.repo.GetSubmission(ctx, pred, submissionID)
	if err != nil {
		return nil, s.visibility.scopedError(p, models.EntitySubmission, err, "failed to load submission")
	}
	return sub, nil
}
