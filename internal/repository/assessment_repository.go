package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/pkg/database"
)

// ErrAttemptsExhausted is returned when a student has used every allowed attempt.
var ErrAttemptsExhausted = errors.New("submission attempts exhausted")

const (
	assessmentColumns = `a.id, a.title, a.description, a.type, a.questions, a.class_id, a.teacher_id, a.due_date, a.time_limit, a.max_attempts, a.is_published, a.created_at, a.updated_at`
	submissionColumns = `s.id, s.assessment_id, s.student_id, s.answers, s.score, s.feedback, s.submitted_at, s.graded_at`
)

// AssessmentRepository handles assessments and their submissions.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository creates a new instance of AssessmentRepository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// List returns visible assessments ordered by due date.
func (r *AssessmentRepository) List(ctx context.Context, pred Predicate, filter models.ListFilter) ([]models.Assessment, int, error) {
	if pred.Empty() {
		return nil, 0, ErrUnscoped
	}
	filter = filter.Normalize()
	listSQL, countSQL, args := listQuery(assessmentColumns, models.EntityAssessment, pred, "a.due_date ASC NULLS LAST, a.created_at DESC", filter.PageSize, filter.Offset())

	var items []models.Assessment
	if err := r.db.SelectContext(ctx, &items, listSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("list assessments: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("count assessments: %w", err)
	}
	return items, total, nil
}

// Get returns an assessment inside pred.
func (r *AssessmentRepository) Get(ctx context.Context, pred Predicate, id string) (*models.Assessment, error) {
	if pred.Empty() {
		return nil, ErrUnscoped
	}
	cond, args := pred.Clause(1)
	query := fmt.Sprintf("SELECT %s FROM assessments a WHERE a.id = $1 AND %s LIMIT 1", assessmentColumns, cond)
	var item models.Assessment
	if err := r.db.GetContext(ctx, &item, query, append([]interface{}{id}, args...)...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get assessment: %w", err)
	}
	return &item, nil
}

// Create inserts an assessment.
func (r *AssessmentRepository) Create(ctx context.Context, item *models.Assessment) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	const query = `INSERT INTO assessments (id, title, description, type, questions, class_id, teacher_id, due_date, time_limit, max_attempts, is_published, created_at, updated_at) VALUES (:id, :title, :description, :type, :questions, :class_id, :teacher_id, :due_date, :time_limit, :max_attempts, :is_published, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create assessment: %w", err)
	}
	return nil
}

// ListSubmissions returns visible submissions, latest first.
func (r *AssessmentRepository) ListSubmissions(ctx context.Context, pred Predicate, filter models.ListFilter) ([]models.AssessmentSubmission, int, error) {
	if pred.Empty() {
		return nil, 0, ErrUnscoped
	}
	filter = filter.Normalize()
	listSQL, countSQL, args := listQuery(submissionColumns, models.EntitySubmission, pred, "s.submitted_at DESC", filter.PageSize, filter.Offset())

	var items []models.AssessmentSubmission
	if err := r.db.SelectContext(ctx, &items, listSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}
	return items, total, nil
}

// CreateSubmission inserts a submission unless the student already has
// maxAttempts submissions for the assessment. The assessment row is locked for
// the count and the insert, so concurrent attempts are serialised. A
// maxAttempts of zero means unlimited.
func (r *AssessmentRepository) CreateSubmission(ctx context.Context, sub *models.AssessmentSubmission, maxAttempts int) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}
	const (
		lockSQL   = `SELECT id FROM assessments WHERE id = $1 FOR UPDATE`
		countSQL  = `SELECT COUNT(*) FROM assessment_submissions WHERE assessment_id = $1 AND student_id = $2`
		insertSQL = `INSERT INTO assessment_submissions (id, assessment_id, student_id, answers, submitted_at) VALUES (:id, :assessment_id, :student_id, :answers, :submitted_at)`
	)
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if maxAttempts > 0 {
			var locked string
			if err := tx.GetContext(ctx, &locked, lockSQL, sub.AssessmentID); err != nil {
				return fmt.Errorf("lock assessment: %w", err)
			}
			var attempts int
			if err := tx.GetContext(ctx, &attempts, countSQL, sub.AssessmentID, sub.StudentID); err != nil {
				return fmt.Errorf("count attempts: %w", err)
			}
			if attempts >= maxAttempts {
				return ErrAttemptsExhausted
			}
		}
		if _, err := tx.NamedExecContext(ctx, insertSQL, sub); err != nil {
			return fmt.Errorf("create submission: %w", err)
		}
		return nil
	})
}

// GetSubmission returns one submission inside pred.
func (r *AssessmentRepository) GetSubmission(ctx context.Context, pred Predicate, id string) (*models.AssessmentSubmission, error) {
	if pred.Empty() {
		return nil, ErrUnscoped
	}
	cond, args := pred.Clause(1)
	query := fmt.Sprintf("SELECT %s FROM assessment_submissions s WHERE s.id = $1 AND %s LIMIT 1", submissionColumns, cond)
	var sub models.AssessmentSubmission
	if err := r.db.GetContext(ctx, &sub, query, append([]interface{}{id}, args...)...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return &sub, nil
}

// GradeSubmission stores the score and feedback.
func (r *AssessmentRepository) GradeSubmission(ctx context.Context, id string, score float64, feedback *string, gradedAt time.Time) error {
	const query = `UPDATE assessment_submissions SET score = $2, feedback = $3, graded_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, score, feedback, gradedAt)
	if err != nil {
		return fmt.Errorf("grade submission: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
