package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduportal-api/internal/models"
)

const lessonColumns = `l.id, l.title, l.description, l.content, l.video_url, l.attachments, l.class_id, l.teacher_id, l.scheduled_at, l.is_published, l.created_at, l.updated_at`

// LessonRepository handles persistence of lessons.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository creates a new instance of LessonRepository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// List returns visible lessons, newest scheduled first.
func (r *LessonRepository) List(ctx context.Context, pred Predicate, filter models.ListFilter) ([]models.Lesson, int, error) {
	if pred.Empty() {
		return nil, 0, ErrUnscoped
	}
	filter = filter.Normalize()
	listSQL, countSQL, args := listQuery(lessonColumns, models.EntityLesson, pred, "l.scheduled_at DESC NULLS LAST, l.created_at DESC", filter.PageSize, filter.Offset())

	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, listSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("list lessons: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("count lessons: %w", err)
	}
	return lessons, total, nil
}

// Get returns a lesson inside pred.
func (r *LessonRepository) Get(ctx context.Context, pred Predicate, id string) (*models.Lesson, error) {
	if pred.Empty() {
		return nil, ErrUnscoped
	}
	cond, args := pred.Clause(1)
	query := fmt.Sprintf("SELECT %s FROM lessons l WHERE l.id = $1 AND %s LIMIT 1", lessonColumns, cond)
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, append([]interface{}{id}, args...)...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	return &lesson, nil
}

// Create inserts a lesson.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	lesson.CreatedAt = now
	lesson.UpdatedAt = now
	const query = `INSERT INTO lessons (id, title, description, content, video_url, attachments, class_id, teacher_id, scheduled_at, is_published, created_at, updated_at) VALUES (:id, :title, :description, :content, :video_url, :attachments, :class_id, :teacher_id, :scheduled_at, :is_published, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// Update persists the mutable lesson fields.
func (r *LessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	lesson.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lessons SET title = :title, description = :description, content = :content, video_url = :video_url, scheduled_at = :scheduled_at, is_published = :is_published, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, lesson)
	if err != nil {
		return fmt.Errorf("update lesson: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
