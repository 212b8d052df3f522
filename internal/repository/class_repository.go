package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduportal-api/internal/models"
)

const classColumns = `c.id, c.name, c.subject, c.grade, c.school_id, c.teacher_id, c.term, c.year, c.is_active, c.created_at, c.updated_at`

// ClassRepository reads classes through a visibility predicate.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new instance of ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns the page of classes matching pred and the total count.
func (r *ClassRepository) List(ctx context.Context, pred Predicate, filter models.ListFilter) ([]models.Class, int, error) {
	if pred.Empty() {
		return nil, 0, ErrUnscoped
	}
	filter = filter.Normalize()
	listSQL, countSQL, args := listQuery(classColumns, models.EntityClass, pred, "c.year DESC, c.name ASC", filter.PageSize, filter.Offset())

	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, listSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// Get returns one class if it is inside pred.
func (r *ClassRepository) Get(ctx context.Context, pred Predicate, id string) (*models.Class, error) {
	if pred.Empty() {
		return nil, ErrUnscoped
	}
	cond, args := pred.Clause(1)
	query := fmt.Sprintf("SELECT %s FROM classes c WHERE c.id = $1 AND %s LIMIT 1", classColumns, cond)
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, append([]interface{}{id}, args...)...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get class: %w", err)
	}
	return &class, nil
}
