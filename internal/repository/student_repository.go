package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduportal-api/internal/models"
)

const studentColumns = `sp.id, sp.user_id, sp.school_id, sp.parent_id, sp.student_number, sp.grade, sp.subjects, sp.created_at, u.first_name, u.last_name`

// StudentRepository reads student profiles joined with their accounts.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository creates a new instance of StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns visible students ordered by student number.
func (r *StudentRepository) List(ctx context.Context, pred Predicate, filter models.ListFilter) ([]models.StudentDetail, int, error) {
	if pred.Empty() {
		return nil, 0, ErrUnscoped
	}
	filter = filter.Normalize()
	cond, args := pred.Clause(0)
	from := "FROM student_profiles sp JOIN users u ON u.id = sp.user_id WHERE " + cond
	listSQL := fmt.Sprintf("SELECT %s %s ORDER BY sp.student_number ASC LIMIT %d OFFSET %d", studentColumns, from, filter.PageSize, filter.Offset())

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, listSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+from, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}
