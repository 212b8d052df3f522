package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/pkg/database"
)

const attendanceColumns = `at.id, at.student_id, at.class_id, at.lesson_id, at.date, at.status, at.notes, at.created_at, at.updated_at`

// exportLimit caps the rows rendered by one attendance export.
const exportLimit = 10000

// AttendanceRepository handles attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new instance of AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// List returns visible attendance rows, newest date first.
func (r *AttendanceRepository) List(ctx context.Context, pred Predicate, filter models.ListFilter) ([]models.Attendance, int, error) {
	if pred.Empty() {
		return nil, 0, ErrUnscoped
	}
	filter = filter.Normalize()
	listSQL, countSQL, args := listQuery(attendanceColumns, models.EntityAttendance, pred, "at.date DESC, at.student_id ASC", filter.PageSize, filter.Offset())

	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, listSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countSQL, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return rows, total, nil
}

// Export returns every visible row up to the export cap.
func (r *AttendanceRepository) Export(ctx context.Context, pred Predicate) ([]models.Attendance, error) {
	if pred.Empty() {
		return nil, ErrUnscoped
	}
	listSQL, _, args := listQuery(attendanceColumns, models.EntityAttendance, pred, "at.date ASC, at.student_id ASC", exportLimit, 0)
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, listSQL, args...); err != nil {
		return nil, fmt.Errorf("export attendance: %w", err)
	}
	return rows, nil
}

// Upsert writes a batch of attendance rows in one transaction. A second mark
// for the same student, class and date replaces the status.
func (r *AttendanceRepository) Upsert(ctx context.Context, records []models.Attendance) error {
	const query = `INSERT INTO attendance (id, student_id, class_id, lesson_id, date, status, notes, created_at, updated_at)
VALUES (:id, :student_id, :class_id, :lesson_id, :date, :status, :notes, :created_at, :updated_at)
ON CONFLICT (student_id, class_id, date) DO UPDATE SET status = EXCLUDED.status, notes = EXCLUDED.notes, lesson_id = EXCLUDED.lesson_id, updated_at = EXCLUDED.updated_at`
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()
		for i := range records {
			rec := &records[i]
			if rec.ID == "" {
				rec.ID = uuid.NewString()
			}
			rec.CreatedAt = now
			rec.UpdatedAt = now
			if _, err := tx.NamedExecContext(ctx, query, rec); err != nil {
				return fmt.Errorf("upsert attendance: %w", err)
			}
		}
		return nil
	})
}
