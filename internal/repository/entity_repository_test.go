package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduportal-api/internal/models"
)

func TestClassListAppliesPredicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "subject", "grade", "school_id", "teacher_id", "term", "year", "is_active", "created_at", "updated_at"}).
		AddRow("class-1", "6A Maths", "Mathematics", "Grade 6", "school-1", "tp-1", "T1", 2024, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM classes c WHERE c.teacher_id = $1 ORDER BY c.year DESC, c.name ASC LIMIT 20 OFFSET 0")).
		WithArgs("tp-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM classes c WHERE c.teacher_id = $1")).
		WithArgs("tp-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	classes, total, err := repo.List(context.Background(), Match("c.teacher_id = ?", "tp-1"), models.ListFilter{})
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "tp-1", classes[0].TeacherID)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassListWithoutPredicate(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	_, _, err := repo.List(context.Background(), Predicate{}, models.ListFilter{})
	assert.ErrorIs(t, err, ErrUnscoped)
}

func TestLessonUpdateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewLessonRepository(db)

	mock.ExpectExec("UPDATE lessons SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Lesson{ID: "missing", Title: "x"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceUpsertBatch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	classID := "class-1"
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO attendance").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO attendance").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	records := []models.Attendance{
		{StudentID: "sp-1", ClassID: &classID, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Status: models.AttendancePresent},
		{StudentID: "sp-2", ClassID: &classID, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Status: models.AttendanceLate},
	}
	require.NoError(t, repo.Upsert(context.Background(), records))
	assert.NotEmpty(t, records[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationMarkReadOutOfScope(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications n SET is_read = TRUE WHERE n.id = $1 AND n.user_id = $2")).
		WithArgs("n-1", "u2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkRead(context.Background(), Match("n.user_id = ?", "u2"), "n-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentListJoinsAccount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "school_id", "parent_id", "student_number", "grade", "subjects", "created_at", "first_name", "last_name"}).
		AddRow("sp-1", "u1", "school-1", "pp-1", "RIV2024001", "Grade 6", "{Mathematics,Science}", now, "A", "B")
	mock.ExpectQuery(regexp.QuoteMeta("FROM student_profiles sp JOIN users u ON u.id = sp.user_id WHERE sp.parent_id = $1 ORDER BY sp.student_number ASC")).
		WithArgs("pp-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM student_profiles sp JOIN users u")).
		WithArgs("pp-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), Match("sp.parent_id = ?", "pp-1"), models.ListFilter{})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "RIV2024001", students[0].StudentNumber)
	assert.Equal(t, "A", students[0].FirstName)
	assert.Equal(t, []string{"Mathematics", "Science"}, []string(students[0].Subjects))
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectExec("INSERT INTO assessments").WillReturnResult(sqlmock.NewResult(1, 1))

	item := &models.Assessment{Title: "Fractions quiz", Type: models.AssessmentMultipleChoice, Questions: []byte(`[]`), ClassID: "class-1", TeacherID: "tp-1", MaxAttempts: 1}
	require.NoError(t, repo.Create(context.Background(), item))
	assert.NotEmpty(t, item.ID)
	assert.False(t, item.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionLocksAssessmentBeforeCounting(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM assessments WHERE id = $1 FOR UPDATE")).
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM assessment_submissions WHERE assessment_id = $1 AND student_id = $2")).
		WithArgs("a-1", "sp-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec("INSERT INTO assessment_submissions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	sub := &models.AssessmentSubmission{AssessmentID: "a-1", StudentID: "sp-1"}
	require.NoError(t, repo.CreateSubmission(context.Background(), sub, 2))
	assert.NotEmpty(t, sub.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRejectedWhenAttemptsUsed(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a-1"))
	mock.ExpectQuery("SELECT COUNT").WithArgs("a-1", "sp-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	err := repo.CreateSubmission(context.Background(), &models.AssessmentSubmission{AssessmentID: "a-1", StudentID: "sp-1"}, 2)
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionUnlimitedAttemptsSkipsLock(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAssessmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO assessment_submissions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateSubmission(context.Background(), &models.AssessmentSubmission{AssessmentID: "a-1", StudentID: "sp-1"}, 0))
	assert.NoError(t, mock.ExpectationsWereMet())
}
