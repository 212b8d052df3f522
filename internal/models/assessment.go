package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// AssessmentType enumerates assessment formats.
type AssessmentType string

const (
	AssessmentMultipleChoice AssessmentType = "MULTIPLE_CHOICE"
	AssessmentShortAnswer    AssessmentType = "SHORT_ANSWER"
	AssessmentFileUpload     AssessmentType = "FILE_UPLOAD"
	AssessmentEssay          AssessmentType = "ESSAY"
)

// Assessment is a graded task attached to a class.
type Assessment struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Description *string        `db:"description" json:"description,omitempty"`
	Type        AssessmentType `db:"type" json:"type"`
	Questions   types.JSONText `db:"questions" json:"questions"`
	ClassID     string         `db:"class_id" json:"classId"`
	TeacherID   string         `db:"teacher_id" json:"teacherId"`
	DueDate     *time.Time     `db:"due_date" json:"dueDate,omitempty"`
	TimeLimit   *int           `db:"time_limit" json:"timeLimit,omitempty"`
	MaxAttempts int            `db:"max_attempts" json:"maxAttempts"`
	Published   bool           `db:"is_published" json:"isPublished"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// AssessmentSubmission is a student's answer set for an assessment.
type AssessmentSubmission struct {
	ID           string         `db:"id" json:"id"`
	AssessmentID string         `db:"assessment_id" json:"assessmentId"`
	StudentID    string         `db:"student_id" json:"studentId"`
	Answers      types.JSONText `db:"answers" json:"answers"`
	Score        *float64       `db:"score" json:"score,omitempty"`
	Feedback     *string        `db:"feedback" json:"feedback,omitempty"`
	SubmittedAt  time.Time      `db:"submitted_at" json:"submittedAt"`
	GradedAt     *time.Time     `db:"graded_at" json:"gradedAt,omitempty"`
}
