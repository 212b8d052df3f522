package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/eduportal-api/internal/models"
)

// CreateLessonRequest publishes a lesson to a class.
type CreateLessonRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description,omitempty"`
	Content     string     `json:"content" validate:"required"`
	VideoURL    *string    `json:"videoUrl,omitempty" validate:"omitempty,url"`
	Attachments []string   `json:"attachments,omitempty"`
	ClassID     string     `json:"classId" validate:"required"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	Published   bool       `json:"isPublished"`
}

// UpdateLessonRequest patches a lesson; nil fields are left untouched.
type UpdateLessonRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1"`
	Description *string    `json:"description,omitempty"`
	Content     *string    `json:"content,omitempty"`
	VideoURL    *string    `json:"videoUrl,omitempty" validate:"omitempty,url"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	Published   *bool      `json:"isPublished,omitempty"`
}

// SubmitAssessmentRequest carries a student's answers.
type SubmitAssessmentRequest struct {
	Answers json.RawMessage `json:"answers" validate:"required"`
}

// GradeSubmissionRequest scores a submission.
type GradeSubmissionRequest struct {
	Score    float64 `json:"score" validate:"gte=0"`
	Feedback *string `json:"feedback,omitempty"`
}

// MarkAttendanceRequest records attendance for a batch of students in one class.
type MarkAttendanceRequest struct {
	ClassID  string                `json:"classId" validate:"required"`
	LessonID *string               `json:"lessonId,omitempty"`
	Date     string                `json:"date" validate:"required,datetime=2006-01-02"`
	Entries  []AttendanceEntryItem `json:"entries" validate:"required,min=1,dive"`
}

// AttendanceEntryItem is one student's status.
type AttendanceEntryItem struct {
	StudentID string                  `json:"studentId" validate:"required"`
	Status    models.AttendanceStatus `json:"status" validate:"required,oneof=PRESENT ABSENT LATE EXCUSED"`
	Notes     *string                 `json:"notes,omitempty"`
}

// SendMessageRequest addresses either one account or a whole class, never both.
type SendMessageRequest struct {
	ReceiverID *string `json:"receiverId,omitempty" validate:"required_without=ClassID,excluded_with=ClassID"`
	ClassID    *string `json:"classId,omitempty" validate:"required_without=ReceiverID,excluded_with=ReceiverID"`
	Title      string  `json:"title" validate:"required"`
	Content    string  `json:"content" validate:"required"`
}

// AttendanceQuery filters attendance listings and exports.
type AttendanceQuery struct {
	ClassID   string
	StudentID string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// CreateAssessmentRequest attaches an assessment to a class.
type CreateAssessmentRequest struct {
	Title       string                `json:"title" validate:"required"`
	Description *string               `json:"description,omitempty"`
	Type        models.AssessmentType `json:"type" validate:"required,oneof=MULTIPLE_CHOICE SHORT_ANSWER FILE_UPLOAD ESSAY"`
	Questions   json.RawMessage       `json:"questions" validate:"required"`
	ClassID     string                `json:"classId" validate:"required"`
	DueDate     *time.Time            `json:"dueDate,omitempty"`
	TimeLimit   *int                  `json:"timeLimit,omitempty" validate:"omitempty,min=1"`
	MaxAttempts int                   `json:"maxAttempts" validate:"omitempty,min=1"`
	Published   bool                  `json:"isPublished"`
}
