package models

import (
	"time"

	"github.com/lib/pq"
)

// Lesson is teaching material published to a class.
type Lesson struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Description *string        `db:"description" json:"description,omitempty"`
	Content     string         `db:"content" json:"content"`
	VideoURL    *string        `db:"video_url" json:"videoUrl,omitempty"`
	Attachments pq.StringArray `db:"attachments" json:"attachments"`
	ClassID     string         `db:"class_id" json:"classId"`
	TeacherID   string         `db:"teacher_id" json:"teacherId"`
	ScheduledAt *time.Time     `db:"scheduled_at" json:"scheduledAt,omitempty"`
	Published   bool           `db:"is_published" json:"isPublished"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}
