package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionRegister         = "USER_REGISTER"
	AuditActionLogin            = "LOGIN"
	AuditActionLessonCreate     = "LESSON_CREATE"
	AuditActionLessonUpdate     = "LESSON_UPDATE"
	AuditActionAssessmentCreate = "ASSESSMENT_CREATE"
	AuditActionSubmit           = "SUBMISSION_CREATE"
	AuditActionGrade            = "SUBMISSION_GRADE"
	AuditActionAttendance       = "ATTENDANCE_MARK"
	AuditActionMessageSend      = "MESSAGE_SEND"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"userId,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resourceId,omitempty"`
	NewValues  []byte    `db:"new_values" json:"newValues,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ipAddress"`
	UserAgent  string    `db:"user_agent" json:"userAgent"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
