package models

// EntityType names a shared entity whose rows are filtered by role scope.
type EntityType string

const (
	EntityClass        EntityType = "class"
	EntityLesson       EntityType = "lesson"
	EntityAssessment   EntityType = "assessment"
	EntitySubmission   EntityType = "submission"
	EntityAttendance   EntityType = "attendance"
	EntityNotification EntityType = "notification"
	EntityMessage      EntityType = "message"
	EntityStudent      EntityType = "student"
	EntityEnrollment   EntityType = "enrollment"
	EntityAccount      EntityType = "account"
)

// Action distinguishes reads from writes when authorizing a row.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// ListFilter is the shared paging/filter input of scoped list operations.
type ListFilter struct {
	ClassID   string
	StudentID string
	Page      int
	PageSize  int
}

// Normalize clamps paging to sane bounds.
func (f ListFilter) Normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 || f.PageSize > 100 {
		f.PageSize = 20
	}
	return f
}

// Offset returns the row offset for the current page.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
