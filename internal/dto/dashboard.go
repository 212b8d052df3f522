package dto

import "github.com/noah-isme/eduportal-api/internal/models"

// DashboardSummary aggregates the counts visible to one account.
type DashboardSummary struct {
	Role                models.UserRole `json:"role"`
	Classes             int             `json:"classes"`
	Lessons             int             `json:"lessons"`
	Assessments         int             `json:"assessments"`
	PendingSubmissions  int             `json:"pendingSubmissions"`
	AttendanceRate      float64         `json:"attendanceRate"`
	UnreadNotifications int             `json:"unreadNotifications"`
	Students            int             `json:"students"`
}
