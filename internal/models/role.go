package models

// UserRole is the closed set of account roles. The external spelling is part
// of the API contract and is case-sensitive.
type UserRole string

const (
	RoleTeacher       UserRole = "TEACHER"
	RoleParent        UserRole = "PARENT"
	RoleStudent       UserRole = "STUDENT"
	RoleSchoolAdmin   UserRole = "SCHOOL_ADMIN"
	RoleDistrictAdmin UserRole = "DISTRICT_ADMIN"
)

// AllRoles lists every role in a stable order.
func AllRoles() []UserRole {
	return []UserRole{RoleTeacher, RoleParent, RoleStudent, RoleSchoolAdmin, RoleDistrictAdmin}
}

// Valid reports whether r is one of the five known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleTeacher, RoleParent, RoleStudent, RoleSchoolAdmin, RoleDistrictAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether r is an administrative role scoped by school or district.
func (r UserRole) IsAdmin() bool {
	return r == RoleSchoolAdmin || r == RoleDistrictAdmin
}
