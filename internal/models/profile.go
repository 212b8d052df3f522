package models

import (
	"time"

	"github.com/lib/pq"
)

// ProfileKind names the secondary record provisioned for an account.
type ProfileKind string

const (
	ProfileTeacher ProfileKind = "TEACHER"
	ProfileParent  ProfileKind = "PARENT"
	ProfileStudent ProfileKind = "STUDENT"
	ProfileNone    ProfileKind = "NONE"
)

// TeacherProfile is owned 1:1 by a TEACHER account.
type TeacherProfile struct {
	ID        string         `db:"id" json:"id"`
	UserID    string         `db:"user_id" json:"userId"`
	SchoolID  string         `db:"school_id" json:"schoolId"`
	Subjects  pq.StringArray `db:"subjects" json:"subjects"`
	Grade     *string        `db:"grade" json:"grade,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

// ParentProfile is owned 1:1 by a PARENT account. Students reference it
// through their parent_id; the parent does not own them.
type ParentProfile struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"userId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// StudentProfile is owned 1:1 by a STUDENT account.
type StudentProfile struct {
	ID            string         `db:"id" json:"id"`
	UserID        string         `db:"user_id" json:"userId"`
	SchoolID      string         `db:"school_id" json:"schoolId"`
	ParentID      *string        `db:"parent_id" json:"parentId,omitempty"`
	StudentNumber string         `db:"student_number" json:"studentNumber"`
	Grade         string         `db:"grade" json:"grade"`
	Subjects      pq.StringArray `db:"subjects" json:"subjects"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
}

// StudentDetail adds the owning account's name for roster views.
type StudentDetail struct {
	StudentProfile
	FirstName string `db:"first_name" json:"firstName"`
	LastName  string `db:"last_name" json:"lastName"`
}

// AdminProfile binds a SCHOOL_ADMIN to a school or a DISTRICT_ADMIN to a
// district. Operators create these rows; registration never does.
type AdminProfile struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"userId"`
	SchoolID   *string   `db:"school_id" json:"schoolId,omitempty"`
	DistrictID *string   `db:"district_id" json:"districtId,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// ProfileRefs holds every profile id attached to an account. At most one of the
// role profile ids is set.
type ProfileRefs struct {
	TeacherProfileID *string `db:"teacher_profile_id" json:"teacherProfileId,omitempty"`
	StudentProfileID *string `db:"student_profile_id" json:"studentProfileId,omitempty"`
	ParentProfileID  *string `db:"parent_profile_id" json:"parentProfileId,omitempty"`
	AdminProfileID   *string `db:"admin_profile_id" json:"adminProfileId,omitempty"`
	SchoolID         *string `db:"school_id" json:"schoolId,omitempty"`
	DistrictID       *string `db:"district_id" json:"districtId,omitempty"`
}

// ProvisionedProfile describes the profile created during registration.
type ProvisionedProfile struct {
	Kind          ProfileKind `json:"kind"`
	ID            string      `json:"id,omitempty"`
	SchoolID      string      `json:"schoolId,omitempty"`
	StudentNumber string      `json:"studentNumber,omitempty"`
}
