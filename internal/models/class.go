package models

import "time"

// Class is a teaching group owned by a teacher profile inside a school.
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Subject   string    `db:"subject" json:"subject"`
	Grade     string    `db:"grade" json:"grade"`
	SchoolID  string    `db:"school_id" json:"schoolId"`
	TeacherID string    `db:"teacher_id" json:"teacherId"`
	Term      string    `db:"term" json:"term"`
	Year      int       `db:"year" json:"year"`
	Active    bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ClassEnrollment links a student profile to a class.
type ClassEnrollment struct {
	ID         string    `db:"id" json:"id"`
	ClassID    string    `db:"class_id" json:"classId"`
	StudentID  string    `db:"student_id" json:"studentId"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolledAt"`
}
