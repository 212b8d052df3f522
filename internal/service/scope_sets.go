package service

import (
	"fmt"

	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/repository"
)

// idSet is a subquery yielding ids, with ? placeholders.
type idSet struct {
	query string
	args  []interface{}
}

func (s idSet) in(column string) repository.Predicate {
	return repository.Match(column+" IN ("+s.query+")", s.args...)
}

// wrap nests the set inside an outer subquery, e.g. assessments of the classes.
func (s idSet) wrap(outer string) idSet {
	return idSet{query: fmt.Sprintf(outer, s.query), args: s.args}
}

// classSet returns the ids of classes visible to p. ok is false when the
// profile the role depends on is missing.
func classSet(p *Principal) (idSet, bool) {
	switch p.Role {
	case models.RoleTeacher:
		if p.TeacherProfileID == nil {
			return idSet{}, false
		}
		return idSet{"SELECT c2.id FROM classes c2 WHERE c2.teacher_id = ?", []interface{}{*p.TeacherProfileID}}, true
	case models.RoleStudent:
		if p.StudentProfileID == nil {
			return idSet{}, false
		}
		return idSet{"SELECT ce.class_id FROM class_enrollments ce WHERE ce.student_id = ?", []interface{}{*p.StudentProfileID}}, true
	case models.RoleParent:
		if p.ParentProfileID == nil {
			return idSet{}, false
		}
		return idSet{"SELECT ce.class_id FROM class_enrollments ce JOIN student_profiles ps ON ps.id = ce.student_id WHERE ps.parent_id = ?", []interface{}{*p.ParentProfileID}}, true
	case models.RoleSchoolAdmin:
		if p.AdminProfileID == nil || p.SchoolID == nil {
			return idSet{}, false
		}
		return idSet{"SELECT c2.id FROM classes c2 WHERE c2.school_id = ?", []interface{}{*p.SchoolID}}, true
	case models.RoleDistrictAdmin:
		if p.AdminProfileID == nil || p.DistrictID == nil {
			return idSet{}, false
		}
		return idSet{"SELECT c2.id FROM classes c2 JOIN schools sc ON sc.id = c2.school_id WHERE sc.district_id = ?", []interface{}{*p.DistrictID}}, true
	default:
		return idSet{}, false
	}
}

// studentSet returns the student profile ids visible to p.
func studentSet(p *Principal) (idSet, bool) {
	switch p.Role {
	case models.RoleTeacher:
		if p.TeacherProfileID == nil {
			return idSet{}, false
		}
		return idSet{"SELECT ce.student_id FROM class_enrollments ce JOIN classes c2 ON c2.id = ce.class_id WHERE c2.teacher_id = ?", []interface{}{*p.TeacherProfileID}}, true
	case models.RoleStudent:
		if p.StudentProfileID == nil {
			return idSet{}, false
		}
		return idSet{"SELECT ps.id FROM student_profiles ps WHERE ps.id = ?", []interface{}{*p.StudentProfileID}}, true
	case models.RoleParent:
		if p.ParentProfileID == nil {
			return idSet{}, false
		}
		return idSet{"SELECT ps.id FROM student_profiles ps WHERE ps.parent_id = ?", []interface{}{*p.ParentProfileID}}, true
	case models.RoleSchoolAdmin:
		if p.AdminProfileID == nil || p.SchoolID == nil {
			return idSet{}, false
		}
		return idSet{"SELECT ps.id FROM student_profiles ps WHERE ps.school_id = ?", []interface{}{*p.SchoolID}}, true
	case models.RoleDistrictAdmin:
		if p.AdminProfileID == nil || p.DistrictID == nil {
			return idSet{}, false
		}
		return idSet{"SELECT ps.id FROM student_profiles ps JOIN schools sc ON sc.id = ps.school_id WHERE sc.district_id = ?", []interface{}{*p.DistrictID}}, true
	default:
		return idSet{}, false
	}
}
