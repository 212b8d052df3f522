package service

import (
	"database/sql"
	"errors"

	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/repository"
	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
)

// narrow adds the optional class and student filters to a scope predicate.
// An empty column name means the entity cannot be filtered on that field.
func narrow(pred repository.Predicate, filter models.ListFilter, classColumn, studentColumn string) repository.Predicate {
	if filter.ClassID != "" && classColumn != "" {
		pred = pred.And(repository.Match(classColumn+" = ?", filter.ClassID))
	}
	if filter.StudentID != "" && studentColumn != "" {
		pred = pred.And(repository.Match(studentColumn+" = ?", filter.StudentID))
	}
	return pred
}

func pageOf(filter models.ListFilter, total int) *models.Pagination {
	filter = filter.Normalize()
	return &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
}

// scopedError maps a repository failure on a scoped read or write. A row that
// is absent from the predicate is reported as Forbidden.
func (s *VisibilityService) scopedError(p *Principal, entity models.EntityType, err error, message string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, repository.ErrUnscoped):
		return s.deny(p, entity, "out_of_scope")
	default:
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return err
		}
		return appErrors.Internal(err, message)
	}
}
