package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/eduportal-api/internal/dto"
	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/repository"
	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
	"github.com/noah-isme/eduportal-api/pkg/validation"
	"github.com/noah-isme/eduportal-api/pkg/export"
)

const attendanceDateLayout = "2006-01-02"

type attendanceStore interface {
	List(ctx context.Context, pred repository.Predicate, filter models.ListFilter) ([]models.Attendance, int, error)
	Export(ctx context.Context, pred repository.Predicate) ([]models.Attendance, error)
	Upsert(ctx context.Context, records []models.Attendance) error
}

// AttendanceFile is a rendered attendance export.
type AttendanceFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// AttendanceService lists, marks and exports attendance inside the caller's scope.
type AttendanceService struct {
	repo       attendanceStore
	visibility *VisibilityService
	validator  *validation.Validator
	now        func() time.Time
	logger     *zap.Logger
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(repo attendanceStore, visibility *VisibilityService, validate *validation.Validator, now func() time.Time, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validation.New()
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, visibility: visibility, validator: validate, now: now, logger: logger}
}

func (s *AttendanceService) scope(p *Principal, q dto.AttendanceQuery) (repository.Predicate, error) {
	pred, err := s.visibility.Scope(p, models.EntityAttendance)
	if err != nil {
		return repository.Predicate{}, err
	}
	pred = narrow(pred, models.ListFilter{ClassID: q.ClassID, StudentID: q.StudentID}, "at.class_id", "at.student_id")
	if q.From != nil {
		pred = pred.And(repository.Match("at.date >= ?", *q.From))
	}
	if q.To != nil {
		pred = pred.And(repository.Match("at.date <= ?", *q.To))
	}
	return pred, nil
}

// List returns visible attendance rows.
func (s *AttendanceService) List(ctx context.Context, p *Principal, q dto.AttendanceQuery) ([]models.Attendance, *models.Pagination, error) {
	pred, err := s.scope(p, q)
	if err != nil {
		return nil, nil, err
	}
	filter := models.ListFilter{Page: q.Page, PageSize: q.PageSize}
	rows, total, err := s.repo.List(ctx, pred, filter)
	if err != nil {
		return nil, nil, s.visibility.scopedError(p, models.EntityAttendance, err, "failed to list attendance")
	}
	return rows, pageOf(filter, total), nil
}

// Mark records one status per student for a class the caller teaches. Every
// student must be enrolled in that class.
func (s *AttendanceService) Mark(ctx context.Context, p *Principal, req dto.MarkAttendanceRequest) ([]models.Attendance, error) {
	if err := s.validator.Check(req, "invalid attendance payload"); err != nil {
		return nil, err
	}
	date, err := time.Parse(attendanceDateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	if err := s.visibility.Require(p, models.EntityAttendance, models.ActionCreate); err != nil {
		return nil, err
	}
	if err := s.visibility.Authorize(ctx, p, models.EntityClass, req.ClassID, models.ActionRead); err != nil {
		return nil, err
	}
	if req.LessonID != nil {
		inClass := repository.Match("l.class_id = ?", req.ClassID)
		if err := s.visibility.AuthorizeWithin(ctx, p, models.EntityLesson, *req.LessonID, models.ActionRead, inClass); err != nil {
			return nil, err
		}
	}

	enrolled := repository.Match("sp.id IN (SELECT ce.student_id FROM class_enrollments ce WHERE ce.class_id = ?)", req.ClassID)
	seen := make(map[string]struct{}, len(req.Entries))
	records := make([]models.Attendance, 0, len(req.Entries))
	for _, entry := range req.Entries {
		if _, dup := seen[entry.StudentID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s listed twice", entry.StudentID))
		}
		seen[entry.StudentID] = struct{}{}
		if err := s.visibility.AuthorizeWithin(ctx, p, models.EntityStudent, entry.StudentID, models.ActionRead, enrolled); err != nil {
			return nil, err
		}
		classID := req.ClassID
		records = append(records, models.Attendance{
			StudentID: entry.StudentID,
			ClassID:   &classID,
			LessonID:  req.LessonID,
			Date:      date,
			Status:    entry.Status,
			Notes:     entry.Notes,
		})
	}
	if err := s.repo.Upsert(ctx, records); err != nil {
		return nil, appErrors.Internal(err, "failed to mark attendance")
	}
	s.logger.Info("attendance marked",
		zap.String("class_id", req.ClassID),
		zap.String("date", req.Date),
		zap.Int("entries", len(records)),
	)
	return records, nil
}

// Export renders every visible row matching q as CSV or PDF.
func (s *AttendanceService) Export(ctx context.Context, p *Principal, q dto.AttendanceQuery, rawFormat string) (*AttendanceFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnsupportedFormat.Code, appErrors.ErrUnsupportedFormat.Status, appErrors.ErrUnsupportedFormat.Message)
	}
	pred, err := s.scope(p, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Export(ctx, pred)
	if err != nil {
		return nil, s.visibility.scopedError(p, models.EntityAttendance, err, "failed to export attendance")
	}

	dataset := export.Dataset{
		Title:   "Attendance",
		Headers: []string{"Date", "Student", "Class", "Lesson", "Status", "Notes"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date":    row.Date.Format(attendanceDateLayout),
			"Student": row.StudentID,
			"Class":   deref(row.ClassID),
			"Lesson":  deref(row.LessonID),
			"Status":  string(row.Status),
			"Notes":   deref(row.Notes),
		})
	}
	body, err := export.Render(format, dataset)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render attendance export")
	}
	return &AttendanceFile{
		Filename:    fmt.Sprintf("attendance-%s.%s", s.now().UTC().Format("20060102"), format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
