package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduportal-api/internal/dto"
	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/service"
	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
	"github.com/noah-isme/eduportal-api/pkg/response"
)

type attendanceService interface {
	List(ctx context.Context, p *service.Principal, q dto.AttendanceQuery) ([]models.Attendance, *models.Pagination, error)
	Mark(ctx context.Context, p *service.Principal, req dto.MarkAttendanceRequest) ([]models.Attendance, error)
	Export(ctx context.Context, p *service.Principal, q dto.AttendanceQuery, format string) (*service.AttendanceFile, error)
}

// AttendanceHandler exposes attendance endpoints.
type AttendanceHandler struct {
	service    attendanceService
	principals principalResolver
}

// NewAttendanceHandler constructs an attendance handler.
func NewAttendanceHandler(svc attendanceService, principals principalResolver) *AttendanceHandler {
	return &AttendanceHandler{service: svc, principals: principals}
}

func attendanceQuery(c *gin.Context) (dto.AttendanceQuery, error) {
	q := dto.AttendanceQuery{ClassID: c.Query("classId"), StudentID: c.Query("studentId")}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		q.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		q.PageSize = size
	}
	for key, dest := range map[string]**time.Time{"from": &q.From, "to": &q.To} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return q, appErrors.Clone(appErrors.ErrValidation, key+" must be YYYY-MM-DD")
		}
		*dest = &parsed
	}
	return q, nil
}

// List godoc
// @Summary List attendance
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param classId query string false "Class ID"
// @Param studentId query string false "Student profile ID"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	p, ok := currentPrincipal(c, h.principals)
	if !ok {
		return
	}
	q, err := attendanceQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows, pagination, err := h.service.List(c.Request.Context(), p, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination)
}

// Mark godoc
// @Summary Mark attendance for a class
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.MarkAttendanceRequest true "Attendance batch"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	p, ok := currentPrincipal(c, h.principals)
	if !ok {
		return
	}
	var req dto.MarkAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	rows, err := h.service.Mark(c.Request.Context(), p, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Attendance recorded", rows)
}

// Export godoc
// @Summary Export attendance
// @Tags Attendance
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /attendance/export [get]
func (h *AttendanceHandler) Export(c *gin.Context) {
	p, ok := currentPrincipal(c, h.principals)
	if !ok {
		return
	}
	q, err := attendanceQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.service.Export(c.Request.Context(), p, q, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
