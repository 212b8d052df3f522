package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduportal-api/internal/middleware"
	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/service"
	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
)

type responseEnvelope struct {
	Message    string                 `json:"message"`
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

type principalStub struct {
	principal *service.Principal
	err       error
	calls     int
}

func (s *principalStub) Principal(_ context.Context, claims *models.SessionClaims) (*service.Principal, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.principal != nil {
		return s.principal, nil
	}
	return &service.Principal{AccountID: claims.UserID, Role: claims.Role}, nil
}

func teacherPrincipal() *service.Principal {
	tp, school := "tp-1", "school-1"
	return &service.Principal{
		AccountID:   "acc-1",
		Role:        models.RoleTeacher,
		ProfileRefs: models.ProfileRefs{TeacherProfileID: &tp, SchoolID: &school},
	}
}

func newTestContext(method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, rec
}

func withSession(c *gin.Context, accountID string, role models.UserRole) {
	c.Set(middleware.ContextUserKey, &models.SessionClaims{UserID: accountID, Role: role})
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestCurrentPrincipalWithoutSession(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/classes", nil)
	stub := &principalStub{}

	p, ok := currentPrincipal(c, stub)

	assert.False(t, ok)
	assert.Nil(t, p)
	assert.Equal(t, 0, stub.calls)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, appErrors.ErrUnauthenticated.Code, decodeEnvelope(t, rec).Error.Code)
}

func TestCurrentPrincipalPropagatesResolverError(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/classes", nil)
	withSession(c, "acc-1", models.RoleTeacher)

	_, ok := currentPrincipal(c, &principalStub{err: appErrors.ErrInvalidToken})

	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, appErrors.ErrInvalidToken.Code, decodeEnvelope(t, rec).Error.Code)
}

func TestListFilterNormalizesPaging(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/lessons?page=0&limit=500&classId=class-1", nil)

	filter := listFilter(c)

	assert.Equal(t, 1, filter.Page)
	assert.Equal(t, 20, filter.PageSize)
	assert.Equal(t, "class-1", filter.ClassID)
}

func TestBindJSONRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/lessons", bytes.NewBufferString("{"))
	c.Request.Header.Set("Content-Type", "application/json")

	var dest map[string]interface{}
	ok := bindJSON(c, &dest, "invalid payload")

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, appErrors.ErrValidation.Code, envelope.Error.Code)
	assert.Equal(t, "invalid payload", envelope.Message)
}
