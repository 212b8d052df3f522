package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduportal-api/internal/dto"
	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/service"
	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
)

type fakeDashboardSrv struct {
	resp *dto.DashboardSummary
	hit  bool
	err  error
	last *service.Principal
}

func (f *fakeDashboardSrv) Summary(_ context.Context, p *service.Principal) (*dto.DashboardSummary, bool, error) {
	f.last = p
	return f.resp, f.hit, f.err
}

type pingStub struct{ err error }

func (p pingStub) PingContext(context.Context) error { return p.err }

func TestDashboardHandlerSummary(t *testing.T) {
	srv := &fakeDashboardSrv{
		resp: &dto.DashboardSummary{Role: models.RoleTeacher, Classes: 3, PendingSubmissions: 4},
		hit:  true,
	}
	h := NewDashboardHandler(srv, &principalStub{principal: teacherPrincipal()})
	c, rec := newTestContext(http.MethodGet, "/dashboard", nil)
	withSession(c, "acc-1", models.RoleTeacher)

	h.Summary(c)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Contains(t, envelope.Meta, "processing_time_ms")
	var summary dto.DashboardSummary
	require.NoError(t, json.Unmarshal(envelope.Data, &summary))
	assert.Equal(t, 3, summary.Classes)
	assert.Equal(t, 4, summary.PendingSubmissions)
	assert.Equal(t, "acc-1", srv.last.AccountID)
}

func TestDashboardHandlerSummaryFailureIsMasked(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboardSrv{err: errors.New("pq: relation missing")}, &principalStub{principal: teacherPrincipal()})
	c, rec := newTestContext(http.MethodGet, "/dashboard", nil)
	withSession(c, "acc-1", models.RoleTeacher)

	h.Summary(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "relation missing")
}

func TestDashboardHandlerWithoutService(t *testing.T) {
	h := NewDashboardHandler(nil, &principalStub{})
	c, rec := newTestContext(http.MethodGet, "/dashboard", nil)

	h.Summary(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(service.NewMetricsService(), map[string]Pinger{
		"postgres": pingStub{},
		"redis":    PingFunc(func(context.Context) error { return nil }),
	})
	c, rec := newTestContext(http.MethodGet, "/ready", nil)

	h.Ready(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{"postgres":"up","redis":"up"}}`, rec.Body.String())
}

func TestMetricsHandlerReadyDegraded(t *testing.T) {
	h := NewMetricsHandler(nil, map[string]Pinger{"postgres": pingStub{err: errors.New("refused")}})
	c, rec := newTestContext(http.MethodGet, "/ready", nil)

	h.Ready(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable","checks":{"postgres":"down"}}`, rec.Body.String())
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordLogin("success")
	h := NewMetricsHandler(metrics, nil)
	c, rec := newTestContext(http.MethodGet, "/metrics", nil)

	h.Prometheus(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "logins_total")
}

func TestMetricsHandlerPrometheusDisabled(t *testing.T) {
	h := NewMetricsHandler(nil, nil)
	c, rec := newTestContext(http.MethodGet, "/metrics", nil)

	h.Prometheus(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, appErrors.ErrServiceUnavailable.Code, decodeEnvelope(t, rec).Error.Code)
}

func TestNotFoundUsesEnvelope(t *testing.T) {
	r := gin.New()
	r.NoRoute(NotFound)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/nowhere", nil)
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, appErrors.ErrNotFound.Code, envelope.Error.Code)
	assert.Equal(t, "route not found", envelope.Error.Message)
}
