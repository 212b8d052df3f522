package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/eduportal-api/internal/models"
)

func TestMetricsDomainCounters(t *testing.T) {
	m := NewMetricsService()

	m.RecordRegistration(models.RoleStudent, OutcomeSuccess)
	m.RecordRegistration(models.UserRole("JANITOR"), OutcomeInvalid)
	m.RecordLogin(OutcomeDenied)
	m.RecordScopeDenial(models.EntityClass)
	m.RecordScopeDenial(models.EntityClass)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.registrations.WithLabelValues("STUDENT", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.registrations.WithLabelValues("unknown", OutcomeInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues(OutcomeDenied)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.scopeDenials.WithLabelValues("class")))
}

func TestMetricsHandlerExposesCounters(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/classes", http.StatusOK, 10*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "http_requests_total"))
	assert.True(t, strings.Contains(body, "cache_hits_total 1"))
}

func TestMetricsNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordLogin(OutcomeSuccess)
	m.RecordScopeDenial(models.EntityLesson)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
