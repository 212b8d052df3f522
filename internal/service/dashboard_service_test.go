package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/repository"
	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
)

type counterStub struct {
	counts map[models.EntityType]int
	rate   float64
	calls  int
	preds  map[models.EntityType]repository.Predicate
}

func (c *counterStub) Count(ctx context.Context, entity models.EntityType, pred repository.Predicate) (int, error) {
	c.calls++
	if c.preds == nil {
		c.preds = map[models.EntityType]repository.Predicate{}
	}
	c.preds[entity] = pred
	return c.counts[entity], nil
}

func (c *counterStub) AttendanceRate(ctx context.Context, pred repository.Predicate) (float64, error) {
	c.calls++
	return c.rate, nil
}

func TestDashboardServiceTeacher_ComposesAndCaches(t *testing.T) {
	counter := &counterStub{counts: map[models.EntityType]int{
		models.EntityClass:        3,
		models.EntityLesson:       12,
		models.EntityAssessment:   4,
		models.EntitySubmission:   7,
		models.EntityNotification: 2,
		models.EntityStudent:      61,
	}, rate: 0.92}
	mem := newMemoryCache()
	svc := NewDashboardService(DashboardServiceParams{
		Counter:    counter,
		Visibility: newScopedVisibility(newScopeTable()),
		Cache:      NewCacheService(mem, nil, time.Minute, nil, true),
		Config:     DashboardServiceConfig{CacheTTL: 2 * time.Minute},
	})

	summary, hit, err := svc.Summary(context.Background(), fullPrincipal(models.RoleTeacher))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, models.RoleTeacher, summary.Role)
	assert.Equal(t, 3, summary.Classes)
	assert.Equal(t, 12, summary.Lessons)
	assert.Equal(t, 7, summary.PendingSubmissions)
	assert.Equal(t, 2, summary.UnreadNotifications)
	assert.Equal(t, 61, summary.Students)
	assert.InDelta(t, 0.92, summary.AttendanceRate, 1e-9)
	assert.Contains(t, counter.preds[models.EntitySubmission].Cond, "s.graded_at IS NULL")
	assert.Contains(t, counter.preds[models.EntityNotification].Cond, "n.is_read = FALSE")
	assert.Equal(t, 2*time.Minute, mem.ttls[dashboardCacheKey("acc-1")])

	calls := counter.calls
	again, hit, err := svc.Summary(context.Background(), fullPrincipal(models.RoleTeacher))
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, calls, counter.calls)
	assert.Equal(t, summary, again)
}

func TestDashboardServiceMissingProfile(t *testing.T) {
	counter := &counterStub{}
	svc := NewDashboardService(DashboardServiceParams{
		Counter:    counter,
		Visibility: newScopedVisibility(newScopeTable()),
	})

	_, _, err := svc.Summary(context.Background(), &Principal{AccountID: "acc-1", Role: models.RoleSchoolAdmin})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Zero(t, counter.calls)
}
