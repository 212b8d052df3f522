package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/eduportal-api/internal/dto"
	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/repository"
	"github.com/noah-isme/eduportal-api/pkg/cache"
	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
)

type scopeCounter interface {
	Count(ctx context.Context, entity models.EntityType, pred repository.Predicate) (int, error)
	AttendanceRate(ctx context.Context, pred repository.Predicate) (float64, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Counter    scopeCounter
	Visibility *VisibilityService
	Cache      *CacheService
	Logger     *zap.Logger
	Config     DashboardServiceConfig
}

// DashboardService composes the per-role summary counts.
type DashboardService struct {
	counter    scopeCounter
	visibility *VisibilityService
	cache      *CacheService
	logger     *zap.Logger
	cfg        DashboardServiceConfig
}

// NewDashboardService constructs DashboardService.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &DashboardService{
		counter:    params.Counter,
		visibility: params.Visibility,
		cache:      params.Cache,
		logger:     logger,
		cfg:        cfg,
	}
}

func dashboardCacheKey(accountID string) string {
	return cache.Key("dashboard", accountID)
}

// Summary returns the counts visible to the principal and whether they came
// from the cache. Results are cached per account; the entry is dropped when the
// account's notifications change.
func (s *DashboardService) Summary(ctx context.Context, p *Principal) (*dto.DashboardSummary, bool, error) {
	key := dashboardCacheKey(p.AccountID)
	var cached dto.DashboardSummary
	if s.cache.Get(ctx, key, &cached) && cached.Role == p.Role {
		return &cached, true, nil
	}

	summary := &dto.DashboardSummary{Role: p.Role}
	counts := []struct {
		entity models.EntityType
		extra  repository.Predicate
		dest   *int
	}{
		{models.EntityClass, repository.Predicate{}, &summary.Classes},
		{models.EntityLesson, repository.Predicate{}, &summary.Lessons},
		{models.EntityAssessment, repository.Predicate{}, &summary.Assessments},
		{models.EntitySubmission, repository.Match("s.graded_at IS NULL"), &summary.PendingSubmissions},
		{models.EntityNotification, repository.Match("n.is_read = FALSE"), &summary.UnreadNotifications},
		{models.EntityStudent, repository.Predicate{}, &summary.Students},
	}
	for _, c := range counts {
		pred, err := s.visibility.Scope(p, c.entity)
		if err != nil {
			return nil, false, err
		}
		total, err := s.counter.Count(ctx, c.entity, pred.And(c.extra))
		if err != nil {
			return nil, false, appErrors.Internal(err, "failed to build dashboard")
		}
		*c.dest = total
	}

	attendance, err := s.visibility.Scope(p, models.EntityAttendance)
	if err != nil {
		return nil, false, err
	}
	rate, err := s.counter.AttendanceRate(ctx, attendance)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to build dashboard")
	}
	summary.AttendanceRate = rate

	s.cache.Set(ctx, key, summary, s.cfg.CacheTTL)
	return summary, false, nil
}
