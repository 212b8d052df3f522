package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/internal/repository"
	"github.com/noah-isme/eduportal-api/pkg/cache"
	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
)

// Principal is the authenticated account with the profile ids that drive its
// row-level scope.
type Principal struct {
	AccountID string          `json:"accountId"`
	Role      models.UserRole `json:"role"`
	models.ProfileRefs
}

type profileRefReader interface {
	FindRefs(ctx context.Context, userID string) (*models.ProfileRefs, error)
}

type scopeChecker interface {
	Exists(ctx context.Context, entity models.EntityType, pred repository.Predicate, id string) (bool, error)
}

// capabilities lists the writes each role may attempt. Reads are open to every
// role and narrowed by Scope.
var capabilities = map[models.UserRole]map[models.EntityType][]models.Action{
	models.RoleTeacher: {
		models.EntityLesson:       {models.ActionCreate, models.ActionUpdate},
		models.EntityAssessment:   {models.ActionCreate, models.ActionUpdate},
		models.EntityAttendance:   {models.ActionCreate, models.ActionUpdate},
		models.EntitySubmission:   {models.ActionUpdate},
		models.EntityNotification: {models.ActionUpdate},
		models.EntityMessage:      {models.ActionCreate},
	},
	models.RoleStudent: {
		models.EntitySubmission:   {models.ActionCreate},
		models.EntityNotification: {models.ActionUpdate},
		models.EntityMessage:      {models.ActionCreate},
	},
	models.RoleParent: {
		models.EntityNotification: {models.ActionUpdate},
		models.EntityMessage:      {models.ActionCreate},
	},
	models.RoleSchoolAdmin: {
		models.EntityLesson:       {models.ActionUpdate},
		models.EntityAssessment:   {models.ActionUpdate},
		models.EntityAttendance:   {models.ActionUpdate},
		models.EntitySubmission:   {models.ActionUpdate},
		models.EntityNotification: {models.ActionUpdate},
		models.EntityMessage:      {models.ActionCreate},
	},
	models.RoleDistrictAdmin: {
		models.EntityLesson:       {models.ActionUpdate},
		models.EntityAssessment:   {models.ActionUpdate},
		models.EntityAttendance:   {models.ActionUpdate},
		models.EntitySubmission:   {models.ActionUpdate},
		models.EntityNotification: {models.ActionUpdate},
		models.EntityMessage:      {models.ActionCreate},
	},
}

// VisibilityService turns a session into row-level predicates for shared
// entities. Every list, read and write on those entities goes through it.
type VisibilityService struct {
	profiles profileRefReader
	scopes   scopeChecker
	cache    *CacheService
	cacheTTL time.Duration
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewVisibilityService constructs a VisibilityService.
func NewVisibilityService(profiles profileRefReader, scopes scopeChecker, cacheSvc *CacheService, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *VisibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisibilityService{profiles: profiles, scopes: scopes, cache: cacheSvc, cacheTTL: cacheTTL, metrics: metrics, logger: logger}
}

// Principal loads the profile references for the session's account. The role
// always comes from the claims.
func (s *VisibilityService) Principal(ctx context.Context, claims *models.SessionClaims) (*Principal, error) {
	if claims == nil || claims.UserID == "" {
		return nil, appErrors.ErrUnauthenticated
	}
	key := cache.Key("principal", claims.UserID)
	var refs models.ProfileRefs
	if !s.cache.Get(ctx, key, &refs) {
		loaded, err := s.profiles.FindRefs(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.ErrInvalidToken
			}
			return nil, appErrors.Internal(err, "failed to load profile")
		}
		refs = *loaded
		s.cache.Set(ctx, key, refs, s.cacheTTL)
	}
	return &Principal{AccountID: claims.UserID, Role: claims.Role, ProfileRefs: refs}, nil
}

// InvalidateAccount drops the cached profile references of an account.
func (s *VisibilityService) InvalidateAccount(ctx context.Context, accountID string) {
	s.cache.Invalidate(ctx, cache.Key("principal", accountID))
}

// Can reports whether the role may perform a write action on entity.
func (s *VisibilityService) Can(p *Principal, entity models.EntityType, action models.Action) bool {
	if action == models.ActionRead {
		return true
	}
	for _, allowed := range capabilities[p.Role][entity] {
		if allowed == action {
			return true
		}
	}
	return false
}

// Require fails with Forbidden when the role lacks the capability.
func (s *VisibilityService) Require(p *Principal, entity models.EntityType, action models.Action) error {
	if s.Can(p, entity, action) {
		return nil
	}
	return s.deny(p, entity, "capability")
}

// Scope returns the predicate selecting the rows of entity visible to p. A role
// whose profile is missing gets Forbidden instead of an empty result.
func (s *VisibilityService) Scope(p *Principal, entity models.EntityType) (repository.Predicate, error) {
	switch entity {
	case models.EntityNotification:
		return repository.Match("n.user_id = ?", p.AccountID), nil
	case models.EntityMessage:
		own := repository.Or(
			repository.Match("m.sender_id = ?", p.AccountID),
			repository.Match("m.receiver_id = ?", p.AccountID),
		)
		if classes, ok := classSet(p); ok {
			broadcast := classes.in("m.class_id").And(repository.Match("m.receiver_id IS NULL"))
			return repository.Or(own, broadcast), nil
		}
		return own, nil
	}

	classes, ok := classSet(p)
	if !ok {
		return repository.Predicate{}, s.deny(p, entity, "missing_profile")
	}
	students, _ := studentSet(p)
	learner := p.Role == models.RoleStudent || p.Role == models.RoleParent

	switch entity {
	case models.EntityClass:
		switch p.Role {
		case models.RoleTeacher:
			return repository.Match("c.teacher_id = ?", *p.TeacherProfileID), nil
		case models.RoleSchoolAdmin:
			return repository.Match("c.school_id = ?", *p.SchoolID), nil
		}
		return classes.in("c.id"), nil
	case models.EntityEnrollment:
		if learner {
			return students.in("e.student_id"), nil
		}
		return classes.in("e.class_id"), nil
	case models.EntityLesson:
		pred := classes.in("l.class_id")
		if learner {
			pred = pred.And(repository.Match("l.is_published = TRUE"))
		}
		return pred, nil
	case models.EntityAssessment:
		pred := classes.in("a.class_id")
		if learner {
			pred = pred.And(repository.Match("a.is_published = TRUE"))
		}
		return pred, nil
	case models.EntitySubmission:
		if learner {
			return students.in("s.student_id"), nil
		}
		return classes.wrap("SELECT a2.id FROM assessments a2 WHERE a2.class_id IN (%s)").in("s.assessment_id"), nil
	case models.EntityAttendance:
		if p.Role == models.RoleTeacher {
			return repository.Or(
				classes.in("at.class_id"),
				classes.wrap("SELECT l2.id FROM lessons l2 WHERE l2.class_id IN (%s)").in("at.lesson_id"),
			), nil
		}
		return students.in("at.student_id"), nil
	case models.EntityStudent:
		return students.in("sp.id"), nil
	case models.EntityAccount:
		return repository.Or(
			students.wrap("SELECT sp3.user_id FROM student_profiles sp3 WHERE sp3.id IN (%s)").in("u.id"),
			students.wrap("SELECT pp.user_id FROM parent_profiles pp JOIN student_profiles sp3 ON sp3.parent_id = pp.id WHERE sp3.id IN (%s)").in("u.id"),
			classes.wrap("SELECT tp.user_id FROM teacher_profiles tp JOIN classes c3 ON c3.teacher_id = tp.id WHERE c3.id IN (%s)").in("u.id"),
		), nil
	}
	return repository.Predicate{}, s.deny(p, entity, "unknown_entity")
}

// Authorize checks the capability and that row id of entity lies inside the
// principal's scope.
func (s *VisibilityService) Authorize(ctx context.Context, p *Principal, entity models.EntityType, id string, action models.Action) error {
	return s.AuthorizeWithin(ctx, p, entity, id, action, repository.Predicate{})
}

// AuthorizeWithin is Authorize with an extra condition the row must satisfy,
// such as a student being enrolled in a given class.
func (s *VisibilityService) AuthorizeWithin(ctx context.Context, p *Principal, entity models.EntityType, id string, action models.Action, extra repository.Predicate) error {
	if err := s.Require(p, entity, action); err != nil {
		return err
	}
	pred, err := s.Scope(p, entity)
	if err != nil {
		return err
	}
	pred = pred.And(extra)
	ok, err := s.scopes.Exists(ctx, entity, pred, id)
	if err != nil {
		return appErrors.Internal(err, "failed to check scope")
	}
	if !ok {
		return s.deny(p, entity, "out_of_scope")
	}
	return nil
}

func (s *VisibilityService) deny(p *Principal, entity models.EntityType, reason string) error {
	s.metrics.RecordScopeDenial(entity)
	s.logger.Info("scope denied",
		zap.String("account_id", p.AccountID),
		zap.String("role", string(p.Role)),
		zap.String("entity", string(entity)),
		zap.String("reason", reason),
	)
	return appErrors.ErrForbidden
}
