package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduportal-api/internal/dto"
	"github.com/noah-isme/eduportal-api/internal/models"
	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
)

type authAccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type passwordVerifier interface {
	Compare(hash, password string) bool
	CompareDummy(password string) bool
}

type sessionIssuer interface {
	Issue(identity models.Identity) (string, time.Time, error)
	TTL() time.Duration
}

// accountCache holds per-account state derived at request time.
type accountCache interface {
	InvalidateAccount(ctx context.Context, accountID string)
}

// AuthService verifies credentials and issues sessions.
type AuthService struct {
	repo      authAccountRepository
	hasher    passwordVerifier
	sessions  sessionIssuer
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	caches    []accountCache
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authAccountRepository, hasher passwordVerifier, sessions sessionIssuer, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		sessions:  sessions,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// RefreshOnLogin registers caches dropped for an account on every successful
// login, so a fresh sign-in picks up role, status and profile changes made by
// operators without waiting for the cache TTL.
func (s *AuthService) RefreshOnLogin(caches ...accountCache) {
	s.caches = append(s.caches, caches...)
}

// Authenticate returns the identity for a matching email and password. Unknown
// accounts, accounts without a password, wrong passwords and inactive
// accounts all fail with the same InvalidCredentials error, and each path
// performs one bcrypt comparison.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.Identity, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.hasher.CompareDummy(password)
			s.rejected("account_not_found")
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, appErrors.Internal(err, "failed to fetch account")
	}

	if !account.HasPassword() {
		s.hasher.CompareDummy(password)
		s.rejected("no_password")
		return nil, appErrors.ErrInvalidCredentials
	}
	if !s.hasher.Compare(*account.PasswordHash, password) {
		s.rejected("password_mismatch")
		return nil, appErrors.ErrInvalidCredentials
	}
	if !account.Active {
		s.rejected("inactive")
		return nil, appErrors.ErrInvalidCredentials
	}

	return &models.Identity{ID: account.ID, Role: account.Role, DisplayName: account.DisplayName()}, nil
}

// Login authenticates and issues a session token.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msgMissingFields)
	}

	identity, err := s.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, appErrors.ErrInvalidCredentials) {
			s.metrics.RecordLogin(OutcomeDenied)
		} else {
			s.metrics.RecordLogin(OutcomeError)
		}
		return nil, err
	}
	for _, c := range s.caches {
		c.InvalidateAccount(ctx, identity.ID)
	}

	token, expiresAt, err := s.sessions.Issue(*identity)
	if err != nil {
		s.metrics.RecordLogin(OutcomeError)
		return nil, err
	}
	s.metrics.RecordLogin(OutcomeSuccess)

	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &identity.ID,
		Action:     models.AuditActionLogin,
		Resource:   "auth",
		ResourceID: &identity.ID,
		NewValues:  []byte(`{"status":"success"}`),
		IPAddress:  req.IP,
		UserAgent:  req.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record login audit log", zap.Error(err))
	}

	ttl := s.sessions.TTL()
	return &dto.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(ttl.Seconds()),
		IssuedAt:    expiresAt.Add(-ttl),
		User:        *identity,
	}, nil
}

// Identity reloads the identity for an authenticated account.
func (s *AuthService) Identity(ctx context.Context, claims *models.SessionClaims) (*models.Identity, error) {
	account, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidToken
		}
		return nil, appErrors.Internal(err, "failed to load account")
	}
	return &models.Identity{ID: account.ID, Role: claims.Role, DisplayName: account.DisplayName()}, nil
}

func (s *AuthService) rejected(reason string) {
	s.logger.Info("authentication rejected", zap.String("reason", reason))
}
