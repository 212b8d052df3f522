package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/eduportal-api/internal/models"
	"github.com/noah-isme/eduportal-api/pkg/cache"
	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
)

// SessionConfig defines signing and revalidation settings.
type SessionConfig struct {
	Secret         string
	Issuer         string
	TTL            time.Duration
	Revalidate     bool
	ClaimsCacheTTL time.Duration
}

type sessionAccountReader interface {
	FindStatus(ctx context.Context, id string) (*models.AccountStatus, error)
}

// SessionService issues and verifies stateless HS256 session tokens carrying
// the account id and role.
type SessionService struct {
	cfg      SessionConfig
	accounts sessionAccountReader
	cache    *CacheService
	now      func() time.Time
	logger   *zap.Logger
}

// NewSessionService constructs a SessionService. now defaults to time.Now.
func NewSessionService(cfg SessionConfig, accounts sessionAccountReader, cacheSvc *CacheService, now func() time.Time, logger *zap.Logger) *SessionService {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{cfg: cfg, accounts: accounts, cache: cacheSvc, now: now, logger: logger}
}

// TTL returns the session lifetime.
func (s *SessionService) TTL() time.Duration {
	return s.cfg.TTL
}

// Issue signs a token for identity and returns it with its expiry.
func (s *SessionService) Issue(identity models.Identity) (string, time.Time, error) {
	if identity.ID == "" || !identity.Role.Valid() {
		return "", time.Time{}, appErrors.Internal(errors.New("incomplete identity"), "cannot issue session")
	}
	issuedAt := s.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.cfg.TTL)
	claims := models.SessionClaims{
		UserID: identity.ID,
		Role:   identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, appErrors.Internal(err, "failed to sign session")
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm, issuer and time claims. It performs no
// I/O. Every failure yields the same InvalidOrExpiredToken error.
func (s *SessionService) Verify(token string) (*models.SessionClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}

	claims := &models.SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, opts...)
	if err != nil || !parsed.Valid {
		s.logger.Debug("session verification failed", zap.Error(err))
		return nil, appErrors.ErrInvalidToken
	}
	if claims.UserID == "" || claims.Subject != claims.UserID || !claims.Role.Valid() {
		return nil, appErrors.ErrInvalidToken
	}
	return claims, nil
}

// Resolve verifies the token and, when revalidation is enabled, checks the
// account is still active and replaces the token role with the stored one.
// Status lookups are cached for ClaimsCacheTTL, which bounds how long a
// deactivation or role change takes to apply.
func (s *SessionService) Resolve(ctx context.Context, token string) (*models.SessionClaims, error) {
	claims, err := s.Verify(token)
	if err != nil {
		return nil, err
	}
	if !s.cfg.Revalidate || s.accounts == nil {
		return claims, nil
	}

	status, err := s.accountStatus(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !status.Active {
		return nil, appErrors.ErrInvalidToken
	}
	if status.Role != claims.Role {
		s.logger.Info("session role differs from stored role",
			zap.String("account_id", claims.UserID),
			zap.String("token_role", string(claims.Role)),
			zap.String("stored_role", string(status.Role)),
		)
		claims.Role = status.Role
	}
	return claims, nil
}

// InvalidateAccount drops the cached status so the next request re-reads it.
func (s *SessionService) InvalidateAccount(ctx context.Context, accountID string) {
	s.cache.Invalidate(ctx, sessionCacheKey(accountID))
}

func (s *SessionService) accountStatus(ctx context.Context, accountID string) (*models.AccountStatus, error) {
	key := sessionCacheKey(accountID)
	var cached models.AccountStatus
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	status, err := s.accounts.FindStatus(ctx, accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidToken
		}
		return nil, appErrors.Internal(err, "failed to load account status")
	}
	s.cache.Set(ctx, key, status, s.cfg.ClaimsCacheTTL)
	return status, nil
}

func sessionCacheKey(accountID string) string {
	return cache.Key("session", accountID)
}
