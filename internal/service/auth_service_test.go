package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/eduportal-api/internal/dto"
	"github.com/noah-isme/eduportal-api/internal/models"
	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
)

type authRepoStub struct {
	accounts  map[string]*models.Account
	findErr   error
	auditLogs []*models.AuditLog
}

func (r *authRepoStub) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	a, ok := r.accounts[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return a, nil
}

func (r *authRepoStub) FindByID(ctx context.Context, id string) (*models.Account, error) {
	for _, a := range r.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *authRepoStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.auditLogs = append(r.auditLogs, log)
	return nil
}

// countingHasher wraps the real hasher and counts bcrypt comparisons.
type countingHasher struct {
	*PasswordHasher
	compares int
}

func (h *countingHasher) Compare(hash, password string) bool {
	h.compares++
	return h.PasswordHasher.Compare(hash, password)
}

func (h *countingHasher) CompareDummy(password string) bool {
	h.compares++
	return h.PasswordHasher.CompareDummy(password)
}

type accountCacheStub struct {
	invalidated []string
}

func (s *accountCacheStub) InvalidateAccount(_ context.Context, accountID string) {
	s.invalidated = append(s.invalidated, accountID)
}

func newAuthFixture(t *testing.T) (*AuthService, *authRepoStub, *countingHasher, *SessionService) {
	t.Helper()
	base, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	hasher := &countingHasher{PasswordHasher: base}
	hash, err := base.Hash("secret1")
	require.NoError(t, err)

	inactiveHash := hash
	repo := &authRepoStub{accounts: map[string]*models.Account{
		"t@b.co":        {ID: "u1", Email: "t@b.co", PasswordHash: &hash, FirstName: "Thandi", LastName: "M", Role: models.RoleTeacher, Active: true},
		"sso@b.co":      {ID: "u2", Email: "sso@b.co", FirstName: "S", Role: models.RoleParent, Active: true},
		"inactive@b.co": {ID: "u3", Email: "inactive@b.co", PasswordHash: &inactiveHash, Role: models.RoleStudent, Active: false},
	}}
	sessions := NewSessionService(SessionConfig{Secret: "secret", Issuer: "eduportal-api", TTL: time.Hour}, nil, nil, nil, nil)
	svc := NewAuthService(repo, hasher, sessions, NewMetricsService(), nil, nil)
	return svc, repo, hasher, sessions
}

func TestAuthenticateSuccess(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	identity, err := svc.Authenticate(context.Background(), "t@b.co", "secret1")
	require.NoError(t, err)
	assert.Equal(t, models.Identity{ID: "u1", Role: models.RoleTeacher, DisplayName: "Thandi M"}, *identity)
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	cases := map[string][2]string{
		"unknown email":  {"nobody@b.co", "secret1"},
		"wrong password": {"t@b.co", "wrong!!"},
		"no hash":        {"sso@b.co", "secret1"},
		"inactive":       {"inactive@b.co", "secret1"},
	}
	for name, creds := range cases {
		t.Run(name, func(t *testing.T) {
			svc, _, hasher, _ := newAuthFixture(t)
			identity, err := svc.Authenticate(context.Background(), creds[0], creds[1])
			assert.Nil(t, identity)
			assert.Same(t, appErrors.ErrInvalidCredentials, err)
			assert.Equal(t, 1, hasher.compares)
		})
	}
}

func TestAuthenticateStoreFailureIsInternal(t *testing.T) {
	svc, repo, _, _ := newAuthFixture(t)
	repo.findErr = errors.New("db down")

	_, err := svc.Authenticate(context.Background(), "t@b.co", "secret1")
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestLoginIssuesVerifiableSession(t *testing.T) {
	svc, repo, _, sessions := newAuthFixture(t)

	res, err := svc.Login(context.Background(), dto.LoginRequest{Email: "t@b.co", Password: "secret1", IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, "u1", res.User.ID)

	claims, err := sessions.Verify(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)
}

func TestLoginValidation(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)
	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "t@b.co"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, repo, _, _ := newAuthFixture(t)
	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "t@b.co", Password: "nope123"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	assert.Empty(t, repo.auditLogs)
}

func TestLoginRefreshesAccountCaches(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)
	sessionCache, principalCache := &accountCacheStub{}, &accountCacheStub{}
	svc.RefreshOnLogin(sessionCache, principalCache)

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "t@b.co", Password: "wrong!!"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	assert.Empty(t, sessionCache.invalidated)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "t@b.co", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, sessionCache.invalidated)
	assert.Equal(t, []string{"u1"}, principalCache.invalidated)
}

func TestLoginPicksUpRoleChangedSinceLastSession(t *testing.T) {
	sessions, reader, _, _ := newSessionFixture(true)
	svc, _, _, _ := newAuthFixture(t)
	svc.sessions = sessions
	svc.RefreshOnLogin(sessions)

	first, err := svc.Login(context.Background(), dto.LoginRequest{Email: "t@b.co", Password: "secret1"})
	require.NoError(t, err)
	_, err = sessions.Resolve(context.Background(), first.AccessToken)
	require.NoError(t, err)

	reader.statuses["u1"].Role = models.RoleSchoolAdmin
	second, err := svc.Login(context.Background(), dto.LoginRequest{Email: "t@b.co", Password: "secret1"})
	require.NoError(t, err)
	claims, err := sessions.Resolve(context.Background(), second.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSchoolAdmin, claims.Role)
}
