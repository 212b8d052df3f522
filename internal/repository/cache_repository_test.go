package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/eduportal-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, zap.NewNop())
	ctx := context.Background()

	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "eduportal:x", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "eduportal:x", map[string]string{"a": "b"}, time.Minute))
	assert.NoError(t, repo.Delete(ctx, "eduportal:x"))
	assert.NoError(t, repo.DeleteByPattern(ctx, "eduportal:*"))
	assert.NoError(t, repo.Ping(ctx))
}
