package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.True(t, cfg.Auth.Revalidate)
	assert.Equal(t, 30*time.Second, cfg.Auth.ClaimsCacheTTL)
	assert.True(t, cfg.Registration.FirstSchoolFallback)
	assert.Equal(t, 3, cfg.Registration.MaxAttempts)
	assert.Empty(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("JWT_EXPIRATION", "90m")
	v.Set("SESSION_CLAIMS_CACHE_TTL", "not-a-duration")
	v.Set("REGISTRATION_MAX_ATTEMPTS", 0)
	v.Set("REGISTRATION_DEFAULT_SCHOOL_ID", "  school-1 ")
	v.Set("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := fromViper(v)
	assert.Equal(t, 90*time.Minute, cfg.JWT.Expiration)
	assert.Equal(t, 30*time.Second, cfg.Auth.ClaimsCacheTTL)
	assert.Equal(t, 3, cfg.Registration.MaxAttempts)
	assert.Equal(t, "school-1", cfg.Registration.DefaultSchoolID)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}
