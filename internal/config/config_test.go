package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"DATABASE_URL", "APP_ENV", "DB_PORT", "DB_NAME", "DEFAULT_PAGE_SIZE", "DEFAULT_MAX_PAGE_SIZE",
		"UPSTREAM_TIMEOUT", "CORS_ORIGINS", "STORAGE_BUCKET", "STS_ROLE_ARN",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("DB_HOST", "db")

	cfg := Load()
	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.Contains(t, cfg.DatabaseURL, "@db:5432/wristcheck")
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 100, cfg.MaxPageSize)
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.Storage.Enabled())
	assert.False(t, cfg.STS.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DEFAULT_PAGE_SIZE", "25")
	t.Setenv("UPSTREAM_TIMEOUT", "3")
	t.Setenv("TOKEN_CACHE_TTL", "90s")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("WRISTCHECK_API", "https://id.example/")
	t.Setenv("STORAGE_BUCKET", "avatars")
	t.Setenv("STORAGE_ACCESS_KEY_ID", "ak")
	t.Setenv("STORAGE_SECRET_ACCESS_KEY", "sk")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 25, cfg.PageSize)
	assert.Equal(t, 3*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 90*time.Second, cfg.TokenCacheTTL)
	assert.Equal(t, 0.5, cfg.RateLimitRPS)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "https://id.example", cfg.Identity.BaseURL)
	assert.True(t, cfg.Storage.Enabled())
}

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("BAD_INT", "ten")
	t.Setenv("BAD_DURATION", "soon")

	assert.Equal(t, 7, getEnvInt("BAD_INT", 7))
	assert.Equal(t, time.Minute, getEnvDuration("BAD_DURATION", time.Minute))
	assert.Equal(t, "fallback", getEnv("MISSING_KEY_FOR_TEST", "fallback"))
}
