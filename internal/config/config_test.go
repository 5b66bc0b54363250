package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-sufficiently-long-test-secret")
	t.Setenv("ADMIN_EMAIL", "Admin@Example.com")
	t.Setenv("DB_PASSWORD", "postgres")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "admin@example.com", cfg.Auth.AdminEmail, "admin email should be normalized")
	assert.Equal(t, 10*time.Minute, cfg.Auth.CodeTTL)
	assert.Equal(t, 20, cfg.Auth.CodeMinLength)
	assert.Equal(t, 30, cfg.Auth.CodeMaxLength)
	assert.Equal(t, 5, cfg.Auth.MaxCodeAttempts)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTokenExpiry)
	assert.Equal(t, 6, cfg.RateLimit.RequestCodeLimit)
	assert.Equal(t, 20, cfg.RateLimit.VerifyCodeLimit)
	assert.Equal(t, time.Hour, cfg.RateLimit.Window)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ADMIN_EMAIL", "admin@example.com")
	t.Setenv("DB_PASSWORD", "postgres")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_MissingAdminEmail(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-sufficiently-long-test-secret")
	t.Setenv("ADMIN_EMAIL", "")
	t.Setenv("DB_PASSWORD", "postgres")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_WeakJWTSecretInProduction(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "short-secret")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidCodeLengthRange(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CODE_MIN_LENGTH", "30")
	t.Setenv("CODE_MAX_LENGTH", "20")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CODE_TTL", "5m")
	t.Setenv("MAX_CODE_ATTEMPTS", "3")
	t.Setenv("REQUEST_CODE_LIMIT", "10")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Auth.CodeTTL)
	assert.Equal(t, 3, cfg.Auth.MaxCodeAttempts)
	assert.Equal(t, 10, cfg.RateLimit.RequestCodeLimit)
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.0/12"}, cfg.Server.TrustedProxies)
}
