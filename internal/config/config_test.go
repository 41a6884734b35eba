package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
client:
  base_url: https://api.example.com
  timeout: 30s
  token_store_path: /tmp/tokens
  token_store_key: secret
app:
  port: 8080
  gin_mode: release
  bcrypt_cost: 12
logging:
  level: debug
  format: json
redis:
  addr: localhost:6379
jwt:
  secret: jwt-secret
  issuer: storefront
  access_ttl: 5m
  refresh_ttl: 48h
otp:
  ttl: 2m
  length: 4
  max_attempts: 5
  resend_window: 90s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "/tmp/tokens", cfg.TokenStorePath)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "release", cfg.GinMode)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 48*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, 2*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 4, cfg.OTPLength)
	assert.Equal(t, 5, cfg.OTPMaxAttempts)
	assert.Equal(t, 90*time.Second, cfg.OTPResendWindow)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
client:
  base_url: https://api.example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 6, cfg.OTPLength)
	assert.Equal(t, 3, cfg.OTPMaxAttempts)
	assert.Equal(t, time.Minute, cfg.OTPResendWindow)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
client:
  base_url: https://file.example.com
redis:
  addr: file-redis:6379
`)

	t.Setenv("STOREFRONT_BASE_URL", "https://env.example.com")
	t.Setenv("REDIS_ADDR", "env-redis:6379")
	t.Setenv("JWT_SECRET", "env-secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.BaseURL)
	assert.Equal(t, "env-redis:6379", cfg.RedisAddr)
	assert.Equal(t, "env-secret", cfg.JWTSecret)
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, `
client:
  timeout: not-a-duration
`)

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}
