package auth_service_config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "auth-service", cfg.App.Name)
	require.Equal(t, ":8080", cfg.Server.HTTPAddr)
	require.Equal(t, ":9100", cfg.Server.MetricsAddr)

	require.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	require.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	require.Equal(t, 168*time.Hour, cfg.Auth.RefreshTTL)
	require.Equal(t, 12, cfg.Auth.BcryptCost)

	require.Equal(t, 5, cfg.Lockout.MaxAttempts)
	require.Equal(t, 15*time.Minute, cfg.Lockout.AttemptWindow)
	require.Equal(t, 15*time.Minute, cfg.Lockout.LockoutTTL)
	require.Equal(t, 15*time.Minute, cfg.Lockout.BlacklistTTL)

	require.NotEmpty(t, cfg.DB.DSN)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "env-secret")
	t.Setenv("AUTH_ACCESS_TTL", "5m")
	t.Setenv("LOCKOUT_MAX_ATTEMPTS", "3")
	t.Setenv("SERVER_HTTP_ADDR", ":9999")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	require.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL)
	require.Equal(t, 3, cfg.Lockout.MaxAttempts)
	require.Equal(t, ":9999", cfg.Server.HTTPAddr)
}

func TestLoad_MissingSecret(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
}
