package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "5001", cfg.Server.Port)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, "development", cfg.Server.Environment)
	require.Equal(t, "inkpress", cfg.Site.Title)
	require.Equal(t, 10*time.Second, cfg.MongoDB.Timeout)
	require.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL)
	require.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTokenTTL)
	require.Equal(t, 10.0, cfg.RateLimit.RPS)
	require.Equal(t, 20, cfg.RateLimit.Burst)
	require.Equal(t, time.Hour, cfg.Render.CacheTTL)
	require.Equal(t, 5*time.Second, cfg.Render.LinkCheckTimeout)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SITE_TITLE", "my blog")
	t.Setenv("SITE_BASE_URL", "https://blog.example.com")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RENDER_CACHE_TTL_SECONDS", "60")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, "my blog", cfg.Site.Title)
	require.Equal(t, "https://blog.example.com", cfg.Site.BaseURL)
	require.True(t, cfg.RateLimit.Enabled)
	require.Equal(t, time.Minute, cfg.Render.CacheTTL)
}
