package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rick1290/estuary-auth/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, "estuary.session", cfg.SessionCookie)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenDuration)
	assert.Equal(t, 5*time.Minute, cfg.RefreshBuffer)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionMaxAge)
	assert.Equal(t, 10*time.Second, cfg.UpstreamTimeout)
}

func TestAPIURL_DefaultsToLocalBackend(t *testing.T) {
	cfg := &config.Config{}
	assert.Equal(t, "http://localhost:8000", cfg.APIURL())
}

func TestAPIURL_PublicURLUsedWhenInternalAbsent(t *testing.T) {
	cfg := &config.Config{PublicAPIURL: "https://api.estuary.example"}
	assert.Equal(t, "https://api.estuary.example", cfg.APIURL())
}

func TestAPIURL_InternalURLWins(t *testing.T) {
	cfg := &config.Config{
		InternalAPIURL: "http://django.internal:8000",
		PublicAPIURL:   "https://api.estuary.example",
	}
	assert.Equal(t, "http://django.internal:8000", cfg.APIURL())
}

func TestLoadConfig_ReadsEnvironment(t *testing.T) {
	t.Setenv("INTERNAL_API_URL", "http://django.internal:8000")
	t.Setenv("SESSION_SECRET", "env-secret")
	t.Setenv("COOKIE_DOMAIN", ".estuary.example")

	cfg, err := config.LoadConfig(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "http://django.internal:8000", cfg.APIURL())
	assert.Equal(t, "env-secret", cfg.SessionSecret)
	assert.Equal(t, ".estuary.example", cfg.CookieDomain)
}
