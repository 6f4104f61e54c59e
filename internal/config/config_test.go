package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FT_CLIENT_ID", "")
	t.Setenv("FT_CLIENT_SECRET", "")
	t.Setenv("PORT", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("TOKEN_STORE", "")
	t.Setenv("SEARCH_CACHE_TTL_SECONDS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, DefaultAuthURL, cfg.FranceTravail.AuthURL)
	assert.Equal(t, DefaultSearchURL, cfg.FranceTravail.SearchURL)
	assert.Equal(t, DefaultScope, cfg.FranceTravail.Scope)
	assert.Equal(t, 10*time.Second, cfg.FranceTravail.AuthTimeout())
	assert.Equal(t, 20*time.Second, cfg.FranceTravail.SearchTimeout())
	assert.False(t, cfg.FranceTravail.HasCredentials())
	assert.Equal(t, TokenStoreMemory, cfg.TokenStore.Driver)
	assert.Zero(t, cfg.Search.CacheTTL())
}

func TestDefaultRequestTimeoutCoversRetryPath(t *testing.T) {
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "")
	t.Setenv("FT_AUTH_TIMEOUT_SECONDS", "")
	t.Setenv("FT_SEARCH_TIMEOUT_SECONDS", "")

	cfg, err := Load()
	require.NoError(t, err)

	ft := cfg.FranceTravail
	worst := 2*ft.AuthTimeout() + 2*ft.SearchTimeout()
	assert.GreaterOrEqual(t, cfg.App.RequestTimeout(), worst)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FT_CLIENT_ID", "PAR_app")
	t.Setenv("FT_CLIENT_SECRET", "secret")
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_STORE", "Redis")
	t.Setenv("FT_SEARCH_TIMEOUT_SECONDS", "5")
	t.Setenv("SEARCH_CACHE_TTL_SECONDS", "60")
	t.Setenv("HISTORY_RETENTION_DAYS", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.FranceTravail.HasCredentials())
	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, TokenStoreRedis, cfg.TokenStore.Driver)
	assert.Equal(t, 5*time.Second, cfg.FranceTravail.SearchTimeout())
	assert.Equal(t, time.Minute, cfg.Search.CacheTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.History.Retention())
}

func TestLoadPortFallsBackToAppPort(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("APP_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.App.Port)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("port", func(t *testing.T) {
		t.Setenv("PORT", "http")
		_, err := Load()
		assert.ErrorContains(t, err, "PORT")
	})
	t.Run("token store", func(t *testing.T) {
		t.Setenv("TOKEN_STORE", "etcd")
		_, err := Load()
		assert.ErrorContains(t, err, "TOKEN_STORE")
	})
}

func TestNegativeCacheTTLFallsBack(t *testing.T) {
	t.Setenv("SEARCH_CACHE_TTL_SECONDS", "-5")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.Search.CacheTTL())
}
