package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	for _, key := range []string{"PORT", "DATABASE_URL", "STORE", "JWT_SECRET", "REDIS_URL", "REQUEST_TIMEOUT", "WS_WRITE_TIMEOUT", "WS_BUFFER_SIZE", "STRICT_CONTRIBUTION_ORDER", "EMAIL_PROVIDER", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5*time.Second, cfg.WSWriteTimeout)
	assert.Equal(t, 32, cfg.WSBufferSize)
	assert.True(t, cfg.StrictContributionOrder)
	assert.Equal(t, "noop", cfg.Email.Provider)
	assert.Empty(t, cfg.CORSAllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("STORE", " Memory ")
	t.Setenv("WS_BUFFER_SIZE", "8")
	t.Setenv("WS_WRITE_TIMEOUT", "250ms")
	t.Setenv("STRICT_CONTRIBUTION_ORDER", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 8, cfg.WSBufferSize)
	assert.Equal(t, 250*time.Millisecond, cfg.WSWriteTimeout)
	assert.False(t, cfg.StrictContributionOrder)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("GO_ENV", "production")
	t.Setenv("WS_BUFFER_SIZE", "-3")
	t.Setenv("REQUEST_TIMEOUT", "soon")
	t.Setenv("STRICT_CONTRIBUTION_ORDER", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.WSBufferSize)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.StrictContributionOrder)
}
