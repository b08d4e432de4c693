package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("TOKEN", "")
	t.Setenv("SERVICE_API_KEY", "secret")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("TOKEN", "bot-token")
	t.Setenv("SERVICE_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TOKEN", "bot-token")
	t.Setenv("SERVICE_API_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "bot-token", cfg.BotToken)
	assert.Equal(t, "secret", cfg.ServiceAPIKey)
	assert.Equal(t, 256, cfg.IngestQueueSize)
	assert.False(t, cfg.DebugRoutes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TOKEN", "bot-token")
	t.Setenv("SERVICE_API_KEY", "secret")
	t.Setenv("PORT", "8080")
	t.Setenv("INGEST_QUEUE_SIZE", "32")
	t.Setenv("DEBUG_ROUTES", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 32, cfg.IngestQueueSize)
	assert.True(t, cfg.DebugRoutes)
}

func TestLoadIgnoresBadQueueSize(t *testing.T) {
	t.Setenv("TOKEN", "bot-token")
	t.Setenv("SERVICE_API_KEY", "secret")
	t.Setenv("INGEST_QUEUE_SIZE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.IngestQueueSize)
}
