package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/opcenter.db")
	t.Setenv("SERVICE_TOKEN", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 15*time.Second, cfg.DrainInterval)
	assert.Equal(t, 60*time.Second, cfg.DrainPassTimeout)
	assert.Equal(t, 50, cfg.DrainBatchSize)
	assert.Empty(t, cfg.NATSURL)
	assert.Empty(t, cfg.ProcessorURL)
	assert.Equal(t, "anthropic", cfg.DefaultLLM)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.TracingEnabled)
}

func TestLoadRequiresDBPath(t *testing.T) {
	t.Setenv("DB_PATH", "")
	t.Setenv("SERVICE_TOKEN", "secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PATH")
}

func TestLoadRequiresServiceToken(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/opcenter.db")
	t.Setenv("SERVICE_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVICE_TOKEN")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/opcenter.db")
	t.Setenv("SERVICE_TOKEN", "secret")
	t.Setenv("DRAIN_INTERVAL", "5s")
	t.Setenv("DRAIN_BATCH_SIZE", "10")
	t.Setenv("PROCESSOR_URL", "https://functions.example.com/deliver")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.DrainInterval)
	assert.Equal(t, 10, cfg.DrainBatchSize)
	assert.Equal(t, "https://functions.example.com/deliver", cfg.ProcessorURL)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/opcenter.db")
	t.Setenv("SERVICE_TOKEN", "secret")
	t.Setenv("DRAIN_INTERVAL", "soon")
	t.Setenv("DRAIN_BATCH_SIZE", "many")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.DrainInterval)
	assert.Equal(t, 50, cfg.DrainBatchSize)
}
