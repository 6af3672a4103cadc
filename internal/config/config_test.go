package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8002", cfg.HTTPPort)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "accident_monitor", cfg.DBName)
	assert.Equal(t, int32(15), cfg.DBMaxConns)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 32, cfg.HubBufferSize)
	assert.Equal(t, 1000, cfg.StreamPollIntervalMS)
	assert.Equal(t, 10, cfg.StreamHeartbeatPolls)
	assert.Equal(t, 100, cfg.EventPageLimit)
	assert.Equal(t, 50, cfg.SummaryPageLimit)
	assert.Equal(t, 300, cfg.StateCacheTTLSeconds)
	assert.Empty(t, cfg.HardwareAPIKeys)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("HUB_BUFFER_SIZE", "4")
	t.Setenv("STREAM_POLL_INTERVAL_MS", "250")
	t.Setenv("HW_API_KEYS", "key-a, key-b ,,key-c")

	cfg := Load()

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 4, cfg.HubBufferSize)
	assert.Equal(t, 250, cfg.StreamPollIntervalMS)
	assert.Equal(t, []string{"key-a", "key-b", "key-c"}, cfg.HardwareAPIKeys)
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	t.Setenv("EVENT_PAGE_LIMIT", "lots")

	assert.Equal(t, 100, Load().EventPageLimit)
}
