package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"TCP_PORT", "STATUS_PORT", "FLEET_API_URL", "SHARED_SECRET", "LOG_LEVEL", "IDLE_TIMEOUT", "SINK_QUEUE_SIZE", "OTEL_EXPORTER"} {
		os.Unsetenv(k)
	}
}

func TestLoad_MissingRequiredFails(t *testing.T) {
	clearEnv(t)
	_, err := Load("")
	require.Error(t, err)
}

func TestLoad_EnvSatisfiesRequired(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLEET_API_URL", "https://fleet.example.com")
	t.Setenv("SHARED_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://fleet.example.com", cfg.FleetAPIURL)
	assert.Equal(t, 5000, cfg.TCPPort)
	assert.Equal(t, 256, cfg.SinkQueueSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := dir + "/gateway.yaml"
	require.NoError(t, os.WriteFile(path, []byte("fleet_api_url: https://from-file.example.com\ntcp_port: 6000\n"), 0o600))

	t.Setenv("FLEET_API_URL", "https://from-env.example.com")
	t.Setenv("SHARED_SECRET", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://from-env.example.com", cfg.FleetAPIURL)
	assert.Equal(t, 6000, cfg.TCPPort)
}
