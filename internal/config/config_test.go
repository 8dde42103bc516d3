package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"INTERCEPTOR_PORT", "TTC_KEY", "COMPRESSION_API",
		"COMPRESSION_AGGRESSIVENESS", "MIN_TEXT_LENGTH",
		"UPSTREAM_BASE_URL", "TELEMETRY_LOG", "SAVINGS_DB", "LOG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultUpstreamBaseURL, cfg.Upstream.BaseURL)
	assert.Equal(t, DefaultForwardTimeout, cfg.Upstream.Timeout)
	assert.Equal(t, DefaultAggressiveness, cfg.Compression.Aggressiveness)
	assert.Equal(t, DefaultMinTextLength, cfg.Compression.MinTextLength)
	assert.False(t, cfg.CompressionEnabled())
}

func TestLoadFromBytes(t *testing.T) {
	clearEnv(t)

	yaml := []byte(`
server:
  port: 9000
  read_timeout: 1m
compression:
  api_key: yaml-key
  aggressiveness: 0.8
upstream:
  base_url: https://example.com
`)
	cfg, err := LoadFromBytes(yaml)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.Server.ReadTimeout)
	assert.Equal(t, "yaml-key", cfg.Compression.APIKey)
	assert.Equal(t, 0.8, cfg.Compression.Aggressiveness)
	assert.Equal(t, "https://example.com", cfg.Upstream.BaseURL)

	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultMinTextLength, cfg.Compression.MinTextLength)
	assert.True(t, cfg.CompressionEnabled())
}

func TestEnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("INTERCEPTOR_PORT", "7000")
	t.Setenv("TTC_KEY", "env-key")
	t.Setenv("COMPRESSION_AGGRESSIVENESS", "0.3")
	t.Setenv("MIN_TEXT_LENGTH", "200")

	yaml := []byte(`
server:
  port: 9000
compression:
  api_key: yaml-key
`)
	cfg, err := LoadFromBytes(yaml)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "env-key", cfg.Compression.APIKey)
	assert.Equal(t, 0.3, cfg.Compression.Aggressiveness)
	assert.Equal(t, 200, cfg.Compression.MinTextLength)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{
			name: "port out of range",
			yaml: "server:\n  port: 70000\n",
		},
		{
			name: "negative port",
			yaml: "server:\n  port: -1\n",
		},
		{
			name: "aggressiveness above one",
			yaml: "compression:\n  aggressiveness: 1.5\n",
		},
		{
			name: "negative min text length",
			yaml: "compression:\n  min_text_length: -10\n",
		},
		{
			name: "empty upstream",
			yaml: "upstream:\n  base_url: \"\"\n",
		},
		{
			name: "malformed env port",
			env:  map[string]string{"INTERCEPTOR_PORT": "not-a-number"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFromBytes([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
