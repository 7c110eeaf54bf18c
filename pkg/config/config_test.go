package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-csodata/pkg/client"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "csodata.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, client.DefaultBaseURL, cfg.BaseURL)
	assert.True(t, cfg.Cache)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
base_url: http://localhost:8080/api
timeout: 5s
retries: 5
cache: false
cache_ttl: 1h30m
sanitise: true
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.Retries)
	assert.False(t, cfg.Cache)
	assert.Equal(t, 90*time.Minute, cfg.CacheTTL)
	assert.Equal(t, Default().CacheSize, cfg.CacheSize, "unset keys keep their default")
	assert.True(t, cfg.Sanitise)
	assert.Equal(t, "debug", cfg.LogLevel)

	opts := cfg.CacheOptions()
	assert.Equal(t, 90*time.Minute, opts.TTL)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"malformed", "timeout: [", "parse"},
		{"bad duration", "timeout: soon", "parse"},
		{"no attempts", "retries: 0", "retries"},
		{"empty cache", "cache_size: 0", "cache_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}
