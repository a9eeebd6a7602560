package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Service.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, 3*time.Second, cfg.GracePeriod())
	assert.Equal(t, int64(64<<20), cfg.ImageCache.MaxBytes)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFillsMissingFields(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvLogLevel, "")
	path := filepath.Join(t.TempDir(), "stylist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("service:\n  base_url: https://wardrobe.example\nlog:\n  format: json\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://wardrobe.example", cfg.Service.BaseURL)
	assert.Equal(t, 30, cfg.Service.TimeoutSecs)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 600*time.Second, cfg.CacheTTL())
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv(EnvAPIURL, "http://10.0.0.5:9000")
	t.Setenv(EnvLogLevel, "debug")
	path := filepath.Join(t.TempDir(), "stylist.yaml")
	require.NoError(t, Save(path, Default()))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:9000", cfg.Service.BaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvLogLevel, "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Batch.GracePeriodMS = 1500
	cfg.Log.File = "/tmp/stylist.log"
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"ftp scheme", func(c *AppConfig) { c.Service.BaseURL = "ftp://host" }, "unsupported scheme"},
		{"no host", func(c *AppConfig) { c.Service.BaseURL = "http://" }, "missing host"},
		{"negative timeout", func(c *AppConfig) { c.Service.TimeoutSecs = -1 }, "timeout_secs"},
		{"negative grace", func(c *AppConfig) { c.Batch.GracePeriodMS = -5 }, "grace_period_ms"},
		{"negative ttl", func(c *AppConfig) { c.ImageCache.TTLSecs = -1 }, "ttl_secs"},
		{"bad format", func(c *AppConfig) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
