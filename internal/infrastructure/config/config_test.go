package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test from an empty directory with mapmate env vars cleared
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	for _, k := range []string{
		"MAPMATE_API_BASE_URL",
		"MAPMATE_SESSION_BACKEND",
		"MAPMATE_SESSION_PROFILE",
		"MAPMATE_OUTPUT_FORMAT",
		"MAPMATE_TELEMETRY_ENABLED",
		"MAPMATE_TELEMETRY_SAMPLING_RATIO",
		"MAPMATE_PLACES_API_KEY",
		"KAKAO_REST_API_KEY",
		"VITE_KAKAO_REST_API_KEY",
	} {
		t.Setenv(k, "")
	}
	return dir
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when nothing is set", func(t *testing.T) {
		isolate(t)

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "mapmate", cfg.App.Name)
		assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
		assert.Equal(t, SessionBackendFile, cfg.Session.Backend)
		assert.Equal(t, "default", cfg.Session.Profile)
		assert.Equal(t, "session.json", filepath.Base(cfg.Session.Path))
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
		assert.Equal(t, "mapmate:session:", cfg.Redis.KeyPrefix)
		assert.Empty(t, cfg.Log.Level, "log settings fall back to the app.env preset")
		assert.Equal(t, "https://dapi.kakao.com", cfg.Places.BaseURL)
		assert.Equal(t, "table", cfg.Output.Format)
		assert.False(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "localhost:4317", cfg.Telemetry.CollectorEndpoint)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
	})

	t.Run("loads values from environment variables with MAPMATE prefix", func(t *testing.T) {
		isolate(t)
		t.Setenv("MAPMATE_API_BASE_URL", "https://api.example.com")
		t.Setenv("MAPMATE_SESSION_BACKEND", "memory")
		t.Setenv("MAPMATE_OUTPUT_FORMAT", "json")

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
		assert.Equal(t, SessionBackendMemory, cfg.Session.Backend)
		assert.Equal(t, "json", cfg.Output.Format)
	})

	t.Run("reads the config file", func(t *testing.T) {
		dir := isolate(t)
		path := filepath.Join(dir, "custom.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: http://backend:9090
session:
  backend: redis
  profile: work
redis:
  host: cache
  port: 6380
  db: 2
telemetry:
  enabled: true
  collector_endpoint: otel:4317
  sampling_ratio: 0.25
`), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "http://backend:9090", cfg.API.BaseURL)
		assert.Equal(t, SessionBackendRedis, cfg.Session.Backend)
		assert.Equal(t, "work", cfg.Session.Profile)
		assert.Equal(t, "cache:6380", cfg.Redis.Addr())
		assert.Equal(t, 2, cfg.Redis.DB)
		assert.True(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "otel:4317", cfg.Telemetry.CollectorEndpoint)
		assert.Equal(t, 0.25, cfg.Telemetry.SamplingRatio)
	})

	t.Run("environment overrides the config file", func(t *testing.T) {
		dir := isolate(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "mapmate.toml"), []byte(`
[output]
format = "yaml"
`), 0o600))
		t.Setenv("MAPMATE_OUTPUT_FORMAT", "json")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "json", cfg.Output.Format)
	})

	t.Run("picks up the places key from .env", func(t *testing.T) {
		dir := isolate(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("KAKAO_REST_API_KEY=kakao-test-key\n"), 0o600))
		// godotenv does not override existing variables, so drop the blank one
		require.NoError(t, os.Unsetenv("KAKAO_REST_API_KEY"))
		t.Cleanup(func() { os.Unsetenv("KAKAO_REST_API_KEY") })

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "kakao-test-key", cfg.Places.APIKey)
	})

	t.Run("missing explicit config file is an error", func(t *testing.T) {
		dir := isolate(t)
		_, err := Load(filepath.Join(dir, "nope.toml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"relative base url", func(c *Config) { c.API.BaseURL = "/api" }, "api.base_url"},
		{"ftp base url", func(c *Config) { c.API.BaseURL = "ftp://host" }, "scheme"},
		{"unknown backend", func(c *Config) { c.Session.Backend = "sqlite" }, "session.backend"},
		{"bad redis port", func(c *Config) { c.Redis.Port = 70000 }, "redis.port"},
		{"negative redis db", func(c *Config) { c.Redis.DB = -1 }, "redis.db"},
		{"unknown output", func(c *Config) { c.Output.Format = "csv" }, "output.format"},
		{"sampling ratio above one", func(c *Config) { c.Telemetry.SamplingRatio = 1.5 }, "telemetry.sampling_ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
