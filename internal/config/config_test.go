package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	require.Len(t, cfg.Source.Files, 2)
	assert.Equal(t, SourceFile{Path: "data/operaciones_co.csv", Country: "CO"}, cfg.Source.Files[0])
	assert.Equal(t, "MX", cfg.Source.Files[1].Country)
	assert.Equal(t, time.Minute, cfg.Source.CacheTTL())
	assert.Equal(t, 5*time.Minute, cfg.Source.RefreshInterval())
	assert.False(t, cfg.Source.Watch)
	assert.Equal(t, `^[A-Z]{2,10}-\d+`, cfg.Source.RecordMarker)
	assert.InDelta(t, 0.6, cfg.Source.MinFieldRatio, 0.001)
	assert.InDelta(t, 100, cfg.Reconcile.Tolerance, 0.001)
	assert.InDelta(t, 0.10, cfg.Reconcile.ErrorRatio, 0.001)
	assert.Equal(t, 10, cfg.Reconcile.DependencyGap)
	assert.Equal(t, 15, cfg.Timeline.ReleaseBufferDays)
	assert.Equal(t, 7, cfg.Alerts.WindowDays)
	assert.Equal(t, 30, cfg.Alerts.PerMinute)
	assert.Equal(t, "medium", cfg.Alerts.MinSeverity)
	assert.Equal(t, 3, cfg.Alerts.RetryAttempts)
	assert.Equal(t, 500, cfg.Alerts.RetryBackoffMs)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
source:
  files:
    - path: exports/co.csv
    - path: exports/mx.csv
      country: MX
  delimiter: ";"
  watch: true
timeline:
  seed: 42
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	require.Len(t, cfg.Source.Files, 2)
	assert.Equal(t, "exports/co.csv", cfg.Source.Files[0].Path)
	assert.Empty(t, cfg.Source.Files[0].Country)
	assert.Equal(t, "MX", cfg.Source.Files[1].Country)
	assert.Equal(t, ";", cfg.Source.Delimiter)
	assert.True(t, cfg.Source.Watch)
	assert.Equal(t, uint64(42), cfg.Timeline.Seed)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, 60, cfg.Source.CacheTTLSecs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("TRADEFLOW_SERVER_PORT", "7070")
	t.Setenv("TRADEFLOW_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TRADEFLOW_ALERTS_WEBHOOK_URL=https://hooks.example.com/x\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("TRADEFLOW_ALERTS_WEBHOOK_URL") }) //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.com/x", cfg.Alerts.WebhookURL)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("source: ["), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Source.Files = []SourceFile{{Path: "co.csv", Country: "CO"}}
	cfg.Source.MinFieldRatio = 0.6
	cfg.Reconcile.Tolerance = 100
	cfg.Reconcile.ErrorRatio = 0.1
	cfg.Server.Port = 8080
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		mutate  func(*Config)
		wantErr string
	}{
		{"derive ok", "derive", func(*Config) {}, ""},
		{"serve ok", "serve", func(*Config) {}, ""},
		{"unknown mode", "batch", func(*Config) {}, "unknown mode"},
		{"no files", "derive", func(c *Config) { c.Source.Files = nil }, "source.files must list"},
		{"empty path", "derive", func(c *Config) { c.Source.Files[0].Path = " " }, "source.files[0].path is required"},
		{"long delimiter", "derive", func(c *Config) { c.Source.Delimiter = ";;" }, "source.delimiter"},
		{"ratio", "derive", func(c *Config) { c.Source.MinFieldRatio = 1.5 }, "min_field_ratio"},
		{"tolerance", "derive", func(c *Config) { c.Reconcile.Tolerance = -1 }, "reconcile.tolerance"},
		{"error ratio", "derive", func(c *Config) { c.Reconcile.ErrorRatio = 2 }, "reconcile.error_ratio"},
		{"port ignored for derive", "derive", func(c *Config) { c.Server.Port = 0 }, ""},
		{"port", "serve", func(c *Config) { c.Server.Port = 0 }, "server.port must be > 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate(tt.mode)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0
	cfg.Reconcile.Tolerance = -5

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "reconcile.tolerance")
}
