package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.False(t, cfg.Server.Debug)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "Hochzeitsanzug", cfg.Pipedrive.Pipeline)
	assert.Equal(t, "Neu", cfg.Pipedrive.Stage)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, 5, cfg.RateLimit.PerMinute)
	assert.Equal(t, 20, cfg.RateLimit.PerHour)
	assert.Equal(t, 50, cfg.RateLimit.PerDay)
	assert.False(t, cfg.Pipedrive.Configured())
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
server:
  port: 9090
  debug: true
log:
  level: debug
  format: console
pipedrive:
  token: tok
  domain: bettercallhenk
mail:
  host: smtp.example.de
  staff:
    - henk@bettercallhenk.de
    - lena@bettercallhenk.de
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.Pipedrive.Configured())
	assert.Equal(t, []string{"henk@bettercallhenk.de", "lena@bettercallhenk.de"}, cfg.Mail.Staff)
	// Defaults still apply for unset values
	assert.Equal(t, "Hochzeitsanzug", cfg.Pipedrive.Pipeline)
	assert.Equal(t, 587, cfg.Mail.Port)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("LANDING_LOG_LEVEL", "warn")
	t.Setenv("LANDING_PIPEDRIVE_TOKEN", "env-token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "env-token", cfg.Pipedrive.Token)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("LANDING_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: 8000},
			RateLimit: RateLimitConfig{PerMinute: 5, PerHour: 20, PerDay: 50},
			Pipedrive: PipedriveConfig{Pipeline: "Hochzeitsanzug", Stage: "Neu"},
		}
	}

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("bad port", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Port = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server.port")
	})

	t.Run("bad quota", func(t *testing.T) {
		cfg := valid()
		cfg.RateLimit.PerHour = 0
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate_limit")
	})

	t.Run("crm without pipeline name", func(t *testing.T) {
		cfg := valid()
		cfg.Pipedrive.Token = "tok"
		cfg.Pipedrive.Domain = "acme"
		cfg.Pipedrive.Pipeline = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pipedrive.pipeline")
	})
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
