package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/shipper/internal/core/target"
)

// =============================================================================
// Loading Tests
// =============================================================================

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "root", cfg.SSH.User)
	assert.Equal(t, 22, cfg.SSH.Port)
	assert.Equal(t, 10*time.Second, cfg.SSH.ConnectTimeout)
	assert.Equal(t, 10*time.Minute, cfg.SSH.CommandTimeout)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "./data/shipper.db", cfg.History.DSN)
	assert.Empty(t, cfg.Targets)
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shipper.yaml")
	content := `
log:
  level: debug
  format: json
ssh:
  user: deploy
  key_file: /home/deploy/.ssh/id_ed25519
  command_timeout: 30m
history:
  enabled: false
targets:
  - name: webhook-bot
    source_dir: ./apps/webhook-bot
    build_dir: ./build/webhook-bot
    deployment_dir: /srv/webhook-bot
    domain: bot.example.com
    email: ops@example.com
    application_port: 8000
    ports:
      - "80:8000"
      - "443:8443"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "deploy", cfg.SSH.User)
	assert.Equal(t, 22, cfg.SSH.Port) // default survives partial override
	assert.Equal(t, 30*time.Minute, cfg.SSH.CommandTimeout)
	assert.False(t, cfg.History.Enabled)
	require.Len(t, cfg.Targets, 1)
	assert.Equal(t, []string{"80:8000", "443:8443"}, cfg.Targets[0].Ports)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("SHIPPER_SSH_USER", "ubuntu")
	t.Setenv("SHIPPER_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "ubuntu", cfg.SSH.User)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shipper.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

// =============================================================================
// Target Resolution Tests
// =============================================================================

func registryConfig() *Config {
	return &Config{
		Targets: []TargetConfig{
			{
				Name:            "webhook-bot",
				SourceDir:       "./apps/webhook-bot",
				BuildDir:        "./build/webhook-bot",
				DeploymentDir:   "/srv/webhook-bot",
				Domain:          "bot.example.com",
				Email:           "ops@example.com",
				ApplicationPort: 8000,
				Ports:           []string{"80:8000"},
			},
		},
	}
}

func TestFindTarget_Resolves(t *testing.T) {
	got, err := registryConfig().FindTarget("webhook-bot")
	require.NoError(t, err)

	assert.Equal(t, "webhook-bot", got.Name)
	assert.Equal(t, []target.PortBinding{{Host: 80, Container: 8000}}, got.Ports)
}

func TestFindTarget_UnknownNameListsRegistry(t *testing.T) {
	_, err := registryConfig().FindTarget("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook-bot")
}

func TestFindTarget_InvalidTargetRejected(t *testing.T) {
	cfg := registryConfig()
	cfg.Targets[0].Domain = "not a domain"

	_, err := cfg.FindTarget("webhook-bot")
	var validationErr *target.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestParsePortBinding(t *testing.T) {
	binding, err := parsePortBinding("80:8000")
	require.NoError(t, err)
	assert.Equal(t, target.PortBinding{Host: 80, Container: 8000}, binding)

	_, err = parsePortBinding("8000")
	assert.Error(t, err)

	_, err = parsePortBinding("http:8000")
	assert.Error(t, err)
}

// =============================================================================
// Logger Tests
// =============================================================================

func TestSetupLogger_Levels(t *testing.T) {
	logger := SetupLogger(&Config{Log: LogConfig{Level: "debug", Format: "json"}})
	assert.True(t, logger.Enabled(nil, slog.LevelDebug))

	logger = SetupLogger(&Config{Log: LogConfig{Level: "error", Format: "text"}})
	assert.False(t, logger.Enabled(nil, slog.LevelWarn))
	assert.True(t, logger.Enabled(nil, slog.LevelError))
}
