package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/artpar/shipper/internal/core/target"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all tool configuration, including the target registry.
type Config struct {
	Log     LogConfig      `mapstructure:"log"`
	SSH     SSHConfig      `mapstructure:"ssh"`
	History HistoryConfig  `mapstructure:"history"`
	Build   BuildConfig    `mapstructure:"build"`
	Targets []TargetConfig `mapstructure:"targets"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SSHConfig holds remote session configuration.
type SSHConfig struct {
	User           string        `mapstructure:"user"`
	Port           int           `mapstructure:"port"`
	KeyFile        string        `mapstructure:"key_file"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
}

// HistoryConfig holds the local deployment history ledger configuration.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// BuildConfig holds optional template set overrides. Empty values select
// the built-in templates.
type BuildConfig struct {
	WebappTemplates string `mapstructure:"webapp_templates"`
	NginxTemplates  string `mapstructure:"nginx_templates"`
}

// TargetConfig is one registered target. Ports are "host:container"
// strings; their order is preserved into the compose document.
type TargetConfig struct {
	Name            string   `mapstructure:"name"`
	SourceDir       string   `mapstructure:"source_dir"`
	BuildDir        string   `mapstructure:"build_dir"`
	DeploymentDir   string   `mapstructure:"deployment_dir"`
	Domain          string   `mapstructure:"domain"`
	Email           string   `mapstructure:"email"`
	ApplicationPort int      `mapstructure:"application_port"`
	Ports           []string `mapstructure:"ports"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("ssh.user", "root")
	v.SetDefault("ssh.port", 22)
	v.SetDefault("ssh.key_file", "")
	v.SetDefault("ssh.connect_timeout", "10s")
	v.SetDefault("ssh.command_timeout", "10m")
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.dsn", "./data/shipper.db")
	v.SetDefault("build.webapp_templates", "")
	v.SetDefault("build.nginx_templates", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("shipper")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigParseError); ok {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		// File not found is OK, we'll use defaults
	}

	v.SetEnvPrefix("SHIPPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// =============================================================================
// Target Resolution
// =============================================================================

// FindTarget resolves a registered target by name.
func (c *Config) FindTarget(name string) (*target.Target, error) {
	for i := range c.Targets {
		if c.Targets[i].Name == name {
			return c.Targets[i].toTarget()
		}
	}
	return nil, fmt.Errorf("target %q is not registered; known targets: %s", name, strings.Join(c.TargetNames(), ", "))
}

// TargetNames returns the registered target names in config order.
func (c *Config) TargetNames() []string {
	names := make([]string, 0, len(c.Targets))
	for i := range c.Targets {
		names = append(names, c.Targets[i].Name)
	}
	return names
}

func (tc *TargetConfig) toTarget() (*target.Target, error) {
	ports := make([]target.PortBinding, 0, len(tc.Ports))
	for _, spec := range tc.Ports {
		binding, err := parsePortBinding(spec)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", tc.Name, err)
		}
		ports = append(ports, binding)
	}

	t := &target.Target{
		Name:            tc.Name,
		SourceDir:       tc.SourceDir,
		BuildDir:        tc.BuildDir,
		DeploymentDir:   tc.DeploymentDir,
		Domain:          tc.Domain,
		Email:           tc.Email,
		ApplicationPort: tc.ApplicationPort,
		Ports:           ports,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// parsePortBinding parses a "host:container" port specification.
func parsePortBinding(spec string) (target.PortBinding, error) {
	hostPart, containerPart, ok := strings.Cut(spec, ":")
	if !ok {
		return target.PortBinding{}, fmt.Errorf("invalid port mapping %q, expected \"host:container\"", spec)
	}
	host, err := strconv.Atoi(hostPart)
	if err != nil {
		return target.PortBinding{}, fmt.Errorf("invalid host port in %q", spec)
	}
	container, err := strconv.Atoi(containerPart)
	if err != nil {
		return target.PortBinding{}, fmt.Errorf("invalid container port in %q", spec)
	}
	return target.PortBinding{Host: host, Container: container}, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
