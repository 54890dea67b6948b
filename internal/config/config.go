// Package config loads pulse.yaml, the configuration file for the pulse
// CLI and the inspector server.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "pulse.yaml"

	// DefaultInspectorAddr is the default inspector listen address.
	DefaultInspectorAddr = "localhost:9166"

	// DefaultMetricsNamespace is the default Prometheus namespace.
	DefaultMetricsNamespace = "pulse"
)

// Config is the complete pulse.yaml configuration.
type Config struct {
	// Name is the application name, used in log output and trace names.
	Name string `yaml:"name,omitempty"`

	// Inspector configures the inspector HTTP server.
	Inspector InspectorConfig `yaml:"inspector,omitempty"`

	// Metrics configures Prometheus export.
	Metrics MetricsConfig `yaml:"metrics,omitempty"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log,omitempty"`

	// configPath stores the path the config was loaded from.
	configPath string
}

// InspectorConfig configures the inspector server.
type InspectorConfig struct {
	// Enabled turns the inspector on.
	Enabled bool `yaml:"enabled,omitempty"`

	// Addr is the listen address (default: "localhost:9166").
	Addr string `yaml:"addr,omitempty"`
}

// MetricsConfig configures Prometheus export.
type MetricsConfig struct {
	// Enabled turns metric collection on.
	Enabled bool `yaml:"enabled,omitempty"`

	// Namespace is the metrics namespace (default: "pulse").
	Namespace string `yaml:"namespace,omitempty"`

	// Subsystem is the metrics subsystem.
	Subsystem string `yaml:"subsystem,omitempty"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error" (default: "info").
	Level string `yaml:"level,omitempty"`

	// Format is "text" or "json" (default: "text").
	Format string `yaml:"format,omitempty"`

	// File is an optional path to also write logs to.
	File string `yaml:"file,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Name: "pulse",
		Inspector: InspectorConfig{
			Addr: DefaultInspectorAddr,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultMetricsNamespace,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from pulse.yaml in the given directory.
// A missing file yields the defaults, not an error.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the given path.
// A missing file yields the defaults, not an error.
func LoadFile(path string) (*Config, error) {
	cfg := New()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the given path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	c.configPath = path
	return nil
}

// Path returns the path the config was loaded from, or "" for defaults.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "pulse"
	}
	if c.Inspector.Addr == "" {
		c.Inspector.Addr = DefaultInspectorAddr
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}

	return nil
}

// Exists reports whether a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
