// Package config loads leakwatch configuration from file and environment.
// Thresholds are advisory heuristics, not safety constraints, so values are
// accepted as given and never validated against ranges.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// TrackersConfig holds the per-category enable flags.
type TrackersConfig struct {
	Listeners bool `mapstructure:"listeners"`
	Timers    bool `mapstructure:"timers"`
	Nodes     bool `mapstructure:"nodes"`
	Store     bool `mapstructure:"store"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Components map[string]string `mapstructure:"components"`
}

// Config represents the application configuration.
type Config struct {
	IntervalSeconds int            `mapstructure:"interval_seconds"`
	MemoryAlertMB   int            `mapstructure:"memory_alert_mb"`
	OutputFormat    string         `mapstructure:"output_format"`
	Trackers        TrackersConfig `mapstructure:"trackers"`
	Logging         LoggingConfig  `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/leakwatch/config.yaml
//   - $HOME/.config/leakwatch/config.yaml
//
// Environment variables are prefixed with LEAKWATCH_
// (e.g., LEAKWATCH_INTERVAL_SECONDS).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "leakwatch"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "leakwatch"))

	v.SetEnvPrefix("LEAKWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults registers every configuration default on the given viper
// instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("interval_seconds", DefaultIntervalSeconds)
	v.SetDefault("memory_alert_mb", DefaultMemoryAlertMB)
	v.SetDefault("output_format", DefaultOutputFormat)

	v.SetDefault("trackers.listeners", true)
	v.SetDefault("trackers.timers", true)
	v.SetDefault("trackers.nodes", true)
	v.SetDefault("trackers.store", true)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.components", DefaultComponentLevels)
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "leakwatch"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "leakwatch"), nil
}

// StateDir returns $XDG_STATE_HOME/leakwatch/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "leakwatch")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "leakwatch.log")
}
