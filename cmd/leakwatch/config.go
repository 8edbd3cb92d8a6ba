package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pramuddhika/leakwatch/pkg/leakwatch/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage leakwatch configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/leakwatch/config.yaml (if set)
  2. ~/.config/leakwatch/config.yaml

Environment variables can override config file settings using the LEAKWATCH_ prefix:
  LEAKWATCH_INTERVAL_SECONDS=10
  LEAKWATCH_OUTPUT_FORMAT=json
  LEAKWATCH_TRACKERS_STORE=false`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		printError("Failed to load configuration: %v", err)
		cfg = &config.Config{
			IntervalSeconds: config.DefaultIntervalSeconds,
			MemoryAlertMB:   config.DefaultMemoryAlertMB,
			OutputFormat:    config.DefaultOutputFormat,
			Trackers: config.TrackersConfig{
				Listeners: true,
				Timers:    true,
				Nodes:     true,
				Store:     true,
			},
		}
	}

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Printf("Config file: %s\n\n", configFile)
	} else {
		fmt.Println("Config file: (using defaults, no file found)")
		fmt.Println()
	}

	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("interval_seconds:     %d\n", cfg.IntervalSeconds)
	fmt.Printf("memory_alert_mb:      %d\n", cfg.MemoryAlertMB)
	fmt.Printf("output_format:        %s\n", cfg.OutputFormat)
	fmt.Printf("trackers.listeners:   %t\n", cfg.Trackers.Listeners)
	fmt.Printf("trackers.timers:      %t\n", cfg.Trackers.Timers)
	fmt.Printf("trackers.nodes:       %t\n", cfg.Trackers.Nodes)
	fmt.Printf("trackers.store:       %t\n", cfg.Trackers.Store)
	fmt.Printf("logging.level:        %s\n", cfg.Logging.Level)
	fmt.Printf("logging.path:         %s\n", cfg.Logging.Path)

	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	envVars := []string{
		"LEAKWATCH_INTERVAL_SECONDS",
		"LEAKWATCH_MEMORY_ALERT_MB",
		"LEAKWATCH_OUTPUT_FORMAT",
		"LEAKWATCH_TRACKERS_LISTENERS",
		"LEAKWATCH_TRACKERS_TIMERS",
		"LEAKWATCH_TRACKERS_NODES",
		"LEAKWATCH_TRACKERS_STORE",
		"LEAKWATCH_LOGGING_LEVEL",
	}
	found := false
	for _, name := range envVars {
		if val := os.Getenv(name); val != "" {
			fmt.Printf("%s=%s\n", name, val)
			found = true
		}
	}
	if !found {
		fmt.Println("(none)")
	}

	return nil
}

// defaultConfigContent is written by config init.
const defaultConfigContent = `# leakwatch configuration
# See 'leakwatch config show' for the effective settings.

# Detection cycle interval in seconds
interval_seconds: 30

# Advisory memory alert threshold in MB
memory_alert_mb: 300

# Report format: pretty, json, yaml
output_format: pretty

# Per-category tracking
trackers:
  listeners: true
  timers: true
  nodes: true
  store: true

# Logging
logging:
  level: info
  # path: /path/to/leakwatch.log
`

// runConfigInit creates a default configuration file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		printInfo("Config file already exists: %s", path)
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	printInfo("Created config file: %s", path)
	return nil
}

// runConfigPath prints the configuration file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Println(configFile)
		return nil
	}

	dir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	fmt.Println(filepath.Join(dir, "config.yaml"))
	return nil
}
