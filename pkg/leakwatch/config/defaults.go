package config

// Default configuration values.
const (
	// DefaultIntervalSeconds is the default detection cycle period.
	DefaultIntervalSeconds = 30

	// DefaultMemoryAlertMB is the advisory memory alert threshold.
	DefaultMemoryAlertMB = 300

	// DefaultOutputFormat is the report output format for the CLI.
	DefaultOutputFormat = "pretty"

	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"
)

// DefaultComponentLevels holds the default per-component log levels.
var DefaultComponentLevels = map[string]string{
	"engine":   "info",
	"listener": "warn",
	"timer":    "warn",
	"node":     "warn",
	"store":    "warn",
}
