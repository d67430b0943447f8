package config

import "wildgold/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`      // debug, info, warn, error
	Format     string          `yaml:"format"`     // json, text
	DebugMode  bool            `yaml:"debug_mode"` // Master toggle - false = no log files
	LogsDir    string          `yaml:"logs_dir"`
	Categories map[string]bool `yaml:"categories"` // Per-category toggles
}

// ToLogging converts the section into the logging package's settings.
func (c *LoggingConfig) ToLogging() logging.Config {
	return logging.Config{
		DebugMode:  c.DebugMode,
		Level:      c.Level,
		JSONFormat: c.Format == "json",
		LogsDir:    c.LogsDir,
		Categories: c.Categories,
	}
}
