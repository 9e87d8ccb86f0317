package config

import "pathtutor/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Enabled    bool            `yaml:"enabled"` // Master toggle - false = no logging
	Level      string          `yaml:"level"`   // debug, info, warn, error
	File       string          `yaml:"file"`    // empty = stderr
	JSON       bool            `yaml:"json"`
	Categories map[string]bool `yaml:"categories"` // Per-category toggles
}

// ToLogging converts to the logging package's config.
func (c LoggingConfig) ToLogging() logging.Config {
	return logging.Config{
		Enabled:    c.Enabled,
		Level:      c.Level,
		File:       c.File,
		JSONFormat: c.JSON,
		Categories: c.Categories,
	}
}
