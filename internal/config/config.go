// Package config reads runtime settings from ARBOR_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type LogFormat string

const (
	LogText LogFormat = "text"
	LogJSON LogFormat = "json"
)

// Config holds everything cmd/arbor needs to wire the application.
type Config struct {
	DBPath        string
	PresetsFile   string // optional catalog replacing the embedded presets
	DefaultPreset string
	LogLevel      slog.Level
	LogFormat     LogFormat
	LogUseCases   bool
	Actor         string // recorded as MovedBy on migration log entries
}

// DefaultConfig returns a Config with sensible defaults rooted at home.
func DefaultConfig(home string) Config {
	return Config{
		DBPath:        filepath.Join(home, ".arbor", "arbor.db"),
		DefaultPreset: "scrum",
		LogLevel:      slog.LevelWarn,
		LogFormat:     LogText,
		Actor:         "arbor",
	}
}

// Load reads configuration from environment variables, falling back to
// defaults for any unset or unparsable values.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("finding home directory: %w", err)
	}
	cfg := DefaultConfig(home)

	if v := os.Getenv("ARBOR_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("ARBOR_PRESETS"); v != "" {
		cfg.PresetsFile = v
	}
	if v := os.Getenv("ARBOR_DEFAULT_PRESET"); v != "" {
		cfg.DefaultPreset = v
	}
	if v := os.Getenv("ARBOR_LOG_LEVEL"); v != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(v)); err == nil {
			cfg.LogLevel = level
		}
	}
	if v := os.Getenv("ARBOR_LOG_FORMAT"); v != "" {
		switch LogFormat(strings.ToLower(v)) {
		case LogJSON:
			cfg.LogFormat = LogJSON
		case LogText:
			cfg.LogFormat = LogText
		}
	}
	if v := os.Getenv("ARBOR_LOG_USE_CASES"); v != "" {
		cfg.LogUseCases, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("ARBOR_USER"); v != "" {
		cfg.Actor = v
	} else if v := os.Getenv("USER"); v != "" {
		cfg.Actor = v
	}

	return cfg, nil
}
