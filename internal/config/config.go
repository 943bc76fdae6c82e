// Package config holds the nsemit command's settings.
//
// Settings come from NSEMIT_* environment variables. Command-line flags are
// applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dshills/nsemit/internal/logging"
)

// ErrInvalidLogLevel is returned for log levels logging.ParseLevel does not
// recognize.
var ErrInvalidLogLevel = errors.New("invalid log level")

// Settings configures a scenario run.
type Settings struct {
	// LogLevel is the minimum level written to stderr.
	LogLevel string `env:"NSEMIT_LOG_LEVEL" envDefault:"info"`

	// Isolate recovers callback panics and keeps delivering after failures.
	Isolate bool `env:"NSEMIT_ISOLATE"`

	// Watch re-runs the scenario whenever its file changes.
	Watch bool `env:"NSEMIT_WATCH"`

	// Debounce is the quiet period before a change triggers a re-run.
	Debounce time.Duration `env:"NSEMIT_DEBOUNCE" envDefault:"100ms"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns settings from the environment, with defaults for anything
// unset.
func Load() (Settings, error) {
	var s Settings
	if err := ParseEnv(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the settings.
func (s Settings) Validate() error {
	switch strings.ToLower(s.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w %q (must be debug, info, warn, or error)", ErrInvalidLogLevel, s.LogLevel)
	}
	if s.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative, got %v", s.Debounce)
	}
	return nil
}

// Level returns the parsed log level.
func (s Settings) Level() logging.Level {
	return logging.ParseLevel(s.LogLevel)
}
