// Package logging builds the zerolog loggers of the port host.
//
// Standard output carries the port protocol, so loggers only ever write to
// standard error or to a log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel  = "ERLPORT_LOG_LEVEL"
	EnvLogFormat = "ERLPORT_LOG_FORMAT"

	FormatJSON    = "json"
	FormatConsole = "console"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config selects the level, format and destination of a logger.
type Config struct {
	Level  zerolog.Level
	Format string
	// File is appended to when set; otherwise logs go to standard error.
	File string
}

// DefaultConfig returns the defaults of profile.
func DefaultConfig(profile Profile) Config {
	switch profile {
	case ProfileTest:
		return Config{Level: zerolog.DebugLevel, Format: FormatConsole}
	default:
		return Config{Level: zerolog.InfoLevel, Format: FormatJSON}
	}
}

// ApplyEnv overrides cfg with the ERLPORT_LOG_* variables found through getenv.
// Unparseable values are ignored.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if lvl, ok := ParseLevel(getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if format, ok := parseFormat(getenv(EnvLogFormat)); ok {
		cfg.Format = format
	}
}

// ParseLevel maps a level name to a zerolog level. The empty string is not a level.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseFormat(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case FormatJSON:
		return FormatJSON, true
	case FormatConsole:
		return FormatConsole, true
	default:
		return "", false
	}
}

// New builds a logger for app from cfg. The returned closer releases the log
// file, if one was opened.
func New(cfg Config, app string) (zerolog.Logger, io.Closer, error) {
	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("logging: open %s: %w", cfg.File, err)
		}
		out, closer = f, f
	}

	return NewWithWriter(cfg, app, out), closer, nil
}

// NewWithWriter builds a logger for app that writes to out.
func NewWithWriter(cfg Config, app string, out io.Writer) zerolog.Logger {
	if cfg.Format == FormatConsole {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		}
	}

	return zerolog.New(out).Level(cfg.Level).With().Timestamp().Str("app", app).Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
