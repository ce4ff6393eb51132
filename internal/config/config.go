// Package config loads the TOML configuration of the port host.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/arloliu/erlport/format"
	"github.com/arloliu/erlport/internal/logging"
	"github.com/rs/zerolog"
)

// Config is the resolved host configuration.
type Config struct {
	PacketSize       int
	MaxMessageSize   int
	LogLevel         zerolog.Level
	LogFormat        string
	LogFile          string
	TraceFile        string
	TraceCompression format.CompressionType
	MetricsAddr      string
}

// fileConfig mirrors the keys of a config file.
type fileConfig struct {
	Packet           int    `toml:"packet"`
	MaxMessageSize   int    `toml:"max_message_size"`
	LogLevel         string `toml:"log_level"`
	LogFormat        string `toml:"log_format"`
	LogFile          string `toml:"log_file"`
	TraceFile        string `toml:"trace_file"`
	TraceCompression string `toml:"trace_compression"`
	MetricsAddr      string `toml:"metrics_addr"`
}

// Default returns the configuration used when no file is given: {packet, 2},
// 65535-byte messages, info-level JSON logs, no trace and no metrics endpoint.
func Default() Config {
	return Config{
		PacketSize:       2,
		MaxMessageSize:   65535,
		LogLevel:         zerolog.InfoLevel,
		LogFormat:        logging.FormatJSON,
		TraceCompression: format.CompressionNone,
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default; relative log_file and trace_file paths are resolved against the
// directory of path.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	base := filepath.Dir(path)

	if meta.IsDefined("packet") {
		cfg.PacketSize = raw.Packet
	}
	if meta.IsDefined("max_message_size") {
		cfg.MaxMessageSize = raw.MaxMessageSize
	}
	if meta.IsDefined("log_level") {
		lvl, ok := logging.ParseLevel(raw.LogLevel)
		if !ok {
			return Config{}, fmt.Errorf("load config: unknown log_level %q", raw.LogLevel)
		}
		cfg.LogLevel = lvl
	}
	if meta.IsDefined("log_format") {
		cfg.LogFormat = strings.ToLower(strings.TrimSpace(raw.LogFormat))
	}
	if meta.IsDefined("log_file") {
		cfg.LogFile = resolve(base, raw.LogFile)
	}
	if meta.IsDefined("trace_file") {
		cfg.TraceFile = resolve(base, raw.TraceFile)
	}
	if meta.IsDefined("trace_compression") {
		ct, ok := format.ParseCompressionType(strings.ToLower(strings.TrimSpace(raw.TraceCompression)))
		if !ok {
			return Config{}, fmt.Errorf("load config: unknown trace_compression %q", raw.TraceCompression)
		}
		cfg.TraceCompression = ct
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

func resolve(base, path string) string {
	path = strings.TrimSpace(path)
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(base, path)
}

// Validate checks value ranges that do not depend on the file format.
func (c Config) Validate() error {
	switch c.PacketSize {
	case 1, 2, 4:
	default:
		return fmt.Errorf("packet must be 1, 2 or 4, got %d", c.PacketSize)
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("max_message_size must be positive, got %d", c.MaxMessageSize)
	}
	if c.LogFormat != logging.FormatJSON && c.LogFormat != logging.FormatConsole {
		return fmt.Errorf("log_format must be %q or %q, got %q", logging.FormatJSON, logging.FormatConsole, c.LogFormat)
	}

	return nil
}

// Logging returns the logger settings of c.
func (c Config) Logging() logging.Config {
	return logging.Config{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		File:   c.LogFile,
	}
}
