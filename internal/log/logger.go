// Package log builds the slog logger used by schemacli runners.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the slog handler.
type Format string

const (
	// FormatJSON outputs one JSON object per record.
	FormatJSON Format = "json"
	// FormatText outputs logfmt-style text.
	FormatText Format = "text"
)

// Field keys shared by the runner's log records.
const (
	CommandKey  = "command"
	FieldKey    = "field"
	SourceKey   = "source"
	PathKey     = "path"
	ExitCodeKey = "exit_code"
)

// Environment variables read by FromEnv.
const (
	EnvDebug  = "SCHEMACLI_DEBUG"
	EnvLevel  = "SCHEMACLI_LOG_LEVEL"
	EnvFormat = "SCHEMACLI_LOG_FORMAT"
)

// Config configures New.
type Config struct {
	// Level sets the minimum log level (debug, info, warn, error).
	// Default: warn
	Level string

	// Format sets the output format (json, text).
	// Default: text
	Format Format

	// Output is the writer for log output.
	// Default: os.Stderr
	Output io.Writer

	// AddSource adds source file and line information to logs.
	AddSource bool
}

// DefaultConfig keeps library output quiet: only warnings and errors, as
// text on stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:  "warn",
		Format: FormatText,
		Output: os.Stderr,
	}
}

// FromEnv returns DefaultConfig adjusted by the SCHEMACLI_* variables.
func FromEnv() *Config {
	cfg := DefaultConfig()

	// SCHEMACLI_DEBUG wins over SCHEMACLI_LOG_LEVEL.
	debug := os.Getenv(EnvDebug)
	if debug == "true" || debug == "1" {
		cfg.Level = "debug"
		cfg.AddSource = true
	} else if level := os.Getenv(EnvLevel); level != "" {
		cfg.Level = strings.ToLower(level)
	}

	if format := os.Getenv(EnvFormat); format != "" {
		cfg.Format = Format(strings.ToLower(format))
	}

	return cfg
}

// New creates a logger from cfg. A nil cfg uses DefaultConfig.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// WithCommand scopes a logger to one (sub)command.
func WithCommand(logger *slog.Logger, name string) *slog.Logger {
	return logger.With(slog.String(CommandKey, name))
}

// Error wraps err as a log attribute.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// Duration records milliseconds under key+"_ms".
func Duration(key string, ms int64) slog.Attr {
	return slog.Int64(key+"_ms", ms)
}
