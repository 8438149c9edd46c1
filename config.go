package schemacli

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/thellimist/schemacli/internal/compile"
	"github.com/thellimist/schemacli/internal/flagspec"
	"github.com/thellimist/schemacli/internal/preset"
)

// Defaults applied by Config when a field is left empty.
const (
	DefaultJSONFlag       = "json-config"
	DefaultJSONEnvVar     = "SCHEMACLI_JSON_CONFIG"
	DefaultCompletionFlag = "emit-completion"
	DefaultSchemaFlag     = "emit-json-schema"
)

// Config is the per-schema behaviour of a Command. It is copied when the
// Command is built and never changes afterwards.
type Config struct {
	// JSONEnable adds the preset flag (--json-config PATH).
	JSONEnable bool

	// JSONFlag is the preset flag name without dashes.
	// Default: json-config
	JSONFlag string

	// JSONEnvVar names the environment variable consulted when the flag
	// is absent. Set to "-" to disable the lookup.
	// Default: SCHEMACLI_JSON_CONFIG
	JSONEnvVar string

	// JSONPath is the preset file used when neither the flag nor the
	// environment variable is set.
	JSONPath string

	// JSONIgnoreMissing skips a preset path that does not exist instead of
	// failing the run. Useful for a global file such as ~/.tool.json.
	JSONIgnoreMissing bool

	// BoolTruePrefix and BoolFalsePrefix build the flag pair of a boolean
	// field with a default.
	// Default: --enable- / --disable-
	BoolTruePrefix  string
	BoolFalsePrefix string

	// CompletionEnable adds --emit-completion SHELL.
	CompletionEnable bool
	// Default: emit-completion
	CompletionFlag string

	// SchemaEnable adds --emit-json-schema, which prints the JSON Schema of
	// the preset file.
	SchemaEnable bool
	// Default: emit-json-schema
	SchemaFlag string
}

func (c Config) withDefaults() Config {
	if c.JSONFlag == "" {
		c.JSONFlag = DefaultJSONFlag
	}
	if c.JSONEnvVar == "" {
		c.JSONEnvVar = DefaultJSONEnvVar
	}
	if c.BoolTruePrefix == "" {
		c.BoolTruePrefix = flagspec.DefaultTruePrefix
	}
	if c.BoolFalsePrefix == "" {
		c.BoolFalsePrefix = flagspec.DefaultFalsePrefix
	}
	if c.CompletionFlag == "" {
		c.CompletionFlag = DefaultCompletionFlag
	}
	if c.SchemaFlag == "" {
		c.SchemaFlag = DefaultSchemaFlag
	}
	c.JSONFlag = strings.TrimPrefix(c.JSONFlag, "--")
	c.CompletionFlag = strings.TrimPrefix(c.CompletionFlag, "--")
	c.SchemaFlag = strings.TrimPrefix(c.SchemaFlag, "--")
	return c
}

func (c Config) prefixes() flagspec.Prefixes {
	return flagspec.Prefixes{True: c.BoolTruePrefix, False: c.BoolFalsePrefix}
}

func (c Config) reserved() compile.Reserved {
	var r compile.Reserved
	if c.JSONEnable {
		r.JSONFlag = c.JSONFlag
	}
	if c.CompletionEnable {
		r.CompletionFlag = c.CompletionFlag
	}
	if c.SchemaEnable {
		r.SchemaFlag = c.SchemaFlag
	}
	return r
}

func (c Config) locator(lookup func(string) (string, bool)) preset.Locator {
	l := preset.Locator{EnvVar: c.JSONEnvVar, DefaultPath: c.JSONPath, LookupEnv: lookup}
	if c.JSONEnvVar == "-" {
		l.EnvVar = ""
	}
	return l
}

// PrologueFunc runs after the instance is built and before Run.
type PrologueFunc func(ctx context.Context, cmd Cmd) error

// EpilogueFunc runs after every executed command with the final exit code
// and the time since the invocation started.
type EpilogueFunc func(exitCode int, elapsed time.Duration)

// ExceptionHandler maps a runtime error to an exit code.
type ExceptionHandler func(err error) int

// Options are the program-level settings of a Runner.
type Options struct {
	// Name is the program name shown in help and completion scripts.
	// Default: base name of os.Args[0]
	Name        string
	Description string
	// Version enables --version when set.
	Version string

	Prologue         PrologueFunc
	Epilogue         EpilogueFunc
	ExceptionHandler ExceptionHandler

	// Default: os.Stdout and os.Stderr
	Stdout io.Writer
	Stderr io.Writer

	// Logger receives debug records about resolution and timing.
	// Default: built from SCHEMACLI_* environment variables
	Logger *slog.Logger

	// LookupEnv reads environment variables for the preset path.
	// Default: os.LookupEnv
	LookupEnv func(string) (string, bool)
}
