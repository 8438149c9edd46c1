package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/thellimist/schemacli"
	"github.com/thellimist/schemacli/internal/log"
)

// output is where commands print; tests swap it.
var output io.Writer = os.Stdout

var presetConfig = schemacli.Config{
	JSONEnable:       true,
	CompletionEnable: true,
	SchemaEnable:     true,
}

// Alpha processes a local input file.
type Alpha struct {
	InputFile  string `cli:"-i,--input" help:"Input file to read"`
	MaxRecords int    `cli:"-m,--max-records" default:"10" validate:"gte=1" help:"Stop after this many records"`
	LogLevel   string `choices:"debug,info,warn,error" default:"debug" help:"Log level"`
}

func (a *Alpha) Run(ctx context.Context) error {
	slog.DebugContext(ctx, "alpha starting", slog.String("input", a.InputFile))
	_, err := fmt.Fprintf(output, "alpha: reading %s (max %d records)\n", a.InputFile, a.MaxRecords)
	return err
}

func (a *Alpha) level() string { return a.LogLevel }

// Beta fetches from a remote URL.
type Beta struct {
	URL        string `json:"url" cli:"-u,--url" validate:"url" help:"Endpoint to fetch"`
	NumRetries int    `cli:"-n,--num-retries" default:"3" help:"Retries before giving up"`
	LogLevel   string `choices:"debug,info,warn,error" default:"info" help:"Log level"`
	DryRun     bool   `default:"false" help:"Print what would be fetched"`
}

func (b *Beta) Run(ctx context.Context) error {
	if b.DryRun {
		_, err := fmt.Fprintf(output, "beta: would fetch %s\n", b.URL)
		return err
	}
	slog.InfoContext(ctx, "beta fetching", slog.String("url", b.URL), slog.Int("retries", b.NumRetries))
	_, err := fmt.Fprintf(output, "beta: fetched %s with %d retries\n", b.URL, b.NumRetries)
	return err
}

func (b *Beta) level() string { return b.LogLevel }

type leveled interface {
	level() string
}

// setupLogging installs the default slog logger at the level the command
// asked for.
func setupLogging(stderr io.Writer) schemacli.PrologueFunc {
	return func(ctx context.Context, cmd schemacli.Cmd) error {
		cfg := log.FromEnv()
		cfg.Output = stderr
		if l, ok := cmd.(leveled); ok {
			cfg.Level = l.level()
		}
		logger := log.New(cfg)
		if ec := schemacli.FromContext(ctx); ec != nil {
			logger = logger.With(slog.String(schemacli.RunIDKey, ec.ID))
		}
		slog.SetDefault(logger)
		return nil
	}
}

func logCompletion(exitCode int, elapsed time.Duration) {
	slog.Info("completed",
		slog.Int(log.ExitCodeKey, exitCode),
		log.Duration("elapsed", elapsed.Milliseconds()))
}

func newRunner(stdout, stderr io.Writer) (*schemacli.Runner, error) {
	alpha, err := schemacli.NewCommand[Alpha]("Process a local input file", presetConfig)
	if err != nil {
		return nil, err
	}
	beta, err := schemacli.NewCommand[Beta]("Fetch from a remote URL", presetConfig)
	if err != nil {
		return nil, err
	}

	return schemacli.NewSubcommandRunner(map[string]*schemacli.Command{
		"alpha": alpha,
		"beta":  beta,
	}, schemacli.Options{
		Name:        "schemacli-example",
		Description: "Example tool with two subcommands built from annotated structs.",
		Version:     version,
		Prologue:    setupLogging(stderr),
		Epilogue:    logCompletion,
		Stdout:      stdout,
		Stderr:      stderr,
	})
}
