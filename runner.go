package schemacli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"slices"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/thellimist/schemacli/internal/argv"
	"github.com/thellimist/schemacli/internal/compile"
	"github.com/thellimist/schemacli/internal/instance"
	"github.com/thellimist/schemacli/internal/log"
	"github.com/thellimist/schemacli/internal/preset"
	"github.com/thellimist/schemacli/internal/resolve"
	"github.com/thellimist/schemacli/internal/suggest"
)

// RunIDKey is the log attribute holding ExecutionContext.ID.
const RunIDKey = "run_id"

// entry is one runnable command: the single command of a Runner, or one
// subcommand.
type entry struct {
	name string // Empty for a single command
	cmd  *Command
	spec *compile.Spec
}

// Runner executes a Command, or dispatches to one of several, against
// argument lists. It holds no per-invocation state and may be run any
// number of times.
type Runner struct {
	opts    Options
	logger  *slog.Logger
	handler ExceptionHandler

	single *entry
	subs   map[string]*entry
	names  []string // Sorted subcommand names
}

// NewRunner builds a Runner for a single command.
func NewRunner(cmd *Command, opts Options) (*Runner, error) {
	if cmd == nil {
		return nil, errors.New("schemacli: nil command")
	}
	r := newRunner(opts)
	desc := r.opts.Description
	if desc == "" {
		desc = cmd.description
	}

	e, err := r.compile("", cmd, compile.Meta{Name: r.opts.Name, Description: desc, Version: r.opts.Version})
	if err != nil {
		return nil, err
	}
	r.single = e
	return r, nil
}

// NewSubcommandRunner builds a Runner whose first argument selects one of
// cmds. Each subcommand keeps its own Config, flags and preset source.
func NewSubcommandRunner(cmds map[string]*Command, opts Options) (*Runner, error) {
	if len(cmds) == 0 {
		return nil, errors.New("schemacli: no subcommands")
	}
	r := newRunner(opts)
	r.subs = make(map[string]*entry, len(cmds))

	for name, cmd := range cmds {
		if err := checkSubcommandName(name); err != nil {
			return nil, err
		}
		if cmd == nil {
			return nil, errors.Errorf("schemacli: subcommand %q has a nil command", name)
		}
		e, err := r.compile(name, cmd, compile.Meta{Name: name, Description: cmd.description})
		if err != nil {
			return nil, err
		}
		r.subs[name] = e
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

func newRunner(opts Options) *Runner {
	if opts.Name == "" {
		opts.Name = filepath.Base(os.Args[0])
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}

	logger := opts.Logger
	if logger == nil {
		cfg := log.FromEnv()
		cfg.Output = opts.Stderr
		logger = log.New(cfg)
	}
	handler := opts.ExceptionHandler
	if handler == nil {
		handler = NewExceptionHandler(opts.Stderr, true)
	}
	return &Runner{opts: opts, logger: logger, handler: handler}
}

func (r *Runner) compile(name string, cmd *Command, meta compile.Meta) (*entry, error) {
	spec, err := compile.New(meta, cmd.specs, cmd.config.reserved())
	if err != nil {
		if name != "" {
			return nil, errors.Wrapf(err, "subcommand %s", name)
		}
		return nil, err
	}
	r.logger.Debug("compiled command",
		slog.String(log.CommandKey, r.displayName(name)),
		slog.Any("flags", cmd.Flags()),
		slog.Any("reserved", spec.ReservedFlags()))
	return &entry{name: name, cmd: cmd, spec: spec}, nil
}

func checkSubcommandName(name string) error {
	switch {
	case name == "":
		return errors.New("schemacli: empty subcommand name")
	case strings.HasPrefix(name, "-"):
		return errors.Errorf("schemacli: subcommand %q must not start with '-'", name)
	case strings.ContainsAny(name, " \t\r\n"):
		return errors.Errorf("schemacli: subcommand %q must not contain whitespace", name)
	case name == cobra.ShellCompRequestCmd || name == cobra.ShellCompNoDescRequestCmd:
		return errors.Errorf("schemacli: subcommand name %q is reserved", name)
	}
	return nil
}

// Subcommands returns the subcommand names in sorted order, or nil for a
// single-command Runner.
func (r *Runner) Subcommands() []string {
	return slices.Clone(r.names)
}

// Run executes one invocation and returns its exit code.
func (r *Runner) Run(ctx context.Context, args []string) int {
	if len(args) > 0 && (args[0] == cobra.ShellCompRequestCmd || args[0] == cobra.ShellCompNoDescRequestCmd) {
		return r.complete(args)
	}
	if r.single != nil {
		return r.invoke(ctx, r.single, args)
	}
	return r.dispatch(ctx, args)
}

// RunLine splits line like a POSIX shell would and runs the result.
func (r *Runner) RunLine(ctx context.Context, line string) int {
	args, err := argv.Split(line)
	if err != nil {
		printUsageError(r.opts.Stderr, r.opts.Name, err)
		return ExitUsage
	}
	return r.Run(ctx, args)
}

// RunAndExit runs r with the process arguments, cancelling the context on
// SIGINT or SIGTERM, and exits with the resulting code.
func RunAndExit(r *Runner) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := r.Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func (r *Runner) dispatch(ctx context.Context, args []string) int {
	if len(args) == 0 {
		return r.reject(nil, errors.Errorf("missing subcommand (available: %s)", strings.Join(r.names, ", ")))
	}

	switch first := args[0]; {
	case first == "--"+compile.HelpFlag:
		return r.eagerDone(compile.WriteHelp(r.tree(), r.opts.Stdout))
	case first == "--"+compile.VersionFlag && r.opts.Version != "":
		_, err := fmt.Fprintln(r.opts.Stdout, r.opts.Version)
		return r.eagerDone(err)
	}

	e, ok := r.subs[args[0]]
	if !ok {
		return r.reject(nil, errors.New(suggest.NotFound("subcommand", args[0], r.names)))
	}
	return r.invoke(ctx, e, args[1:])
}

// invoke runs parse, preset loading, resolution and construction for one
// command, then hands the instance to execute. Failures before execute are
// usage errors and run no hooks.
func (r *Runner) invoke(ctx context.Context, e *entry, args []string) int {
	started := time.Now()
	logger := log.WithCommand(r.logger, r.displayName(e.name))

	parsed, err := e.spec.Parse(args)
	if err != nil {
		return r.reject(e, err)
	}
	if parsed.Eager() {
		return r.eager(e, parsed)
	}

	var doc *preset.Document
	if cfg := e.cmd.config; cfg.JSONEnable {
		src := cfg.locator(r.opts.LookupEnv).Locate(parsed.JSONPath, parsed.JSONPathSet)
		doc, err = preset.Open(src, cfg.JSONIgnoreMissing, logger)
		if err != nil {
			return r.reject(e, err)
		}
	}

	res, err := resolve.Resolve(resolve.Input{
		Fields: e.cmd.fields,
		Specs:  e.cmd.specs,
		Tokens: parsed.Tokens,
		Preset: doc,
		Logger: logger,
	})
	if err != nil {
		return r.reject(e, err)
	}

	inst := e.cmd.newCmd()
	if err := instance.Build(inst, e.cmd.fields, res.Supplied()); err != nil {
		return r.reject(e, err)
	}

	ec := &ExecutionContext{
		ID:         uuid.NewString(),
		Instance:   inst,
		StartedAt:  started,
		Path:       r.path(e),
		Resolution: res,
	}
	return r.execute(ctx, ec, logger.With(slog.String(RunIDKey, ec.ID)))
}

// execute runs the prologue and Run, maps failures through the exception
// handler and always finishes with the epilogue. A panic inside the
// handler or the epilogue propagates to the caller.
func (r *Runner) execute(ctx context.Context, ec *ExecutionContext, logger *slog.Logger) int {
	ctx = withExecutionContext(ctx, ec)
	logger.Debug("running command")

	code := ExitSuccess
	if err := r.call(ctx, ec.Instance); err != nil {
		if xc, ok := explicitCode(err); ok {
			code = xc
		} else {
			logger.Debug("command failed", log.Error(err))
			code = r.handler(err)
		}
	}

	elapsed := time.Since(ec.StartedAt)
	if r.opts.Epilogue != nil {
		r.opts.Epilogue(code, elapsed)
	}
	logger.Debug("command finished",
		slog.Int(log.ExitCodeKey, code),
		log.Duration("elapsed", elapsed.Milliseconds()))
	return code
}

func (r *Runner) call(ctx context.Context, inst Cmd) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	if r.opts.Prologue != nil {
		if err := r.opts.Prologue(ctx, inst); err != nil {
			return err
		}
	}
	return inst.Run(ctx)
}

// explicitCode reports an ExitCode returned (possibly wrapped) by user code.
// Panics never count, even when the panic value is an ExitCode.
func explicitCode(err error) (int, bool) {
	var pe *PanicError
	if errors.As(err, &pe) {
		return 0, false
	}
	var xc ExitCode
	if errors.As(err, &xc) {
		return int(xc), true
	}
	return 0, false
}

func (r *Runner) eager(e *entry, p *compile.Parsed) int {
	var err error
	switch {
	case p.Help:
		err = compile.WriteHelp(r.cobraFor(e), r.opts.Stdout)
	case p.Version:
		_, err = fmt.Fprintln(r.opts.Stdout, r.opts.Version)
	case p.Completion != "":
		err = compile.WriteCompletion(r.cobraFor(e), r.opts.Stdout, p.Completion)
	case p.EmitSchema:
		s := preset.Schema(r.displayName(e.name), e.cmd.description, e.cmd.fields)
		err = preset.WriteSchema(r.opts.Stdout, s)
	}
	return r.eagerDone(err)
}

func (r *Runner) eagerDone(err error) int {
	if err != nil {
		errorLabel.Fprint(r.opts.Stderr, "Error: ")
		fmt.Fprintln(r.opts.Stderr, err.Error())
		return ExitFailure
	}
	return ExitSuccess
}

func (r *Runner) reject(e *entry, err error) int {
	ue := &UsageError{Err: err}
	prog := r.opts.Name
	if e != nil && e.name != "" {
		ue.Command = e.name
		prog = r.displayName(e.name)
	}
	r.logger.Debug("invocation rejected",
		slog.String(log.CommandKey, prog),
		log.Error(err))
	printUsageError(r.opts.Stderr, prog, ue)
	return ExitUsage
}

// complete answers cobra's hidden completion request against the full
// command tree.
func (r *Runner) complete(args []string) int {
	var root *cobra.Command
	if r.single != nil {
		root = r.single.spec.Command()
	} else {
		root = r.tree()
	}
	root.SetArgs(args)
	root.SetOut(r.opts.Stdout)
	root.SetErr(r.opts.Stderr)
	if err := root.Execute(); err != nil {
		printUsageError(r.opts.Stderr, r.opts.Name, err)
		return ExitUsage
	}
	return ExitSuccess
}

// tree renders every subcommand under one root for help and completion.
func (r *Runner) tree() *cobra.Command {
	root := &cobra.Command{
		Use:           r.opts.Name,
		Short:         r.opts.Description,
		Version:       r.opts.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	for _, name := range r.names {
		root.AddCommand(r.subs[name].spec.Command())
	}
	return root
}

// cobraFor returns the cobra command for e, attached to its tree.
func (r *Runner) cobraFor(e *entry) *cobra.Command {
	if e.name == "" {
		return e.spec.Command()
	}
	for _, c := range r.tree().Commands() {
		if c.Name() == e.name {
			return c
		}
	}
	return e.spec.Command()
}

func (r *Runner) path(e *entry) []string {
	if e.name == "" {
		return []string{r.opts.Name}
	}
	return []string{r.opts.Name, e.name}
}

func (r *Runner) displayName(name string) string {
	if name == "" {
		return r.opts.Name
	}
	return r.opts.Name + " " + name
}
