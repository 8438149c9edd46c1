package schemacli

import (
	"context"
	"reflect"

	"github.com/pkg/errors"

	"github.com/thellimist/schemacli/internal/flagspec"
	"github.com/thellimist/schemacli/internal/schema"
)

// Cmd is implemented by the pointer type of every command schema. Run
// receives a context carrying the ExecutionContext.
type Cmd interface {
	Run(ctx context.Context) error
}

// Command is a compiled schema: its fields and synthesized flags. It is
// immutable and may back any number of Runners.
type Command struct {
	description string
	config      Config
	typ         reflect.Type
	fields      []schema.Field
	specs       []flagspec.FlagSpec
	newCmd      func() Cmd
}

// NewCommand compiles the schema T. Field, flag and collision errors are
// reported here, before any command line is seen.
//
//	cmd, err := schemacli.NewCommand[Options]("Process records", schemacli.Config{})
func NewCommand[T any, PT interface {
	*T
	Cmd
}](description string, cfg Config) (*Command, error) {
	cfg = cfg.withDefaults()
	typ := reflect.TypeOf((*T)(nil)).Elem()

	fields, err := schema.Extract(typ)
	if err != nil {
		return nil, errors.Wrapf(err, "schema %s", typ)
	}
	specs, err := flagspec.Synthesize(fields, cfg.prefixes())
	if err != nil {
		return nil, errors.Wrapf(err, "schema %s", typ)
	}
	if err := flagspec.CheckCollisions(specs); err != nil {
		return nil, errors.Wrapf(err, "schema %s", typ)
	}

	return &Command{
		description: description,
		config:      cfg,
		typ:         typ,
		fields:      fields,
		specs:       specs,
		newCmd:      func() Cmd { return PT(new(T)) },
	}, nil
}

// MustCommand is NewCommand for package-level declarations; it panics on
// error.
func MustCommand[T any, PT interface {
	*T
	Cmd
}](description string, cfg Config) *Command {
	c, err := NewCommand[T, PT](description, cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// Description returns the help description.
func (c *Command) Description() string { return c.description }

// Config returns the configuration with defaults applied.
func (c *Command) Config() Config { return c.config }

// Fields returns the extracted field descriptors in declaration order.
func (c *Command) Fields() []schema.Field { return c.fields }

// Flags returns every flag spelling the schema accepts, excluding the
// reserved flags.
func (c *Command) Flags() []string { return flagspec.AllFlags(c.specs) }
