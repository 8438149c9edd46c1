// Package compile assembles synthesized flags and the reserved flags into a
// parser, scans argument lists with pflag and renders help and completion
// through cobra.
package compile

import (
	"github.com/pkg/errors"

	"github.com/thellimist/schemacli/internal/flagspec"
)

// Reserved flag names that are always present.
const (
	HelpFlag    = "help"
	VersionFlag = "version"
)

// Shells accepted by the completion flag.
var Shells = []string{"bash", "zsh", "fish", "powershell"}

// Meta describes the program or subcommand a Spec parses for.
type Meta struct {
	Name        string
	Description string
	Version     string // Enables --version when non-empty
}

// Reserved names the optional reserved flags, without dashes. An empty name
// disables the flag.
type Reserved struct {
	JSONFlag       string
	CompletionFlag string
	SchemaFlag     string
}

// Spec is a compiled parser specification. It is immutable after New and
// safe to Parse from any number of invocations.
type Spec struct {
	meta     Meta
	reserved Reserved
	specs    []flagspec.FlagSpec
	byLong   map[string]int
	byShort  map[string]int
}

// New validates specs against the reserved flags and indexes them.
func New(meta Meta, specs []flagspec.FlagSpec, reserved Reserved) (*Spec, error) {
	s := &Spec{
		meta:     meta,
		reserved: reserved,
		specs:    specs,
		byLong:   make(map[string]int, len(specs)),
		byShort:  make(map[string]int),
	}

	names := s.ReservedFlags()
	for _, r := range names {
		if !flagspec.IsLong(r) {
			return nil, errors.Errorf("compile: reserved flag %q is malformed", r)
		}
	}
	if err := flagspec.CheckCollisions(specs, names...); err != nil {
		return nil, err
	}

	for i, fs := range specs {
		s.byLong[fs.Long] = i
		if fs.Short != "" {
			s.byShort[fs.Short] = i
		}
	}
	return s, nil
}

// Meta returns the program metadata.
func (s *Spec) Meta() Meta { return s.meta }

// Reserved returns the reserved flag configuration.
func (s *Spec) Reserved() Reserved { return s.reserved }

// Specs returns the schema-derived flags in declaration order.
func (s *Spec) Specs() []flagspec.FlagSpec { return s.specs }

// ReservedFlags lists the reserved spellings active for this Spec.
func (s *Spec) ReservedFlags() []string {
	out := []string{"--" + HelpFlag}
	if s.meta.Version != "" {
		out = append(out, "--"+VersionFlag)
	}
	for _, name := range []string{s.reserved.JSONFlag, s.reserved.CompletionFlag, s.reserved.SchemaFlag} {
		if name != "" {
			out = append(out, "--"+name)
		}
	}
	return out
}

// FieldFlags returns every spelling that sets the named field.
func (s *Spec) FieldFlags(field string) []string {
	var out []string
	for _, fs := range s.specs {
		if fs.Field.Name == field {
			out = append(out, fs.Flags...)
		}
	}
	return out
}

// knownFlags lists every accepted spelling, for suggestions.
func (s *Spec) knownFlags() []string {
	return append(s.ReservedFlags(), flagspec.AllFlags(s.specs)...)
}
