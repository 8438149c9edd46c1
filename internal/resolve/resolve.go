// Package resolve merges command-line tokens, a preset document and schema
// defaults into the final per-field values of one invocation.
package resolve

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cast"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/thellimist/schemacli/internal/compile"
	"github.com/thellimist/schemacli/internal/flagspec"
	"github.com/thellimist/schemacli/internal/log"
	"github.com/thellimist/schemacli/internal/preset"
	"github.com/thellimist/schemacli/internal/schema"
)

// Source is where a resolved value came from.
type Source int

const (
	SourceMissing Source = iota
	SourceCLI
	SourceJSON
	SourceDefault
)

func (s Source) String() string {
	switch s {
	case SourceCLI:
		return "cli"
	case SourceJSON:
		return "json"
	case SourceDefault:
		return "default"
	}
	return "missing"
}

// Value is one resolved field.
//
// Value holds raw strings for CLI scalars, []any of strings for CLI
// collections, bool for toggles, decoded JSON for preset values and the
// normalized schema default otherwise. Coercion to the Go field type is
// left to construction.
type Value struct {
	Source Source
	Value  any
}

// Resolution is the ordered field-to-value mapping of one invocation.
type Resolution struct {
	Values  *orderedmap.OrderedMap[string, Value]
	Missing []string // Required fields no source supplied, in declaration order
}

// Get returns the resolved value of a field.
func (r *Resolution) Get(name string) (Value, bool) {
	return r.Values.Get(name)
}

// Supplied returns the non-missing values keyed by field name.
func (r *Resolution) Supplied() map[string]any {
	out := make(map[string]any, r.Values.Len())
	for pair := r.Values.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Source != SourceMissing {
			out[pair.Key] = pair.Value.Value
		}
	}
	return out
}

// MissingError lists required fields that were not supplied.
type MissingError struct {
	Fields []string
	Flags  map[string][]string // Spellings that would set each field
}

func (e *MissingError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		if flags := e.Flags[f]; len(flags) > 0 {
			parts[i] = fmt.Sprintf("%s (%s)", f, strings.Join(flags, "/"))
		} else {
			parts[i] = f
		}
	}
	return "missing required fields: " + strings.Join(parts, ", ")
}

// ConflictError is a boolean field set by both of its toggle flags.
type ConflictError struct {
	Field string
	Flags []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("flags %s are mutually exclusive (field %s)", strings.Join(e.Flags, " and "), e.Field)
}

// Input is everything one resolution needs.
type Input struct {
	Fields []schema.Field
	Specs  []flagspec.FlagSpec // Used to name flags in errors
	Tokens map[string]compile.Token
	Preset *preset.Document // May be nil
	Logger *slog.Logger     // May be nil
}

// Resolve applies the precedence command line > preset > default to every
// field. A field is missing only when all three are absent and it is
// required. Preset keys that match no field are ignored.
//
// On missing fields the Resolution is still returned, together with a
// *MissingError.
func Resolve(in Input) (*Resolution, error) {
	res := &Resolution{Values: orderedmap.New[string, Value](len(in.Fields))}
	known := make(map[string]struct{}, len(in.Fields))

	for _, f := range in.Fields {
		known[f.Name] = struct{}{}

		v, err := resolveField(f, in)
		if err != nil {
			return nil, err
		}
		res.Values.Set(f.Name, v)
		if v.Source == SourceMissing {
			res.Missing = append(res.Missing, f.Name)
		}
		if in.Logger != nil {
			in.Logger.Debug("resolved field",
				slog.String(log.FieldKey, f.Name),
				slog.String(log.SourceKey, v.Source.String()))
		}
	}

	if in.Logger != nil {
		for _, key := range in.Preset.Keys() {
			if _, ok := known[key]; !ok {
				in.Logger.Debug("ignoring unknown preset key", slog.String("key", key))
			}
		}
	}

	if len(res.Missing) > 0 {
		flags := make(map[string][]string, len(res.Missing))
		for _, name := range res.Missing {
			flags[name] = fieldFlags(in.Specs, name)
		}
		return res, &MissingError{Fields: res.Missing, Flags: flags}
	}
	return res, nil
}

func resolveField(f schema.Field, in Input) (Value, error) {
	if tok, ok := in.Tokens[f.Name]; ok && len(tok.Values) > 0 {
		v, err := fromToken(f, tok)
		if err != nil {
			return Value{}, err
		}
		return Value{Source: SourceCLI, Value: v}, nil
	}
	if raw, ok := in.Preset.Get(f.Name); ok {
		return Value{Source: SourceJSON, Value: raw}, nil
	}
	if f.HasDefault {
		return Value{Source: SourceDefault, Value: f.Default}, nil
	}
	return Value{Source: SourceMissing}, nil
}

func fromToken(f schema.Field, tok compile.Token) (any, error) {
	switch {
	case f.Kind.IsBool():
		if len(tok.Flags) > 1 {
			return nil, &ConflictError{Field: f.Name, Flags: tok.Flags}
		}
		return cast.ToBoolE(tok.Last())
	case f.Kind.IsCollection():
		out := make([]any, len(tok.Values))
		for i, s := range tok.Values {
			out[i] = s
		}
		return out, nil
	default:
		return tok.Last(), nil
	}
}

func fieldFlags(specs []flagspec.FlagSpec, name string) []string {
	var out []string
	for _, s := range specs {
		if s.Field.Name == name {
			out = append(out, s.Flags...)
		}
	}
	return out
}
