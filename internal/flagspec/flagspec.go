// Package flagspec turns extracted schema fields into concrete command-line
// flag spellings.
package flagspec

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/thellimist/schemacli/internal/schema"
)

// Arity is the number of values a flag consumes.
type Arity int

const (
	ArityToggle Arity = 0  // boolean toggle, no value
	ArityScalar Arity = 1  // exactly one value
	ArityMulti  Arity = -1 // one or more values
)

func (a Arity) String() string {
	switch a {
	case ArityToggle:
		return "0"
	case ArityScalar:
		return "1"
	case ArityMulti:
		return "N"
	}
	return fmt.Sprintf("Arity(%d)", int(a))
}

// Default toggle prefixes for booleans with a default value.
const (
	DefaultTruePrefix  = "--enable-"
	DefaultFalsePrefix = "--disable-"
)

// Prefixes are prepended to a boolean field name to build its toggle pair.
type Prefixes struct {
	True  string
	False string
}

// DefaultPrefixes returns the enable/disable pair.
func DefaultPrefixes() Prefixes {
	return Prefixes{True: DefaultTruePrefix, False: DefaultFalsePrefix}
}

// FlagSpec is one flag registered on the parser. Boolean fields produce two
// FlagSpecs that share a Field and differ in ValueOnPresent.
type FlagSpec struct {
	Flags          []string // Spellings with dashes, short first ("-m", "--max_records")
	Long           string   // pflag long name without dashes
	Short          string   // pflag shorthand without the dash, may be empty
	Arity          Arity
	Field          schema.Field
	ValueOnPresent bool // For toggles: value assigned when the flag is passed
	Choices        []string
	Description    string
	Required       bool
	DefaultText    string // Empty when the field has no default
}

// IsToggle reports whether the flag takes no value.
func (s FlagSpec) IsToggle() bool { return s.Arity == ArityToggle }

// SpecError reports a field whose flag override cannot be honoured.
type SpecError struct {
	Field  string
	Reason string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("flagspec: field %s: %s", e.Field, e.Reason)
}

// CollisionError reports one flag spelling claimed twice.
type CollisionError struct {
	Flag   string
	First  string // Owner that registered the flag first
	Second string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("flagspec: flag %s is used by both %s and %s", e.Flag, e.First, e.Second)
}

var (
	longRe  = regexp.MustCompile(`^--[A-Za-z0-9][A-Za-z0-9_.-]*$`)
	shortRe = regexp.MustCompile(`^-[A-Za-z]$`)
)

// IsLong reports whether s is a well-formed long flag ("--name").
func IsLong(s string) bool { return longRe.MatchString(s) }

// IsShort reports whether s is a well-formed short flag ("-n"). Digits are
// excluded so "-5" always parses as a negative number.
func IsShort(s string) bool { return shortRe.MatchString(s) }

// Synthesize produces the FlagSpecs for fields in declaration order.
//
// Rules:
//   - Non-boolean without override: "--{name}".
//   - Non-boolean with override: one long spelling, one short spelling (paired
//     with "--{name}"), or a (short, long) pair.
//   - Boolean with a default and no override: p.True+name and p.False+name.
//   - Other booleans and optional booleans: the override must be exactly two
//     long spellings, (set-true, set-false).
func Synthesize(fields []schema.Field, p Prefixes) ([]FlagSpec, error) {
	if p.True == "" {
		p.True = DefaultTruePrefix
	}
	if p.False == "" {
		p.False = DefaultFalsePrefix
	}
	if p.True == p.False {
		return nil, errors.Errorf("flagspec: boolean prefixes must differ, both are %q", p.True)
	}

	specs := make([]FlagSpec, 0, len(fields))
	for _, f := range fields {
		var (
			out []FlagSpec
			err error
		)
		if f.Kind.IsBool() {
			out, err = synthesizeBool(f, p)
		} else {
			out, err = synthesizeValue(f)
		}
		if err != nil {
			return nil, err
		}
		specs = append(specs, out...)
	}
	return specs, nil
}

func synthesizeValue(f schema.Field) ([]FlagSpec, error) {
	spec := FlagSpec{
		Arity:       ArityScalar,
		Field:       f,
		Choices:     f.Choices,
		Description: f.Description,
		Required:    f.Required,
		DefaultText: DefaultText(f),
	}
	if f.Kind.IsCollection() {
		spec.Arity = ArityMulti
	}

	defaultLong := "--" + f.Name
	switch len(f.CLI) {
	case 0:
		spec.Flags = []string{defaultLong}
	case 1:
		switch only := f.CLI[0]; {
		case IsShort(only):
			spec.Flags = []string{only, defaultLong}
		case IsLong(only):
			spec.Flags = []string{only}
		default:
			return nil, &SpecError{Field: f.Name, Reason: fmt.Sprintf("malformed flag %q", only)}
		}
	case 2:
		short, long := f.CLI[0], f.CLI[1]
		if !IsShort(short) || !IsLong(long) {
			return nil, &SpecError{
				Field:  f.Name,
				Reason: fmt.Sprintf("override %q must be a (short, long) pair such as -m,--max", strings.Join(f.CLI, ",")),
			}
		}
		spec.Flags = []string{short, long}
	default:
		return nil, &SpecError{Field: f.Name, Reason: fmt.Sprintf("override has %d entries, at most 2 are allowed", len(f.CLI))}
	}

	for _, flag := range spec.Flags {
		if IsShort(flag) {
			spec.Short = flag[1:]
		} else {
			spec.Long = flag[2:]
		}
	}
	if !IsLong(defaultLong) && spec.Long == f.Name {
		return nil, &SpecError{Field: f.Name, Reason: "name cannot be used as a flag; add a cli tag"}
	}
	return []FlagSpec{spec}, nil
}

func synthesizeBool(f schema.Field, p Prefixes) ([]FlagSpec, error) {
	var onFlag, offFlag string
	switch {
	case len(f.CLI) == 0 && f.Kind == schema.KindBool && f.HasDefault:
		onFlag, offFlag = p.True+f.Name, p.False+f.Name
		if !IsLong(onFlag) || !IsLong(offFlag) {
			return nil, &SpecError{Field: f.Name, Reason: fmt.Sprintf("generated flags %s/%s are malformed", onFlag, offFlag)}
		}
	case len(f.CLI) == 2 && IsLong(f.CLI[0]) && IsLong(f.CLI[1]) && f.CLI[0] != f.CLI[1]:
		onFlag, offFlag = f.CLI[0], f.CLI[1]
	default:
		return nil, &SpecError{
			Field:  f.Name,
			Reason: fmt.Sprintf("%s field needs a cli tag with exactly two long flags (set-true, set-false), e.g. cli:\"--%s,--no-%s\"", f.Kind, f.Name, f.Name),
		}
	}

	def := DefaultText(f)
	on := FlagSpec{
		Flags:          []string{onFlag},
		Long:           onFlag[2:],
		Arity:          ArityToggle,
		Field:          f,
		ValueOnPresent: true,
		Description:    f.Description,
		Required:       f.Required,
		DefaultText:    def,
	}
	off := FlagSpec{
		Flags:          []string{offFlag},
		Long:           offFlag[2:],
		Arity:          ArityToggle,
		Field:          f,
		ValueOnPresent: false,
		Description:    "Set " + f.Name + " to false",
		Required:       f.Required,
		DefaultText:    def,
	}
	return []FlagSpec{on, off}, nil
}

// DefaultText renders a field default for help output.
func DefaultText(f schema.Field) string {
	if !f.HasDefault {
		return ""
	}
	switch v := f.Default.(type) {
	case nil:
		return "none"
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = cast.ToString(e)
		}
		return strings.Join(parts, ",")
	default:
		return cast.ToString(v)
	}
}

// CheckCollisions fails when any spelling is used twice across specs or
// collides with a reserved flag.
func CheckCollisions(specs []FlagSpec, reserved ...string) error {
	owners := make(map[string]string, len(specs)*2+len(reserved))
	for _, r := range reserved {
		owners[r] = "reserved flag " + r
	}
	for _, s := range specs {
		for _, flag := range s.Flags {
			owner := "field " + s.Field.Name
			if first, dup := owners[flag]; dup {
				return &CollisionError{Flag: flag, First: first, Second: owner}
			}
			owners[flag] = owner
		}
	}
	return nil
}

// AllFlags returns every spelling in specs, in order.
func AllFlags(specs []FlagSpec) []string {
	var out []string
	for _, s := range specs {
		out = append(out, s.Flags...)
	}
	return out
}
