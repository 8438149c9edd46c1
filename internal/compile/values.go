package compile

import (
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/thellimist/schemacli/internal/flagspec"
)

// recorder collects flag hits for one Parse call in argument order.
type recorder struct {
	tokens map[string]*Token
	order  []string
}

func newRecorder() *recorder {
	return &recorder{tokens: make(map[string]*Token)}
}

func (r *recorder) hit(field, flag, raw string) {
	tok, ok := r.tokens[field]
	if !ok {
		tok = &Token{Field: field}
		r.tokens[field] = tok
		r.order = append(r.order, field)
	}
	if !slices.Contains(tok.Flags, flag) {
		tok.Flags = append(tok.Flags, flag)
	}
	tok.Values = append(tok.Values, raw)
}

// rawValue keeps a scalar flag value as text; coercion happens at
// construction time so CLI and JSON values share one code path.
type rawValue struct {
	spec *flagspec.FlagSpec
	rec  *recorder
	val  string
	set  bool
}

func (v *rawValue) String() string {
	if !v.set {
		return ""
	}
	return v.val
}

func (v *rawValue) Set(s string) error {
	if err := checkChoice(v.spec.Choices, s); err != nil {
		return err
	}
	v.val, v.set = s, true
	if v.rec != nil {
		v.rec.hit(v.spec.Field.Name, v.spec.Flags[len(v.spec.Flags)-1], s)
	}
	return nil
}

func (v *rawValue) Type() string { return typeName(v.spec) }

// rawSlice accumulates every value given to a collection flag.
type rawSlice struct {
	spec *flagspec.FlagSpec
	rec  *recorder
	vals []string
}

func (v *rawSlice) String() string {
	if len(v.vals) == 0 {
		return ""
	}
	return "[" + strings.Join(v.vals, ",") + "]"
}

func (v *rawSlice) Set(s string) error {
	if err := checkChoice(v.spec.Choices, s); err != nil {
		return err
	}
	v.vals = append(v.vals, s)
	if v.rec != nil {
		v.rec.hit(v.spec.Field.Name, v.spec.Flags[len(v.spec.Flags)-1], s)
	}
	return nil
}

func (v *rawSlice) Type() string { return typeName(v.spec) }

func (v *rawSlice) Append(s string) error { return v.Set(s) }

func (v *rawSlice) Replace(vals []string) error {
	v.vals = nil
	for _, s := range vals {
		if err := v.Set(s); err != nil {
			return err
		}
	}
	return nil
}

func (v *rawSlice) GetSlice() []string { return slices.Clone(v.vals) }

// toggleValue is one half of a boolean flag pair. Passing the flag records
// ValueOnPresent; an explicit "=false" records the opposite.
type toggleValue struct {
	spec *flagspec.FlagSpec
	rec  *recorder
	on   bool
	set  bool
}

func (v *toggleValue) String() string { return strconv.FormatBool(v.set && v.on) }

func (v *toggleValue) Set(s string) error {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return errors.Errorf("expected a boolean, got %q", s)
	}
	v.on, v.set = b, true
	value := v.spec.ValueOnPresent
	if !b {
		value = !value
	}
	if v.rec != nil {
		v.rec.hit(v.spec.Field.Name, v.spec.Flags[0], strconv.FormatBool(value))
	}
	return nil
}

func (v *toggleValue) Type() string { return "bool" }

func (v *toggleValue) IsBoolFlag() bool { return true }

func checkChoice(choices []string, s string) error {
	if len(choices) == 0 || slices.Contains(choices, s) {
		return nil
	}
	return errors.Errorf("must be one of {%s}", strings.Join(choices, "|"))
}
