// Package instance constructs a schema struct from resolved values and
// runs its validation.
package instance

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/thellimist/schemacli/internal/schema"
)

// Validator is implemented by schema types with cross-field rules.
type Validator interface {
	Validate() error
}

// Issue is one rejected field value.
type Issue struct {
	Field  string // Empty for whole-struct failures
	Value  any
	Reason string
}

func (i Issue) String() string {
	if i.Field == "" {
		return i.Reason
	}
	return i.Field + ": " + i.Reason
}

// Error reports every value that failed construction or validation.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.String()
	}
	return "invalid values: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, skip := schema.NameOf(sf)
		if skip {
			return "-"
		}
		return name
	})
	return v
}

// Build assigns values to the fields of dst, which must be a non-nil
// pointer to the struct the fields were extracted from. Values missing from
// the map leave the field untouched. After assignment, `validate` tags are
// checked and dst.Validate is called when implemented.
func Build(dst any, fields []schema.Field, values map[string]any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errors.Errorf("instance: destination must be a non-nil struct pointer, got %T", dst)
	}
	rv = rv.Elem()

	var issues []Issue
	for _, f := range fields {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		if err := assign(rv.FieldByIndex(f.Index), f, v); err != nil {
			issues = append(issues, Issue{Field: f.Name, Value: v, Reason: err.Error()})
		}
	}
	if len(issues) > 0 {
		return &Error{Issues: issues}
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return errors.Wrap(err, "instance: validating")
		}
		for _, fe := range verrs {
			issues = append(issues, Issue{Field: fe.Field(), Value: fe.Value(), Reason: describe(fe)})
		}
		return &Error{Issues: issues}
	}

	if v, ok := dst.(Validator); ok {
		if err := v.Validate(); err != nil {
			return &Error{Issues: []Issue{{Reason: err.Error()}}}
		}
	}
	return nil
}

func assign(target reflect.Value, f schema.Field, v any) error {
	if v == nil {
		if f.Nullable {
			target.Set(reflect.Zero(target.Type()))
			return nil
		}
		return errors.New("null is not allowed")
	}

	switch f.Kind {
	case schema.KindList:
		items, err := asList(v)
		if err != nil {
			return err
		}
		out := reflect.MakeSlice(target.Type(), 0, len(items))
		for _, item := range items {
			ev, err := coerce(target.Type().Elem(), f.Elem, f.Choices, item)
			if err != nil {
				return err
			}
			out = reflect.Append(out, ev)
		}
		target.Set(out)
		return nil

	case schema.KindSet:
		items, err := asList(v)
		if err != nil {
			return err
		}
		out := reflect.MakeMapWithSize(target.Type(), len(items))
		member := reflect.Zero(target.Type().Elem())
		for _, item := range items {
			ev, err := coerce(target.Type().Key(), f.Elem, f.Choices, item)
			if err != nil {
				return err
			}
			out.SetMapIndex(ev, member)
		}
		target.Set(out)
		return nil
	}

	if target.Kind() == reflect.Ptr {
		ev, err := coerce(target.Type().Elem(), elemKind(f), f.Choices, v)
		if err != nil {
			return err
		}
		p := reflect.New(target.Type().Elem())
		p.Elem().Set(ev)
		target.Set(p)
		return nil
	}

	ev, err := coerce(target.Type(), f.Kind, f.Choices, v)
	if err != nil {
		return err
	}
	target.Set(ev)
	return nil
}

func elemKind(f schema.Field) schema.Kind {
	if f.Kind == schema.KindOptionalBool {
		return schema.KindBool
	}
	return f.Kind
}

func asList(v any) ([]any, error) {
	switch xs := v.(type) {
	case []any:
		return xs, nil
	case []string:
		out := make([]any, len(xs))
		for i, s := range xs {
			out[i] = s
		}
		return out, nil
	}
	return nil, errors.Errorf("expected a list, got %s", describeValue(v))
}

// coerce converts v to a value of type t for the given kind.
func coerce(t reflect.Type, kind schema.Kind, choices []string, v any) (reflect.Value, error) {
	switch kind {
	case schema.KindInteger:
		return coerceInt(t, v)

	case schema.KindFloat:
		if _, isBool := v.(bool); isBool {
			return reflect.Value{}, errors.Errorf("expected a number, got %s", describeValue(v))
		}
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return reflect.Value{}, errors.Errorf("expected a number, got %s", describeValue(v))
		}
		out := reflect.New(t).Elem()
		if out.OverflowFloat(f) {
			return reflect.Value{}, errors.Errorf("%v overflows %s", f, t)
		}
		out.SetFloat(f)
		return out, nil

	case schema.KindBool:
		b, err := cast.ToBoolE(v)
		if err != nil {
			return reflect.Value{}, errors.Errorf("expected a boolean, got %s", describeValue(v))
		}
		return reflect.ValueOf(b).Convert(t), nil

	case schema.KindEnum:
		s, ok := v.(string)
		if !ok {
			return reflect.Value{}, errors.Errorf("expected a string, got %s", describeValue(v))
		}
		if !slices.Contains(choices, s) {
			return reflect.Value{}, errors.Errorf("%q is not one of {%s}", s, strings.Join(choices, "|"))
		}
		return reflect.ValueOf(s).Convert(t), nil

	default:
		s, ok := v.(string)
		if !ok {
			return reflect.Value{}, errors.Errorf("expected a string, got %s", describeValue(v))
		}
		return reflect.ValueOf(s).Convert(t), nil
	}
}

func coerceInt(t reflect.Type, v any) (reflect.Value, error) {
	switch x := v.(type) {
	case bool:
		return reflect.Value{}, errors.Errorf("expected an integer, got %s", describeValue(v))
	case float64:
		if err := checkWholeFloat(t, x); err != nil {
			return reflect.Value{}, err
		}
	case float32:
		if err := checkWholeFloat(t, float64(x)); err != nil {
			return reflect.Value{}, err
		}
	case string:
		v = schema.IntText(x)
	}

	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if f, isFloat := v.(float64); isFloat && f < 0 {
			return reflect.Value{}, errors.Errorf("%v is negative", f)
		}
		n, err := cast.ToUint64E(v)
		if err != nil {
			return reflect.Value{}, errors.Errorf("expected a non-negative integer, got %s", describeValue(v))
		}
		if out.OverflowUint(n) {
			return reflect.Value{}, errors.Errorf("%d overflows %s", n, t)
		}
		out.SetUint(n)
	default:
		n, err := cast.ToInt64E(v)
		if err != nil {
			return reflect.Value{}, errors.Errorf("expected an integer, got %s", describeValue(v))
		}
		if out.OverflowInt(n) {
			return reflect.Value{}, errors.Errorf("%d overflows %s", n, t)
		}
		out.SetInt(n)
	}
	return out, nil
}

// Float bounds of the 64-bit integer types. 1<<63 and 1<<64 are exact in
// float64; MaxInt64 and MaxUint64 are not.
const (
	minInt64Float  = -(1 << 63)
	maxInt64Float  = 1 << 63
	maxUint64Float = 1 << 64
)

// checkWholeFloat rejects fractional, infinite and out-of-range JSON numbers
// before they reach a float-to-integer conversion.
func checkWholeFloat(t reflect.Type, x float64) error {
	if math.IsInf(x, 0) || math.IsNaN(x) || x != math.Trunc(x) {
		return errors.Errorf("expected an integer, got %v", x)
	}
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if x >= maxUint64Float {
			return errors.Errorf("%v overflows %s", x, t)
		}
	default:
		if x < minInt64Float || x >= maxInt64Float {
			return errors.Errorf("%v overflows %s", x, t)
		}
	}
	return nil
}

func describeValue(v any) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case nil:
		return "null"
	}
	return fmt.Sprintf("%v (%T)", v, v)
}

func describe(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
	}
	return "failed " + fe.Tag()
}
