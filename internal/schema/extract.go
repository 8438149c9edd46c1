package schema

import (
	"reflect"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// Struct tags read by Extract.
const (
	TagJSON    = "json"
	TagCLI     = "cli"
	TagDefault = "default"
	TagHelp    = "help"
	TagChoices = "choices"
)

// Extract reads a struct type (or pointer to struct) and returns one Field
// per exported field, in declaration order. Embedded structs are flattened.
//
// Edge cases:
//   - unexported fields and fields tagged `cli:"-"` or `json:"-"` are skipped
//   - unsupported types and nested structs → *FieldError naming the field
//   - two fields resolving to the same name → *FieldError
//   - a default that cannot be coerced to the field kind → *FieldError
func Extract(t reflect.Type) ([]Field, error) {
	if t == nil {
		return nil, errors.New("schema: nil type")
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, errors.Errorf("schema: %s is not a struct type", t)
	}

	fields, err := extractStruct(t, nil)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]string, len(fields))
	for _, f := range fields {
		if other, dup := seen[f.Name]; dup {
			return nil, &FieldError{
				Field:  f.GoName,
				Reason: "name " + f.Name + " is already used by field " + other,
			}
		}
		seen[f.Name] = f.GoName
	}
	return fields, nil
}

func extractStruct(t reflect.Type, parent []int) ([]Field, error) {
	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(slices.Clone(parent), i)

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && sf.Tag.Get(TagJSON) == "" {
			embedded, err := extractStruct(sf.Type, index)
			if err != nil {
				return nil, err
			}
			fields = append(fields, embedded...)
			continue
		}
		if !sf.IsExported() {
			continue
		}

		f, skip, err := extractField(sf, index)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func extractField(sf reflect.StructField, index []int) (Field, bool, error) {
	name, skip := NameOf(sf)
	if skip {
		return Field{}, true, nil
	}

	cliTag, hasCLI := sf.Tag.Lookup(TagCLI)
	if cliTag == "-" {
		return Field{}, true, nil
	}

	shape, reason := mapGoType(sf.Type)
	if reason != "" {
		return Field{}, false, &FieldError{Field: sf.Name, Type: sf.Type, Reason: reason}
	}

	f := Field{
		Name:        name,
		GoName:      sf.Name,
		Index:       index,
		Type:        sf.Type,
		Kind:        shape.kind,
		Elem:        shape.elem,
		Nullable:    shape.nullable,
		Unsigned:    shape.unsigned,
		Choices:     shape.choices,
		Description: sf.Tag.Get(TagHelp),
	}
	if hasCLI {
		f.CLI = splitList(cliTag)
		if len(f.CLI) == 0 {
			return Field{}, false, &FieldError{Field: sf.Name, Reason: "empty cli tag"}
		}
	}

	if raw, ok := sf.Tag.Lookup(TagChoices); ok {
		if err := applyChoices(&f, dedupe(splitList(raw))); err != nil {
			return Field{}, false, err
		}
	}

	if raw, ok := sf.Tag.Lookup(TagDefault); ok {
		def, err := parseDefault(f, raw)
		if err != nil {
			return Field{}, false, &FieldError{
				Field:  sf.Name,
				Type:   sf.Type,
				Reason: "invalid default " + quote(raw) + ": " + err.Error(),
			}
		}
		f.Default = def
		f.HasDefault = true
	} else if f.Nullable {
		f.Default = nil
		f.HasDefault = true
	}
	f.Required = !f.HasDefault

	return f, false, nil
}

// NameOf returns the preset/flag name for a struct field, and whether the
// field is excluded by a `json:"-"` tag.
func NameOf(sf reflect.StructField) (string, bool) {
	tag := sf.Tag.Get(TagJSON)
	if tag == "-" {
		return "", true
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name, false
	}
	return ToFieldName(sf.Name), false
}

// applyChoices restricts a string field (or string collection) to a fixed set.
func applyChoices(f *Field, choices []string) error {
	if len(choices) == 0 {
		return &FieldError{Field: f.GoName, Reason: "empty choices tag"}
	}
	switch {
	case f.Kind == KindString || f.Kind == KindEnum:
		f.Kind = KindEnum
	case f.Kind.IsCollection() && (f.Elem == KindString || f.Elem == KindEnum):
		f.Elem = KindEnum
	default:
		return &FieldError{Field: f.GoName, Type: f.Type, Reason: "choices are only supported on string fields"}
	}
	f.Choices = choices
	return nil
}

// parseDefault converts a `default` tag into the normalized value for f.
func parseDefault(f Field, raw string) (any, error) {
	switch f.Kind {
	case KindList, KindSet:
		parts := splitList(raw)
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			v, err := parseScalar(f.Elem, f.Unsigned, f.Choices, p)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case KindOptionalBool:
		return cast.ToBoolE(raw)
	default:
		return parseScalar(f.Kind, f.Unsigned, f.Choices, raw)
	}
}

func parseScalar(kind Kind, unsigned bool, choices []string, raw string) (any, error) {
	switch kind {
	case KindInteger:
		if unsigned {
			return cast.ToUint64E(IntText(raw))
		}
		return cast.ToInt64E(IntText(raw))
	case KindFloat:
		return cast.ToFloat64E(raw)
	case KindBool:
		return cast.ToBoolE(raw)
	case KindEnum:
		if !slices.Contains(choices, raw) {
			return nil, errors.Errorf("must be one of %s", strings.Join(choices, ", "))
		}
		return raw, nil
	default:
		return raw, nil
	}
}

// splitList splits a comma-separated tag value into trimmed, non-empty
// entries. Order is preserved.
func splitList(csv string) []string {
	if csv == "" {
		return nil
	}
	var result []string
	for _, p := range strings.Split(csv, ",") {
		if s := strings.TrimSpace(p); s != "" {
			result = append(result, s)
		}
	}
	return result
}

// dedupe removes repeated entries; the first occurrence wins.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func quote(s string) string { return `"` + s + `"` }
