package preset

import (
	"encoding/json"
	"io"

	"github.com/invopop/jsonschema"

	"github.com/thellimist/schemacli/internal/schema"
)

// Schema describes the preset file accepted for fields. Every property is
// optional because a preset may supply any subset of the fields; unknown
// keys are tolerated.
func Schema(title, description string, fields []schema.Field) *jsonschema.Schema {
	props := jsonschema.NewProperties()
	for _, f := range fields {
		props.Set(f.Name, fieldSchema(f))
	}
	return &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       title,
		Description: description,
		Type:        "object",
		Properties:  props,
	}
}

// WriteSchema writes s as indented JSON.
func WriteSchema(w io.Writer, s *jsonschema.Schema) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func fieldSchema(f schema.Field) *jsonschema.Schema {
	var s *jsonschema.Schema
	switch f.Kind {
	case schema.KindList, schema.KindSet:
		s = &jsonschema.Schema{
			Type:        "array",
			Items:       scalarSchema(f.Elem, f.Unsigned, f.Choices),
			UniqueItems: f.Kind == schema.KindSet,
		}
	default:
		s = scalarSchema(f.Kind, f.Unsigned, f.Choices)
	}

	if f.Nullable {
		s = &jsonschema.Schema{AnyOf: []*jsonschema.Schema{s, {Type: "null"}}}
	}
	s.Description = f.Description
	if f.HasDefault && f.Default != nil {
		s.Default = f.Default
	}
	return s
}

func scalarSchema(kind schema.Kind, unsigned bool, choices []string) *jsonschema.Schema {
	switch kind {
	case schema.KindInteger:
		s := &jsonschema.Schema{Type: "integer"}
		if unsigned {
			s.Minimum = json.Number("0")
		}
		return s
	case schema.KindFloat:
		return &jsonschema.Schema{Type: "number"}
	case schema.KindBool, schema.KindOptionalBool:
		return &jsonschema.Schema{Type: "boolean"}
	case schema.KindEnum:
		enum := make([]any, len(choices))
		for i, c := range choices {
			enum[i] = c
		}
		return &jsonschema.Schema{Type: "string", Enum: enum}
	default:
		return &jsonschema.Schema{Type: "string"}
	}
}
