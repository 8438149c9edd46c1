package schema

import (
	"fmt"
	"reflect"
)

// Kind classifies a field for flag synthesis and value coercion.
type Kind int

const (
	KindInvalid Kind = iota
	KindInteger
	KindFloat
	KindString
	KindBool
	KindEnum
	KindList
	KindSet
	KindOptionalBool
)

var kindNames = map[Kind]string{
	KindInvalid:      "invalid",
	KindInteger:      "integer",
	KindFloat:        "float",
	KindString:       "string",
	KindBool:         "boolean",
	KindEnum:         "enum",
	KindList:         "list",
	KindSet:          "set",
	KindOptionalBool: "optional-boolean",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsBool reports whether k is one of the two boolean kinds.
func (k Kind) IsBool() bool { return k == KindBool || k == KindOptionalBool }

// IsCollection reports whether k holds more than one value.
func (k Kind) IsCollection() bool { return k == KindList || k == KindSet }

// Field describes a single schema field. It is produced once by Extract
// and never mutated afterwards.
type Field struct {
	Name        string       // Key used for flags and preset files (e.g., "max_records")
	GoName      string       // Go struct field name (e.g., "MaxRecords")
	Index       []int        // reflect index path into the struct
	Type        reflect.Type // Declared Go type
	Kind        Kind
	Elem        Kind     // Element kind for KindList / KindSet
	Required    bool     // No default and not nullable
	HasDefault  bool     // Default is meaningful (may be nil for pointer fields)
	Default     any      // Normalized default: int64, uint64, float64, string, bool, []any or nil
	CLI         []string // Explicit flag spellings from the `cli` tag
	Description string   // From the `help` tag
	Choices     []string // Allowed values for KindEnum (or the element of a collection)
	Nullable    bool     // Pointer field; nil is a legal value
	Unsigned    bool     // Integer field backed by an unsigned Go type
}

// Chooser is implemented by named string types that restrict their values.
// A field whose type implements Chooser is extracted as KindEnum.
type Chooser interface {
	Choices() []string
}

// FieldError reports a schema field that cannot be turned into CLI flags.
type FieldError struct {
	Field  string // Go field name
	Type   reflect.Type
	Reason string
}

func (e *FieldError) Error() string {
	if e.Type != nil {
		return fmt.Sprintf("schema: field %s (%s): %s", e.Field, e.Type, e.Reason)
	}
	return fmt.Sprintf("schema: field %s: %s", e.Field, e.Reason)
}
