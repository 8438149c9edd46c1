package schema

import (
	"reflect"
	"time"
)

var (
	chooserType  = reflect.TypeOf((*Chooser)(nil)).Elem()
	durationType = reflect.TypeOf(time.Duration(0))
)

// typeShape is the result of mapping a Go type to a field kind.
type typeShape struct {
	kind     Kind
	elem     Kind
	nullable bool
	unsigned bool
	choices  []string
}

// mapGoType maps a struct field type to its Kind.
//
// It handles:
//   - Scalars: signed/unsigned integers, floats, strings, bools
//   - Enums: string types implementing Chooser
//   - Pointers: *bool is an optional boolean, *T of a scalar is nullable
//   - Collections: []T is a list, map[T]struct{} is a set (T scalar)
//
// Anything else returns a reason string describing why it was rejected.
func mapGoType(t reflect.Type) (typeShape, string) {
	if t.Kind() == reflect.Ptr {
		elem := t.Elem()
		if elem.Kind() == reflect.Bool {
			return typeShape{kind: KindOptionalBool, nullable: true}, ""
		}
		shape, reason := mapScalarType(elem)
		if reason != "" {
			return typeShape{}, "pointer to unsupported type: " + reason
		}
		shape.nullable = true
		return shape, ""
	}

	switch t.Kind() {
	case reflect.Slice:
		return mapCollectionType(t.Elem(), KindList)
	case reflect.Map:
		if t.Elem().Kind() != reflect.Struct || t.Elem().NumField() != 0 {
			return typeShape{}, "maps are only supported as sets (map[T]struct{})"
		}
		return mapCollectionType(t.Key(), KindSet)
	case reflect.Bool:
		return typeShape{kind: KindBool}, ""
	}
	return mapScalarType(t)
}

// mapScalarType maps a non-pointer, non-collection type.
func mapScalarType(t reflect.Type) (typeShape, string) {
	if t == durationType {
		return typeShape{}, "time.Duration is not supported; use an integer number of seconds or a string"
	}
	if t.Implements(chooserType) {
		if t.Kind() != reflect.String {
			return typeShape{}, "Chooser types must have an underlying string type"
		}
		choices := reflect.Zero(t).Interface().(Chooser).Choices()
		return typeShape{kind: KindEnum, choices: choices}, ""
	}

	switch t.Kind() {
	case reflect.String:
		return typeShape{kind: KindString}, ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return typeShape{kind: KindInteger}, ""
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return typeShape{kind: KindInteger, unsigned: true}, ""
	case reflect.Float32, reflect.Float64:
		return typeShape{kind: KindFloat}, ""
	case reflect.Bool:
		return typeShape{kind: KindBool}, ""
	case reflect.Struct:
		return typeShape{}, "nested object fields are not supported"
	default:
		return typeShape{}, "unsupported type"
	}
}

// mapCollectionType maps the element type of a list or set.
func mapCollectionType(elem reflect.Type, kind Kind) (typeShape, string) {
	if elem.Kind() == reflect.Ptr {
		return typeShape{}, "collections of pointers are not supported"
	}
	shape, reason := mapScalarType(elem)
	if reason != "" {
		return typeShape{}, "unsupported element type: " + reason
	}
	if shape.kind == KindBool {
		return typeShape{}, "collections of booleans are not supported"
	}
	return typeShape{
		kind:     kind,
		elem:     shape.kind,
		unsigned: shape.unsigned,
		choices:  shape.choices,
	}, ""
}
