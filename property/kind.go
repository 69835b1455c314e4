package property

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Kind is the value kind of a property.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindInteger
	KindFloat
	KindBool
	KindList
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// Scalar reports whether k is one of the scalar kinds.
func (k Kind) Scalar() bool {
	return k == KindString || k == KindInteger || k == KindFloat || k == KindBool
}

// ParseKind converts a kind name into a Kind. Common aliases are accepted.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string", "str", "text":
		return KindString, nil
	case "integer", "int", "int64":
		return KindInteger, nil
	case "float", "float64", "double":
		return KindFloat, nil
	case "bool", "boolean":
		return KindBool, nil
	case "list":
		return KindList, nil
	default:
		return KindInvalid, fmt.Errorf("unknown property kind %q", name)
	}
}

// KindOf returns the runtime kind of v. Values whose Go type is not the exact
// runtime type of a kind report KindInvalid. Any slice other than []byte
// reports KindList; its elements are not inspected.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindInvalid
	case string:
		return KindString
	case int64:
		return KindInteger
	case float64:
		return KindFloat
	case bool:
		return KindBool
	case []byte:
		return KindInvalid
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return KindList
	}
	return KindInvalid
}

// IsNaN reports whether v is a floating point NaN.
func IsNaN(v any) bool {
	switch f := v.(type) {
	case float64:
		return math.IsNaN(f)
	case float32:
		return math.IsNaN(float64(f))
	}
	return false
}

// elements returns the elements of a slice or array value.
func elements(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if items, ok := v.([]any); ok {
		return items, true
	}
	if _, ok := v.([]byte); ok {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}
