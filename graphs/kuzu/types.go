package kuzu

import (
	"fmt"
	"strings"
)

// DataType is a KuzuDB column type.
type DataType string

const (
	INT64  DataType = "INT64"
	DOUBLE DataType = "DOUBLE"
	STRING DataType = "STRING"
	BOOL   DataType = "BOOL"
)

// ListOf returns the list type with elements of t.
func ListOf(t DataType) DataType {
	return t + "[]"
}

// IsList reports whether t is a list type.
func (t DataType) IsList() bool {
	return strings.HasSuffix(string(t), "[]")
}

// Elem returns the element type of a list type, or t itself.
func (t DataType) Elem() DataType {
	return DataType(strings.TrimSuffix(string(t), "[]"))
}

func (t DataType) numeric() bool {
	return t == INT64 || t == DOUBLE
}

// normalizeType maps the spellings KuzuDB reports in table_info onto the
// types this package creates.
func normalizeType(s string) DataType {
	t := DataType(strings.ToUpper(strings.TrimSpace(s)))
	switch t.Elem() {
	case "BOOLEAN":
		if t.IsList() {
			return ListOf(BOOL)
		}
		return BOOL
	case "INT", "SERIAL":
		if t.IsList() {
			return ListOf(INT64)
		}
		return INT64
	}
	return t
}

// typeOf returns the column type for a property value and the value
// converted for a parameter of that type. Empty lists have no type.
func typeOf(v any) (DataType, any, error) {
	switch x := v.(type) {
	case string:
		return STRING, x, nil
	case bool:
		return BOOL, x, nil
	case int:
		return INT64, int64(x), nil
	case int8:
		return INT64, int64(x), nil
	case int16:
		return INT64, int64(x), nil
	case int32:
		return INT64, int64(x), nil
	case int64:
		return INT64, x, nil
	case uint8:
		return INT64, int64(x), nil
	case uint16:
		return INT64, int64(x), nil
	case uint32:
		return INT64, int64(x), nil
	case float32:
		return DOUBLE, float64(x), nil
	case float64:
		return DOUBLE, x, nil
	case []any:
		return listTypeOf(x)
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return listTypeOf(out)
	}
	return "", nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

func listTypeOf(list []any) (DataType, any, error) {
	if len(list) == 0 {
		return "", nil, fmt.Errorf("%w: empty list", ErrUnsupportedValue)
	}
	var elem DataType
	out := make([]any, len(list))
	for i, item := range list {
		t, conv, err := typeOf(item)
		if err != nil {
			return "", nil, fmt.Errorf("list element %d: %w", i, err)
		}
		if t.IsList() {
			return "", nil, fmt.Errorf("%w: nested list", ErrUnsupportedValue)
		}
		switch {
		case elem == "":
			elem = t
		case elem == t:
		case elem.numeric() && t.numeric():
			elem = DOUBLE
		default:
			return "", nil, fmt.Errorf("%w: list mixes %s and %s", ErrUnsupportedValue, elem, t)
		}
		out[i] = conv
	}
	if elem == DOUBLE {
		for i, item := range out {
			if n, ok := item.(int64); ok {
				out[i] = float64(n)
			}
		}
	}
	return ListOf(elem), out, nil
}

// convertFor converts v for a column of type col. It fails when the value
// cannot be stored in the column without losing its kind.
func convertFor(col DataType, v any) (any, error) {
	t, conv, err := typeOf(v)
	if err != nil {
		return nil, err
	}
	if t == col {
		return conv, nil
	}
	switch {
	case col == DOUBLE && t == INT64:
		return float64(conv.(int64)), nil
	case col == ListOf(DOUBLE) && t == ListOf(INT64):
		list := conv.([]any)
		out := make([]any, len(list))
		for i, item := range list {
			out[i] = float64(item.(int64))
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s value for %s column", ErrColumnType, t, col)
}

// comparableWith reports whether a predicate value can be compared with a
// column of type col.
func comparableWith(col DataType, v any) bool {
	t, _, err := typeOf(v)
	if err != nil {
		return false
	}
	if t == col {
		return true
	}
	return t.numeric() && col.numeric()
}
