package property

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidType is returned when a value does not have the declared kind
	// of its property, either as given or after casting.
	ErrInvalidType = errors.New("property value with invalid type")

	// ErrNotNull is returned when a NotNull property receives nil or NaN.
	ErrNotNull = errors.New("not null property")
)

// InvalidValueError describes a value rejected by a descriptor.
type InvalidValueError struct {
	Property string // property name
	Kind     Kind   // declared kind (element kind for list elements)
	Value    any    // offending value
	Index    int    // list element index, -1 for the whole value
	Err      error  // cast failure, if any
}

// Error returns the error string.
func (e *InvalidValueError) Error() string {
	what := "value"
	if e.Index >= 0 {
		what = fmt.Sprintf("element %d", e.Index)
	}
	msg := fmt.Sprintf("property %q requires %s values: got %s %v of type %T",
		e.Property, e.Kind, what, e.Value, e.Value)
	if e.Err != nil {
		msg += fmt.Sprintf(" and failed to cast it: %v", e.Err)
	}
	return msg
}

// Is reports whether target is ErrInvalidType.
func (e *InvalidValueError) Is(target error) bool {
	return target == ErrInvalidType
}

// Unwrap returns the cast failure.
func (e *InvalidValueError) Unwrap() error {
	return e.Err
}

// IsInvalidValue returns true if the error is an InvalidValueError.
func IsInvalidValue(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidValueError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidType)
}

// NotNullError is returned when a NotNull property receives a missing value.
type NotNullError struct {
	Property string
	Kind     Kind
}

// Error returns the error string.
func (e *NotNullError) Error() string {
	return fmt.Sprintf("property %q has the not null flag set but got a missing value; use a %s value",
		e.Property, e.Kind)
}

// Is reports whether target is ErrNotNull.
func (e *NotNullError) Is(target error) bool {
	return target == ErrNotNull
}

// IsNotNull returns true if the error is a NotNullError.
func IsNotNull(err error) bool {
	if err == nil {
		return false
	}
	var e *NotNullError
	return errors.As(err, &e) || errors.Is(err, ErrNotNull)
}
