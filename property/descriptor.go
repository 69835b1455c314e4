package property

import (
	"fmt"
)

// Descriptor declares a single typed property of a node model.
type Descriptor struct {
	name       string
	kind       Kind
	elem       Kind
	cast       bool
	notNull    bool
	hasDefault bool
	def        any
	key        string
}

func newDescriptor(name string, k Kind) *Descriptor {
	return &Descriptor{name: name, kind: k}
}

// String returns a descriptor for a string property.
func String(name string) *Descriptor { return newDescriptor(name, KindString) }

// Integer returns a descriptor for an int64 property.
func Integer(name string) *Descriptor { return newDescriptor(name, KindInteger) }

// Float returns a descriptor for a float64 property.
func Float(name string) *Descriptor { return newDescriptor(name, KindFloat) }

// Bool returns a descriptor for a bool property.
func Bool(name string) *Descriptor { return newDescriptor(name, KindBool) }

// List returns a descriptor for a list property whose elements have kind elem.
// It panics if elem is not a scalar kind.
func List(name string, elem Kind) *Descriptor {
	if !elem.Scalar() {
		panic(fmt.Sprintf("property: list %q requires a scalar element kind, got %s", name, elem))
	}
	d := newDescriptor(name, KindList)
	d.elem = elem
	return d
}

// Cast enables coercion of written values into the declared kind.
func (d *Descriptor) Cast() *Descriptor {
	d.cast = true
	return d
}

// NotNull forbids nil and NaN values.
func (d *Descriptor) NotNull() *Descriptor {
	d.notNull = true
	return d
}

// Default sets the value new instances start with.
func (d *Descriptor) Default(v any) *Descriptor {
	d.hasDefault = true
	d.def = v
	return d
}

// Key sets the graph property key the value is stored under. It defaults to
// the property name.
func (d *Descriptor) Key(k string) *Descriptor {
	d.key = k
	return d
}

// Name returns the property name.
func (d *Descriptor) Name() string { return d.name }

// Kind returns the declared kind.
func (d *Descriptor) Kind() Kind { return d.kind }

// Elem returns the element kind of a list property, KindInvalid otherwise.
func (d *Descriptor) Elem() Kind { return d.elem }

// Casts reports whether written values are coerced into the declared kind.
func (d *Descriptor) Casts() bool { return d.cast }

// IsNotNull reports whether nil and NaN values are rejected.
func (d *Descriptor) IsNotNull() bool { return d.notNull }

// StorageKey returns the graph property key of the descriptor.
func (d *Descriptor) StorageKey() string {
	if d.key != "" {
		return d.key
	}
	return d.name
}

// DefaultValue returns the configured default and whether there is one.
func (d *Descriptor) DefaultValue() (any, bool) {
	return d.def, d.hasDefault
}

// Read checks a value taken from backing storage. Nil passes unchanged.
func (d *Descriptor) Read(v any) (any, error) {
	if err := Validate(d, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Write checks, and casts if enabled, a value about to be stored. It returns
// the value to store.
func (d *Descriptor) Write(v any) (any, error) {
	var (
		out any
		err error
	)
	if d.kind == KindList {
		out, err = d.writeList(v)
	} else {
		out, err = d.writeScalar(v)
	}
	if err != nil {
		return nil, err
	}
	if d.notNull && (out == nil || IsNaN(out)) {
		return nil, &NotNullError{Property: d.name, Kind: d.kind}
	}
	return out, nil
}

func (d *Descriptor) writeScalar(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if d.cast && KindOf(v) != d.kind {
		if IsNaN(v) {
			return nil, nil
		}
		cv, err := Coerce(d.kind, v)
		if err != nil {
			return nil, d.invalid(v, -1, err)
		}
		v = cv
	}
	if KindOf(v) != d.kind {
		return nil, d.invalid(v, -1, nil)
	}
	return v, nil
}

func (d *Descriptor) writeList(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if d.cast && IsNaN(v) {
		return nil, nil
	}
	items, ok := elements(v)
	if !ok {
		return nil, d.invalid(v, -1, nil)
	}
	if !d.cast {
		if err := d.checkElements(items); err != nil {
			return nil, err
		}
		return v, nil
	}
	out := make([]any, len(items))
	for i, item := range items {
		if item != nil && KindOf(item) != d.elem {
			cv, err := Coerce(d.elem, item)
			if err != nil {
				return nil, d.invalid(item, i, err)
			}
			item = cv
		}
		if KindOf(item) != d.elem {
			return nil, d.invalid(item, i, nil)
		}
		out[i] = item
	}
	return out, nil
}

func (d *Descriptor) checkElements(items []any) error {
	for i, item := range items {
		if KindOf(item) != d.elem {
			return d.invalid(item, i, nil)
		}
	}
	return nil
}

func (d *Descriptor) invalid(v any, index int, err error) error {
	k := d.kind
	if index >= 0 {
		k = d.elem
	}
	return &InvalidValueError{Property: d.name, Kind: k, Value: v, Index: index, Err: err}
}

// Validate reports whether v may be held by a property described by d. Nil is
// always accepted; nullability is enforced on write only.
func Validate(d *Descriptor, v any) error {
	if v == nil {
		return nil
	}
	if KindOf(v) != d.kind {
		return d.invalid(v, -1, nil)
	}
	if d.kind == KindList {
		items, _ := elements(v)
		return d.checkElements(items)
	}
	return nil
}
