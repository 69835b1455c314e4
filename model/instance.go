package model

import (
	"fmt"

	"github.com/0xdezzy/tabgraph/graphs"
)

// Instance is a node of a Schema class. Property values live in the node
// properties under their storage keys; every access goes through the
// property descriptor.
type Instance struct {
	schema *Schema
	node   *graphs.Node
}

// Schema returns the class of the instance.
func (i *Instance) Schema() *Schema { return i.schema }

// GraphNode returns the backing node.
func (i *Instance) GraphNode() *graphs.Node { return i.node }

// Get returns the value of a declared property.
func (i *Instance) Get(name string) (any, error) {
	d, ok := i.schema.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w %q on %s", ErrUnknownProperty, name, i.schema.label)
	}
	return d.Read(i.node.Properties[d.StorageKey()])
}

// Set validates, and casts when the property allows it, v and stores the
// result. Storing nil removes the property from the node.
func (i *Instance) Set(name string, v any) error {
	d, ok := i.schema.byName[name]
	if !ok {
		return fmt.Errorf("%w %q on %s", ErrUnknownProperty, name, i.schema.label)
	}
	stored, err := d.Write(v)
	if err != nil {
		return err
	}
	if stored == nil {
		delete(i.node.Properties, d.StorageKey())
		return nil
	}
	i.node.Properties[d.StorageKey()] = stored
	return nil
}

// PrimaryValue returns the raw value of the primary key.
func (i *Instance) PrimaryValue() any {
	return i.node.Properties[i.schema.PrimaryKey()]
}

// Properties returns every declared property that holds a value, keyed by
// property name.
func (i *Instance) Properties() (map[string]any, error) {
	out := make(map[string]any, len(i.schema.props))
	for _, d := range i.schema.props {
		v, err := i.Get(d.Name())
		if err != nil {
			return nil, err
		}
		if v != nil {
			out[d.Name()] = v
		}
	}
	return out, nil
}

// Value returns a declared property converted to T. A missing value yields
// the zero T.
func Value[T any](e Entity, name string) (T, error) {
	var zero T
	inst, ok := e.(*Instance)
	if !ok {
		return zero, fmt.Errorf("%w: %T", ErrForeignEntity, e)
	}
	v, err := inst.Get(name)
	if err != nil || v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("property %q holds %T, not %T", name, v, zero)
	}
	return t, nil
}
