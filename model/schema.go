package model

import (
	"fmt"

	"github.com/0xdezzy/tabgraph/graphs"
	"github.com/0xdezzy/tabgraph/property"
	"github.com/0xdezzy/tabgraph/table"
)

// DefaultPrimaryKey is the primary key of a schema that does not name one.
const DefaultPrimaryKey = "id"

// Schema is a declarative Class built from property descriptors.
type Schema struct {
	label      string
	primaryKey string
	props      []*property.Descriptor
	byName     map[string]*property.Descriptor
	byKey      map[string]*property.Descriptor
}

var (
	_ Class         = (*Schema)(nil)
	_ RowAssigner   = (*Schema)(nil)
	_ DictExtractor = (*Schema)(nil)
)

// New creates a schema. An empty primaryKey selects DefaultPrimaryKey.
// Property defaults are checked against their descriptors.
func New(label, primaryKey string, props ...*property.Descriptor) (*Schema, error) {
	if label == "" {
		return nil, fmt.Errorf("%w: empty label", ErrInvalidSchema)
	}
	if primaryKey == "" {
		primaryKey = DefaultPrimaryKey
	}
	s := &Schema{
		label:      label,
		primaryKey: primaryKey,
		byName:     make(map[string]*property.Descriptor, len(props)),
		byKey:      make(map[string]*property.Descriptor, len(props)),
	}
	for _, d := range props {
		if d == nil || d.Name() == "" {
			return nil, fmt.Errorf("%w: %s has an unnamed property", ErrInvalidSchema, label)
		}
		if _, ok := s.byName[d.Name()]; ok {
			return nil, fmt.Errorf("%w: %s declares %q twice", ErrInvalidSchema, label, d.Name())
		}
		if _, ok := s.byKey[d.StorageKey()]; ok {
			return nil, fmt.Errorf("%w: %s stores two properties under %q", ErrInvalidSchema, label, d.StorageKey())
		}
		if def, ok := d.DefaultValue(); ok {
			if _, err := d.Write(def); err != nil {
				return nil, fmt.Errorf("%w: %s default: %w", ErrInvalidSchema, label, err)
			}
		}
		s.props = append(s.props, d)
		s.byName[d.Name()] = d
		s.byKey[d.StorageKey()] = d
	}
	return s, nil
}

// MustNew is like New but panics on error.
func MustNew(label, primaryKey string, props ...*property.Descriptor) *Schema {
	s, err := New(label, primaryKey, props...)
	if err != nil {
		panic(err)
	}
	return s
}

// Label returns the node label.
func (s *Schema) Label() string { return s.label }

// PrimaryKey returns the graph property key of the primary key property.
func (s *Schema) PrimaryKey() string {
	if d, ok := s.byName[s.primaryKey]; ok {
		return d.StorageKey()
	}
	return s.primaryKey
}

// Properties returns the descriptors in declaration order.
func (s *Schema) Properties() []*property.Descriptor {
	out := make([]*property.Descriptor, len(s.props))
	copy(out, s.props)
	return out
}

// Property returns the descriptor of a property by name.
func (s *Schema) Property(name string) (*property.Descriptor, bool) {
	d, ok := s.byName[name]
	return d, ok
}

// NewInstance returns an unbound instance with every default applied.
func (s *Schema) NewInstance() *Instance {
	inst := &Instance{schema: s, node: graphs.NewNode(s.label, nil)}
	for _, d := range s.props {
		if def, ok := d.DefaultValue(); ok {
			// Defaults were validated by New.
			v, _ := d.Write(def)
			if v != nil {
				inst.node.Properties[d.StorageKey()] = v
			}
		}
	}
	return inst
}

// Wrap returns an instance backed by n. The node must carry the schema label.
func (s *Schema) Wrap(n *graphs.Node) (Entity, error) {
	if n == nil || !n.HasLabel(s.label) {
		return nil, fmt.Errorf("%w: node is not a %s", ErrForeignEntity, s.label)
	}
	if n.Properties == nil {
		n.Properties = make(map[string]any)
	}
	return &Instance{schema: s, node: n}, nil
}

// AssignRow builds an instance from the row columns that name a declared
// property. Other columns are ignored.
func (s *Schema) AssignRow(row table.Row) (Entity, error) {
	inst := s.NewInstance()
	for _, c := range row.Columns() {
		if _, ok := s.byName[c]; !ok {
			continue
		}
		v, _ := row.Get(c)
		if err := inst.Set(c, v); err != nil {
			return nil, fmt.Errorf("row %d: %w", row.Index(), err)
		}
	}
	return inst, nil
}

// ToDict returns the named properties of an instance. Declared properties are
// read through their descriptors; other names are looked up among the raw
// node properties. With no names given, every stored node property is returned.
func (s *Schema) ToDict(e Entity, properties []string) (map[string]any, error) {
	inst, ok := e.(*Instance)
	if !ok || inst.schema != s {
		return nil, fmt.Errorf("%w: %T", ErrForeignEntity, e)
	}
	if len(properties) == 0 {
		out := make(map[string]any, len(inst.node.Properties))
		for k, v := range inst.node.Properties {
			out[k] = v
		}
		return out, nil
	}
	out := make(map[string]any, len(properties))
	for _, name := range properties {
		if _, declared := s.byName[name]; declared {
			v, err := inst.Get(name)
			if err != nil {
				return nil, err
			}
			out[name] = v
			continue
		}
		v, ok := inst.node.Properties[name]
		if !ok {
			return nil, fmt.Errorf("%w %q on %s", ErrUnknownProperty, name, s.label)
		}
		out[name] = v
	}
	return out, nil
}
