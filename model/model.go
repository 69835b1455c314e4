// Package model declares graph node classes whose instances map to table rows.
//
// A Class names a node label and the property that identifies its nodes. The
// tabular synchronizer builds instances from rows through the optional
// RowAssigner and RowConstructor capabilities and turns them back into rows
// through DictExtractor. Schema implements every capability from a list of
// property descriptors:
//
//	person := model.MustNew("Person", "uuid",
//		property.String("uuid").NotNull(),
//		property.String("name").Cast(),
//		property.Integer("age").Cast(),
//	)
//
//	p := person.NewInstance()
//	err := p.Set("age", "42") // stored as int64(42)
package model

import (
	"errors"

	"github.com/0xdezzy/tabgraph/graphs"
	"github.com/0xdezzy/tabgraph/table"
)

var (
	// ErrUnknownProperty is returned when a property name is not declared by a schema.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrForeignEntity is returned when an entity does not belong to the class
	// asked to handle it.
	ErrForeignEntity = errors.New("entity does not belong to this model class")

	// ErrInvalidSchema is returned when a schema definition is inconsistent.
	ErrInvalidSchema = errors.New("invalid schema")
)

// Entity is a model instance backed by a graph node.
type Entity = graphs.NodeWrapper

// Class describes a graph node class.
type Class interface {
	// Label returns the node label of the class.
	Label() string

	// PrimaryKey returns the graph property key identifying nodes of the class.
	PrimaryKey() string

	// Wrap returns the instance backed by a node fetched from a store.
	Wrap(n *graphs.Node) (Entity, error)
}

// RowAssigner is implemented by classes that build instances by assigning
// every row column that names one of their properties.
type RowAssigner interface {
	AssignRow(row table.Row) (Entity, error)
}

// RowConstructor is implemented by classes with a custom row constructor.
type RowConstructor interface {
	FromRow(row table.Row) (Entity, error)
}

// DictExtractor is implemented by classes whose instances can be turned into
// property dictionaries. With no properties given every stored property is
// returned.
type DictExtractor interface {
	ToDict(e Entity, properties []string) (map[string]any, error)
}

// RowFunc adapts a function into a RowConstructor.
type RowFunc func(row table.Row) (Entity, error)

// FromRow calls f(row).
func (f RowFunc) FromRow(row table.Row) (Entity, error) { return f(row) }

// WithConstructor returns a class that builds instances with fn and otherwise
// behaves like c. The result no longer implements RowAssigner.
func WithConstructor(c Class, fn RowFunc) Class {
	cc := constructed{Class: c, RowFunc: fn}
	if x, ok := c.(DictExtractor); ok {
		return constructedDict{constructed: cc, DictExtractor: x}
	}
	return cc
}

type constructed struct {
	Class
	RowFunc
}

type constructedDict struct {
	constructed
	DictExtractor
}
