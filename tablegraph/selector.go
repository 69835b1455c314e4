package tablegraph

import (
	"github.com/0xdezzy/tabgraph/model"
)

// Selector chooses the nodes an operation works on: either every node with a
// bare label, or the nodes of a model class.
type Selector struct {
	label string
	class model.Class
}

// ByLabel selects generic nodes carrying label.
func ByLabel(label string) Selector {
	return Selector{label: label}
}

// ByModel selects nodes of a model class.
func ByModel(c model.Class) Selector {
	return Selector{class: c}
}

// Label returns the node label of the selector.
func (s Selector) Label() string {
	if s.class != nil {
		return s.class.Label()
	}
	return s.label
}

// Class returns the model class, or nil for a label selector.
func (s Selector) Class() model.Class { return s.class }

func (s Selector) validate() error {
	if s.Label() == "" {
		return invalidArguments("selector has no label or model class")
	}
	return nil
}

// Endpoint describes how the table identifies one end of a relationship.
type Endpoint struct {
	Selector Selector

	// KeyColumn is the table column holding the node identifier.
	KeyColumn string

	// IDKey is the node property compared to the KeyColumn value. Required for
	// label selectors; defaults to the primary key of a model class.
	IDKey string
}

// idKey returns the node property used for matching.
func (e Endpoint) idKey() (string, error) {
	if err := e.Selector.validate(); err != nil {
		return "", err
	}
	if e.IDKey != "" {
		return e.IDKey, nil
	}
	if c := e.Selector.Class(); c != nil {
		return c.PrimaryKey(), nil
	}
	return "", invalidArguments("label %q endpoint needs an id key to match nodes", e.Selector.Label())
}
