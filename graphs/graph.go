package graphs

import (
	"maps"
	"slices"
)

// Entity is a node or relationship of a property graph.
type Entity interface {
	ElementID() string
}

// NodeWrapper is implemented by values that are backed by a graph node, such
// as model instances.
type NodeWrapper interface {
	GraphNode() *Node
}

// Node represents a node in a graph with associated properties.
type Node struct {
	// ID is the store element id. It is empty until the node is committed.
	ID string

	Labels     []string
	Properties map[string]any
}

// NewNode creates a new unbound node with a single label.
func NewNode(label string, properties map[string]any) *Node {
	if properties == nil {
		properties = make(map[string]any)
	}
	return &Node{Labels: []string{label}, Properties: properties}
}

// ElementID returns the store element id of the node.
func (n *Node) ElementID() string { return n.ID }

// GraphNode returns n.
func (n *Node) GraphNode() *Node { return n }

// Label returns the first label of the node.
func (n *Node) Label() string {
	if len(n.Labels) == 0 {
		return ""
	}
	return n.Labels[0]
}

// HasLabel reports whether the node carries label.
func (n *Node) HasLabel(label string) bool {
	return slices.Contains(n.Labels, label)
}

// Bound reports whether the node has been committed to a store.
func (n *Node) Bound() bool { return n.ID != "" }

// Clone returns a copy of the node with its own label slice and property map.
func (n *Node) Clone() *Node {
	return &Node{
		ID:         n.ID,
		Labels:     slices.Clone(n.Labels),
		Properties: maps.Clone(n.Properties),
	}
}

// Relationship represents a directed, typed relationship between two nodes.
type Relationship struct {
	ID         string
	Type       string
	Start      *Node
	End        *Node
	Properties map[string]any
}

// NewRelationship creates a new unbound relationship.
func NewRelationship(start *Node, relType string, end *Node, properties map[string]any) *Relationship {
	if properties == nil {
		properties = make(map[string]any)
	}
	return &Relationship{Type: relType, Start: start, End: end, Properties: properties}
}

// ElementID returns the store element id of the relationship.
func (r *Relationship) ElementID() string { return r.ID }

// Batch accumulates the entities of a transaction. Unbound relationship
// endpoints are collected as nodes, each node at most once.
type Batch struct {
	Nodes         []*Node
	Relationships []*Relationship

	seen map[*Node]struct{}
}

// Add schedules e. Bound nodes are skipped.
func (b *Batch) Add(e Entity) error {
	switch v := e.(type) {
	case *Node:
		b.addNode(v)
	case *Relationship:
		if v == nil || v.Start == nil || v.End == nil {
			return ErrMissingEndpoint
		}
		b.addNode(v.Start)
		b.addNode(v.End)
		b.Relationships = append(b.Relationships, v)
	default:
		return ErrUnsupportedEntity
	}
	return nil
}

func (b *Batch) addNode(n *Node) {
	if n == nil || n.Bound() {
		return
	}
	if b.seen == nil {
		b.seen = make(map[*Node]struct{})
	}
	if _, ok := b.seen[n]; ok {
		return
	}
	b.seen[n] = struct{}{}
	b.Nodes = append(b.Nodes, n)
}

// Len returns the number of scheduled entities.
func (b *Batch) Len() int {
	return len(b.Nodes) + len(b.Relationships)
}

// Reset empties the batch.
func (b *Batch) Reset() {
	b.Nodes = nil
	b.Relationships = nil
	b.seen = nil
}
