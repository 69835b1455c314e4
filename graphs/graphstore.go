package graphs

import (
	"context"
	"errors"
)

var (
	// ErrUnsupportedEntity is returned when a store is given a value that is
	// neither a *Node nor a *Relationship.
	ErrUnsupportedEntity = errors.New("unsupported graph entity")

	// ErrMissingEndpoint is returned when a relationship lacks a start or end node.
	ErrMissingEndpoint = errors.New("relationship endpoint is nil")

	// ErrTxDone is returned when a committed or rolled back transaction is reused.
	ErrTxDone = errors.New("transaction has already been committed or rolled back")
)

// Store defines the interface for the property graph database the tabular
// synchronizer writes to and reads from.
type Store interface {
	// Begin opens a write transaction.
	Begin(ctx context.Context) (Tx, error)

	// MatchNodes returns the nodes selected by m.
	MatchNodes(ctx context.Context, m NodeMatch) ([]*Node, error)

	// MatchRelationships returns the relationships selected by m.
	MatchRelationships(ctx context.Context, m RelationshipMatch) ([]*Relationship, error)

	// Close releases the store connection.
	Close(ctx context.Context) error
}

// Tx is a write transaction. Entities passed to Create are written when the
// transaction commits; on success their ID fields are set to the element ids
// assigned by the store.
type Tx interface {
	// Create schedules the creation of a node or relationship. Unbound
	// endpoints of a relationship are created along with it.
	Create(e Entity) error

	// Commit writes every scheduled entity atomically.
	Commit(ctx context.Context) error

	// Rollback discards the transaction. It is a no-op after Commit.
	Rollback(ctx context.Context) error
}

// FirstNode returns the first node selected by m, or nil when nothing matches.
func FirstNode(ctx context.Context, s Store, m NodeMatch) (*Node, error) {
	m.Limit = 1
	nodes, err := s.MatchNodes(ctx, m)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}
	return nodes[0], nil
}
