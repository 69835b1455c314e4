// Package memory provides an in-process graph store.
//
// The store keeps committed nodes and relationships in insertion order and is
// meant for tests, dry runs and small imports. Element ids are random UUIDs.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/0xdezzy/tabgraph/graphs"
)

// Store is an in-memory graphs.Store.
type Store struct {
	mu     sync.RWMutex
	nodes  []*graphs.Node
	byID   map[string]*graphs.Node
	rels   []*graphs.Relationship
	logger *zap.Logger
}

var _ graphs.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for commit diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		byID:   make(map[string]*graphs.Node),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin opens a transaction.
func (s *Store) Begin(_ context.Context) (graphs.Tx, error) {
	return &tx{store: s}, nil
}

// MatchNodes returns copies of the committed nodes selected by m.
func (s *Store) MatchNodes(ctx context.Context, m graphs.NodeMatch) ([]*graphs.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*graphs.Node
	for _, n := range s.nodes {
		if !m.Matches(n) {
			continue
		}
		out = append(out, n.Clone())
		if m.Limit > 0 && len(out) == m.Limit {
			break
		}
	}
	return out, nil
}

// MatchRelationships returns copies of the committed relationships selected by m.
func (s *Store) MatchRelationships(ctx context.Context, m graphs.RelationshipMatch) ([]*graphs.Relationship, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*graphs.Relationship
	for _, r := range s.rels {
		if !m.Matches(r) {
			continue
		}
		out = append(out, &graphs.Relationship{
			ID:         r.ID,
			Type:       r.Type,
			Start:      r.Start.Clone(),
			End:        r.End.Clone(),
			Properties: maps.Clone(r.Properties),
		})
		if m.Limit > 0 && len(out) == m.Limit {
			break
		}
	}
	return out, nil
}

// Close is a no-op.
func (s *Store) Close(_ context.Context) error { return nil }

// NodeCount returns the number of committed nodes.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// RelationshipCount returns the number of committed relationships.
func (s *Store) RelationshipCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rels)
}

type tx struct {
	store *Store
	batch graphs.Batch
	done  bool
}

func (t *tx) Create(e graphs.Entity) error {
	if t.done {
		return graphs.ErrTxDone
	}
	return t.batch.Add(e)
}

func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return graphs.ErrTxDone
	}
	t.done = true
	if err := ctx.Err(); err != nil {
		return err
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	// Resolve every endpoint before mutating state so a failed commit writes nothing.
	ids := make(map[*graphs.Node]string, len(t.batch.Nodes))
	for _, n := range t.batch.Nodes {
		ids[n] = uuid.NewString()
	}
	resolvable := func(n *graphs.Node) error {
		if _, ok := ids[n]; ok {
			return nil
		}
		if _, ok := s.byID[n.ID]; !ok {
			return fmt.Errorf("relationship endpoint %q is not in the store", n.ID)
		}
		return nil
	}
	for _, r := range t.batch.Relationships {
		if err := resolvable(r.Start); err != nil {
			return err
		}
		if err := resolvable(r.End); err != nil {
			return err
		}
	}

	for _, n := range t.batch.Nodes {
		stored := n.Clone()
		stored.ID = ids[n]
		s.nodes = append(s.nodes, stored)
		s.byID[stored.ID] = stored
		n.ID = stored.ID
	}
	for _, r := range t.batch.Relationships {
		stored := &graphs.Relationship{
			ID:         uuid.NewString(),
			Type:       r.Type,
			Start:      s.byID[r.Start.ID],
			End:        s.byID[r.End.ID],
			Properties: maps.Clone(r.Properties),
		}
		s.rels = append(s.rels, stored)
		r.ID = stored.ID
	}

	s.logger.Debug("committed transaction",
		zap.Int("nodes", len(t.batch.Nodes)),
		zap.Int("relationships", len(t.batch.Relationships)))
	return nil
}

func (t *tx) Rollback(_ context.Context) error {
	t.done = true
	t.batch.Reset()
	return nil
}
