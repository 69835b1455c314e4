package neo4j

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/0xdezzy/tabgraph/graphs"
)

var (
	ErrInvalidBatchSize  = errors.New("batch size must be positive")
	ErrUnexpectedRecord  = errors.New("unexpected record in query result")
	ErrEndpointsNotFound = errors.New("relationship endpoints not found")
)

// Store is a Neo4j graph store implementation.
type Store struct {
	driver neo4j.DriverWithContext
	opts   *options
}

var _ graphs.Store = (*Store)(nil)

// New creates a new Neo4j graph store with the given options and verifies
// that the server is reachable.
func New(ctx context.Context, opts ...Option) (*Store, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	if err := validateOptions(options); err != nil {
		return nil, err
	}

	driver, err := neo4j.NewDriverWithContext(
		options.connectionURL,
		neo4j.BasicAuth(options.username, options.password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to Neo4j: %w", err)
	}

	return &Store{driver: driver, opts: options}, nil
}

func validateOptions(opts *options) error {
	if opts.batchSize <= 0 {
		return ErrInvalidBatchSize
	}
	return nil
}

// Close closes the Neo4j driver connection.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.opts.database,
		AccessMode:   mode,
	})
}

// Begin opens a write transaction. Entities are sent to the server when the
// transaction commits.
func (s *Store) Begin(ctx context.Context) (graphs.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &tx{store: s}, nil
}

// MatchNodes returns the nodes selected by m.
func (s *Store) MatchNodes(ctx context.Context, m graphs.NodeMatch) ([]*graphs.Node, error) {
	query, params := matchNodesQuery(m)
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		nodes := make([]*graphs.Node, 0, len(records))
		for _, rec := range records {
			v, _ := rec.Get("n")
			n, ok := v.(neo4j.Node)
			if !ok {
				return nil, fmt.Errorf("%w: %T", ErrUnexpectedRecord, v)
			}
			nodes = append(nodes, nodeFromDB(n))
		}
		return nodes, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to match nodes: %w", err)
	}
	return out.([]*graphs.Node), nil
}

// MatchRelationships returns the relationships selected by m.
func (s *Store) MatchRelationships(ctx context.Context, m graphs.RelationshipMatch) ([]*graphs.Relationship, error) {
	query, params := matchRelationshipsQuery(m)
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}
		rels := make([]*graphs.Relationship, 0, len(records))
		for _, rec := range records {
			a, _ := rec.Get("a")
			r, _ := rec.Get("r")
			b, _ := rec.Get("b")
			start, ok1 := a.(neo4j.Node)
			rel, ok2 := r.(neo4j.Relationship)
			end, ok3 := b.(neo4j.Node)
			if !ok1 || !ok2 || !ok3 {
				return nil, fmt.Errorf("%w: (%T)-[%T]->(%T)", ErrUnexpectedRecord, a, r, b)
			}
			rels = append(rels, relationshipFromDB(rel, start, end))
		}
		return rels, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to match relationships: %w", err)
	}
	return out.([]*graphs.Relationship), nil
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

func (t *tx) Rollback(_ context.Context) error {
	t.done = true
	t.batch.Reset()
	return nil
}

// Commit writes the batch in one managed transaction. Element ids are
// copied to the batch entities only once the server has committed.
func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return graphs.ErrTxDone
	}
	t.done = true
	if t.batch.Len() == 0 {
		return nil
	}

	s := t.store
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	var ids *assigned
	_, err := session.ExecuteWrite(ctx, func(mt neo4j.ManagedTransaction) (any, error) {
		// Retried transactions start over with fresh ids.
		ids = newAssigned()
		if err := t.writeNodes(ctx, mt, ids); err != nil {
			return nil, err
		}
		return nil, t.writeRelationships(ctx, mt, ids)
	})
	if err != nil {
		return fmt.Errorf("failed to write batch: %w", err)
	}

	for n, id := range ids.nodes {
		n.ID = id
	}
	for r, id := range ids.rels {
		r.ID = id
	}
	s.opts.logger.Debug("committed transaction",
		zap.String("database", s.opts.database),
		zap.Int("nodes", len(t.batch.Nodes)),
		zap.Int("relationships", len(t.batch.Relationships)))
	return nil
}

type assigned struct {
	nodes map[*graphs.Node]string
	rels  map[*graphs.Relationship]string
}

func newAssigned() *assigned {
	return &assigned{
		nodes: make(map[*graphs.Node]string),
		rels:  make(map[*graphs.Relationship]string),
	}
}

func (a *assigned) nodeID(n *graphs.Node) string {
	if id, ok := a.nodes[n]; ok {
		return id
	}
	return n.ID
}

func (t *tx) writeNodes(ctx context.Context, mt neo4j.ManagedTransaction, ids *assigned) error {
	for _, g := range groupNodes(t.batch.Nodes) {
		query := createNodesQuery(g.labels)
		for _, span := range batches(len(g.nodes), t.store.opts.batchSize) {
			part := g.nodes[span[0]:span[1]]
			rows := make([]any, len(part))
			for i, n := range part {
				rows[i] = map[string]any{"i": int64(i), "props": propertyMap(n.Properties)}
			}
			created, err := run(ctx, mt, query, rows)
			if err != nil {
				return err
			}
			if len(created) != len(part) {
				return fmt.Errorf("created %d of %d nodes", len(created), len(part))
			}
			for i, id := range created {
				ids.nodes[part[i]] = id
			}
		}
	}
	return nil
}

func (t *tx) writeRelationships(ctx context.Context, mt neo4j.ManagedTransaction, ids *assigned) error {
	byType := make(map[string][]*graphs.Relationship)
	var order []string
	for _, r := range t.batch.Relationships {
		if _, ok := byType[r.Type]; !ok {
			order = append(order, r.Type)
		}
		byType[r.Type] = append(byType[r.Type], r)
	}

	for _, relType := range order {
		rels := byType[relType]
		query := createRelationshipsQuery(relType)
		for _, span := range batches(len(rels), t.store.opts.batchSize) {
			part := rels[span[0]:span[1]]
			rows := make([]any, len(part))
			for i, r := range part {
				rows[i] = map[string]any{
					"i":     int64(i),
					"start": ids.nodeID(r.Start),
					"end":   ids.nodeID(r.End),
					"props": propertyMap(r.Properties),
				}
			}
			created, err := run(ctx, mt, query, rows)
			if err != nil {
				return err
			}
			if len(created) != len(part) {
				return fmt.Errorf("%w: created %d of %d %s relationships",
					ErrEndpointsNotFound, len(created), len(part), relType)
			}
			for i, id := range created {
				ids.rels[part[i]] = id
			}
		}
	}
	return nil
}

// run executes an UNWIND statement and returns the element ids it reports,
// indexed by row position.
func run(ctx context.Context, mt neo4j.ManagedTransaction, query string, rows []any) (map[int]string, error) {
	result, err := mt.Run(ctx, query, map[string]any{"rows": rows})
	if err != nil {
		return nil, err
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int]string, len(records))
	for _, rec := range records {
		i, _ := rec.Get("i")
		id, _ := rec.Get("id")
		pos, ok1 := i.(int64)
		eid, ok2 := id.(string)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: i=%T id=%T", ErrUnexpectedRecord, i, id)
		}
		out[int(pos)] = eid
	}
	return out, nil
}
