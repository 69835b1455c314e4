package tablegraph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/0xdezzy/tabgraph/graphs"
	"github.com/0xdezzy/tabgraph/model"
	"github.com/0xdezzy/tabgraph/table"
)

// Graph synchronizes tables with a graph store. A Graph must not be used by
// more than one goroutine at a time.
type Graph struct {
	store     graphs.Store
	logger    *zap.Logger
	chunkSize int
}

// New creates a Graph writing to and reading from store.
func New(store graphs.Store, opts ...Option) *Graph {
	g := &Graph{
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Store returns the underlying store.
func (g *Graph) Store() graphs.Store { return g.store }

// CreateGraphObject creates a single object in its own transaction. See
// CreateGraphObjects for the accepted values.
func (g *Graph) CreateGraphObject(ctx context.Context, obj any) error {
	return g.CreateGraphObjects(ctx, []any{obj})
}

// CreateGraphObjects creates every object in one transaction. Objects are
// *graphs.Node, *graphs.Relationship or any graphs.NodeWrapper such as a
// model instance.
func (g *Graph) CreateGraphObjects(ctx context.Context, objs []any) error {
	entities := make([]graphs.Entity, len(objs))
	for i, obj := range objs {
		e, err := toEntity(obj)
		if err != nil {
			return fmt.Errorf("object %d: %w", i, err)
		}
		entities[i] = e
	}
	return g.commit(ctx, entities, zap.Int("objects", len(entities)))
}

func toEntity(obj any) (graphs.Entity, error) {
	switch v := obj.(type) {
	case *graphs.Node:
		if v == nil {
			return nil, fmt.Errorf("%w: nil node", ErrNotSupportedModelClass)
		}
		return v, nil
	case *graphs.Relationship:
		if v == nil {
			return nil, fmt.Errorf("%w: nil relationship", ErrNotSupportedModelClass)
		}
		return v, nil
	case graphs.NodeWrapper:
		if n := v.GraphNode(); n != nil {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%w: unable to obtain a graph node from %T", ErrNotSupportedModelClass, obj)
}

// commit writes entities in a single transaction.
func (g *Graph) commit(ctx context.Context, entities []graphs.Entity, fields ...zap.Field) error {
	txID := uuid.NewString()
	logger := g.logger.With(zap.String("tx", txID))

	tx, err := g.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	for _, e := range entities {
		if err := tx.Create(e); err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				logger.Warn("rollback failed", zap.Error(rbErr))
			}
			return fmt.Errorf("create: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return fmt.Errorf("commit: %w", err)
	}
	logger.Debug("committed", append(fields, zap.Int("entities", len(entities)))...)
	return nil
}

// CreateNodes creates one node per table row and returns the created
// entities in row order.
//
// A label selector creates generic nodes holding every present cell of the
// row. A model selector builds instances with the class's RowAssigner, or
// else its RowConstructor; a class with neither is rejected with
// ErrNotSupportedModelClass.
//
// Rows are written in chunks, one transaction each (see WithChunkSize). A
// failing chunk stops the call; chunks committed before it stay in the graph.
func (g *Graph) CreateNodes(ctx context.Context, t *table.Table, sel Selector, opts ...CallOption) ([]model.Entity, error) {
	if err := sel.validate(); err != nil {
		return nil, err
	}
	build, err := nodeBuilder(sel)
	if err != nil {
		return nil, err
	}
	o := g.callOptions(opts)

	out := make([]model.Entity, 0, t.Len())
	err = g.eachChunk(t, o.chunkSize, sel.Label(), func(k int, chunk *table.Table) error {
		entities := make([]graphs.Entity, chunk.Len())
		built := make([]model.Entity, chunk.Len())
		for i, row := range chunk.Rows() {
			e, err := build(row)
			if err != nil {
				return err
			}
			n := e.GraphNode()
			if n == nil {
				return fmt.Errorf("%w: %s instance has no graph node", ErrNotSupportedModelClass, sel.Label())
			}
			entities[i] = n
			built[i] = e
		}
		if err := g.commit(ctx, entities, zap.String("label", sel.Label()), zap.Int("chunk", k)); err != nil {
			return err
		}
		out = append(out, built...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func nodeBuilder(sel Selector) (func(table.Row) (model.Entity, error), error) {
	c := sel.Class()
	if c == nil {
		label := sel.Label()
		return func(row table.Row) (model.Entity, error) {
			props := make(map[string]any)
			for _, col := range row.Columns() {
				v, _ := row.Get(col)
				if !table.IsMissing(v) {
					props[col] = v
				}
			}
			return graphs.NewNode(label, props), nil
		}, nil
	}
	if a, ok := c.(model.RowAssigner); ok {
		return a.AssignRow, nil
	}
	if rc, ok := c.(model.RowConstructor); ok {
		return rc.FromRow, nil
	}
	return nil, fmt.Errorf("%w: %s cannot be built from a table row", ErrNotSupportedModelClass, c.Label())
}

// CreateRelationships creates one relationship of relType per table row,
// from the node identified by the row's from key to the node identified by
// its to key, and returns them in row order. Both nodes must exist; a row
// referencing a missing node fails its chunk with a *NodeNotFoundError before
// anything of that chunk is written. Chunking follows CreateNodes.
func (g *Graph) CreateRelationships(ctx context.Context, t *table.Table, relType string, from, to Endpoint, opts ...CallOption) ([]*graphs.Relationship, error) {
	if relType == "" {
		return nil, invalidArguments("empty relationship type")
	}
	fromRes, err := g.newResolver(t, from)
	if err != nil {
		return nil, fmt.Errorf("from endpoint: %w", err)
	}
	toRes, err := g.newResolver(t, to)
	if err != nil {
		return nil, fmt.Errorf("to endpoint: %w", err)
	}
	o := g.callOptions(opts)
	for _, c := range o.properties {
		if !t.HasColumn(c) {
			return nil, invalidArguments("property column %q is not in the table", c)
		}
	}

	out := make([]*graphs.Relationship, 0, t.Len())
	err = g.eachChunk(t, o.chunkSize, relType, func(k int, chunk *table.Table) error {
		starts, err := fromRes.resolve(ctx, chunk)
		if err != nil {
			return err
		}
		ends, err := toRes.resolve(ctx, chunk)
		if err != nil {
			return err
		}
		rels := make([]*graphs.Relationship, chunk.Len())
		entities := make([]graphs.Entity, chunk.Len())
		for i, row := range chunk.Rows() {
			props := make(map[string]any, len(o.properties))
			for _, c := range o.properties {
				if v, _ := row.Get(c); !table.IsMissing(v) {
					props[c] = v
				}
			}
			rels[i] = graphs.NewRelationship(starts[i], relType, ends[i], props)
			entities[i] = rels[i]
		}
		if err := g.commit(ctx, entities, zap.String("type", relType), zap.Int("chunk", k)); err != nil {
			return err
		}
		out = append(out, rels...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// eachChunk calls fn for every chunk of t in order and stops at the first error.
func (g *Graph) eachChunk(t *table.Table, size int, name string, fn func(k int, chunk *table.Table) error) error {
	chunks := t.Chunks(size)
	g.logger.Debug("writing table",
		zap.String("target", name),
		zap.Int("rows", t.Len()),
		zap.Int("chunks", len(chunks)))
	for k, chunk := range chunks {
		if err := fn(k, chunk); err != nil {
			return fmt.Errorf("chunk %d of %d: %w", k, len(chunks), err)
		}
	}
	return nil
}
