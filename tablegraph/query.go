package tablegraph

import (
	"context"
	"fmt"

	"github.com/0xdezzy/tabgraph/graphs"
	"github.com/0xdezzy/tabgraph/model"
	"github.com/0xdezzy/tabgraph/table"
)

// GetModels returns every node of class c wrapped as a model instance.
func (g *Graph) GetModels(ctx context.Context, c model.Class) ([]model.Entity, error) {
	nodes, err := g.GetNodes(ctx, c.Label())
	if err != nil {
		return nil, err
	}
	return wrapAll(c, nodes)
}

// GetNodes returns every node carrying label.
func (g *Graph) GetNodes(ctx context.Context, label string) ([]*graphs.Node, error) {
	if label == "" {
		return nil, invalidArguments("empty label")
	}
	nodes, err := g.store.MatchNodes(ctx, graphs.NodeMatch{Label: label})
	if err != nil {
		return nil, fmt.Errorf("match %s nodes: %w", label, err)
	}
	return nodes, nil
}

func wrapAll(c model.Class, nodes []*graphs.Node) ([]model.Entity, error) {
	out := make([]model.Entity, len(nodes))
	for i, n := range nodes {
		e, err := c.Wrap(n)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// GetNodesForTable returns the nodes of label whose nodeIDProperty equals one
// of the values in idColumn, using a single membership query. An empty
// nodeIDProperty selects idColumn. The result length may differ from the
// table length.
func (g *Graph) GetNodesForTable(ctx context.Context, t *table.Table, label, idColumn, nodeIDProperty string) ([]*graphs.Node, error) {
	r, err := g.tableResolver(t, ByLabel(label), idColumn, nodeIDProperty)
	if err != nil {
		return nil, err
	}
	values, err := t.Column(idColumn)
	if err != nil {
		return nil, err
	}
	found, err := r.lookup(ctx, values)
	if err != nil {
		return nil, err
	}
	// Keep the order of first appearance in the table.
	nodes := make([]*graphs.Node, 0, len(found))
	emitted := make(map[*graphs.Node]struct{}, len(found))
	for _, v := range values {
		n := r.find(found, v)
		if n == nil {
			continue
		}
		if _, ok := emitted[n]; ok {
			continue
		}
		emitted[n] = struct{}{}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (g *Graph) tableResolver(t *table.Table, sel Selector, idColumn, nodeIDProperty string) (*resolver, error) {
	if nodeIDProperty == "" {
		nodeIDProperty = idColumn
	}
	return g.newResolver(t, Endpoint{Selector: sel, KeyColumn: idColumn, IDKey: nodeIDProperty})
}

// GetNodeModelsForTable matches nodes of class c to the table like
// GetNodesForTable and returns a two column table: the matched id property
// value and the model instance, under the columns nodeIDProperty and the
// class label.
func (g *Graph) GetNodeModelsForTable(ctx context.Context, t *table.Table, c model.Class, idColumn, nodeIDProperty string) (*table.Table, error) {
	if nodeIDProperty == "" {
		nodeIDProperty = idColumn
	}
	nodes, err := g.GetNodesForTable(ctx, t, c.Label(), idColumn, nodeIDProperty)
	if err != nil {
		return nil, err
	}
	entities, err := wrapAll(c, nodes)
	if err != nil {
		return nil, err
	}
	out, err := table.New([]string{nodeIDProperty, c.Label()})
	if err != nil {
		return nil, invalidArguments("%v", err)
	}
	for i, e := range entities {
		if err := out.Append(nodes[i].Properties[nodeIDProperty], e); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetModelsForTable returns, for every table row, the instance of class c
// whose nodeIDProperty equals the row's idColumn value, or nil when there is
// none. The result has the columns idColumn and the class label.
func (g *Graph) GetModelsForTable(ctx context.Context, t *table.Table, c model.Class, idColumn, nodeIDProperty string) (*table.Table, error) {
	r, err := g.tableResolver(t, ByModel(c), idColumn, nodeIDProperty)
	if err != nil {
		return nil, err
	}
	values, err := t.Column(idColumn)
	if err != nil {
		return nil, err
	}
	found, err := r.lookup(ctx, values)
	if err != nil {
		return nil, err
	}
	out, err := table.New([]string{idColumn, c.Label()})
	if err != nil {
		return nil, invalidArguments("%v", err)
	}
	for _, v := range values {
		var cell any
		if n := r.find(found, v); n != nil {
			e, err := c.Wrap(n)
			if err != nil {
				return nil, err
			}
			cell = e
		}
		if err := out.Append(v, cell); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetRelationshipsForTable returns, for every table row, the relationship of
// relType between the nodes identified by the row. The result has the
// columns from.KeyColumn, to.KeyColumn and relType. A row whose nodes or
// relationship do not exist fails the call.
func (g *Graph) GetRelationshipsForTable(ctx context.Context, t *table.Table, relType string, from, to Endpoint) (*table.Table, error) {
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
	out, err := table.New([]string{from.KeyColumn, to.KeyColumn, relType})
	if err != nil {
		return nil, invalidArguments("%v", err)
	}

	starts, err := fromRes.resolve(ctx, t)
	if err != nil {
		return nil, err
	}
	ends, err := toRes.resolve(ctx, t)
	if err != nil {
		return nil, err
	}
	for i, row := range t.Rows() {
		rels, err := g.store.MatchRelationships(ctx, graphs.RelationshipMatch{
			Type:  relType,
			Start: starts[i],
			End:   ends[i],
			Limit: 1,
		})
		if err != nil {
			return nil, fmt.Errorf("match %s relationships: %w", relType, err)
		}
		fromValue, _ := row.Get(from.KeyColumn)
		toValue, _ := row.Get(to.KeyColumn)
		if len(rels) == 0 {
			return nil, fmt.Errorf("row %d: %w", row.Index(),
				&RelationshipNotFoundError{Type: relType, From: fromValue, To: toValue})
		}
		if err := out.Append(fromValue, toValue, rels[0]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetRelationships returns the relationships of relType. A nil nodes slice
// selects every relationship of the type. Otherwise only relationships with an
// endpoint among nodes are returned, so an empty slice selects none, and with
// innerOnly set both endpoints must be among them. innerOnly with nil nodes is
// an invalid configuration. Each relationship is returned once.
func (g *Graph) GetRelationships(ctx context.Context, relType string, nodes []model.Entity, innerOnly bool) ([]*graphs.Relationship, error) {
	if innerOnly && nodes == nil {
		return nil, invalidArguments("innerOnly can be used only when nodes are provided")
	}
	if nodes != nil && len(nodes) == 0 {
		return nil, nil
	}
	m := graphs.RelationshipMatch{Type: relType, Inner: innerOnly}
	if nodes != nil {
		for i, e := range nodes {
			var n *graphs.Node
			if e != nil {
				n = e.GraphNode()
			}
			if n == nil {
				return nil, fmt.Errorf("%w: unable to obtain a graph node from nodes[%d]", ErrNotSupportedModelClass, i)
			}
			m.Touching = append(m.Touching, n)
		}
		// Nodes that were never committed cannot be endpoints of stored relationships.
		if len(m.TouchingIDs()) == 0 {
			return nil, nil
		}
	}

	rels, err := g.store.MatchRelationships(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("match %s relationships: %w", relType, err)
	}
	out := make([]*graphs.Relationship, 0, len(rels))
	seen := make(map[string]struct{}, len(rels))
	for _, r := range rels {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out, nil
}

// GetTableForRelationship returns one row per relationship found by
// GetRelationships, holding the fromProperty value of its start node and the
// toProperty value of its end node. When both property names are equal the
// columns are named <name>_from and <name>_to.
func (g *Graph) GetTableForRelationship(ctx context.Context, relType, fromProperty, toProperty string, nodes []model.Entity, innerOnly bool) (*table.Table, error) {
	rels, err := g.GetRelationships(ctx, relType, nodes, innerOnly)
	if err != nil {
		return nil, err
	}
	fromCol, toCol := fromProperty, toProperty
	if fromCol == toCol {
		fromCol, toCol = fromProperty+"_from", toProperty+"_to"
	}
	out := table.MustNew([]string{fromCol, toCol})
	for _, r := range rels {
		if err := out.Append(r.Start.Properties[fromProperty], r.End.Properties[toProperty]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetTableForModels dumps every node of class c into a table through the
// class's DictExtractor. With columns given only those are produced, in that
// order.
func (g *Graph) GetTableForModels(ctx context.Context, c model.Class, columns []string) (*table.Table, error) {
	x, ok := c.(model.DictExtractor)
	if !ok {
		return nil, fmt.Errorf("%w: unable to build a table from %s models without a dictionary extractor",
			ErrNotSupportedModelClass, c.Label())
	}
	entities, err := g.GetModels(ctx, c)
	if err != nil {
		return nil, err
	}
	return model.ModelsToTable(entities, x, columns)
}

// GetTableForLabel dumps every node carrying label into a table. With columns
// given only those node properties are produced, in that order.
func (g *Graph) GetTableForLabel(ctx context.Context, label string, columns []string) (*table.Table, error) {
	nodes, err := g.GetNodes(ctx, label)
	if err != nil {
		return nil, err
	}
	return model.NodesToTable(nodes, columns)
}
