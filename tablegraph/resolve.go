package tablegraph

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/0xdezzy/tabgraph/graphs"
	"github.com/0xdezzy/tabgraph/table"
)

// resolver maps the key column values of table rows to graph nodes.
type resolver struct {
	g      *Graph
	ep     Endpoint
	idKey  string
	label  string
	column string
}

func (g *Graph) newResolver(t *table.Table, ep Endpoint) (*resolver, error) {
	key, err := ep.idKey()
	if err != nil {
		return nil, err
	}
	if ep.KeyColumn == "" || !t.HasColumn(ep.KeyColumn) {
		return nil, invalidArguments("key column %q is not in the table", ep.KeyColumn)
	}
	return &resolver{
		g:      g,
		ep:     ep,
		idKey:  key,
		label:  ep.Selector.Label(),
		column: ep.KeyColumn,
	}, nil
}

// lookup fetches every node whose id key is among values, with one query.
func (r *resolver) lookup(ctx context.Context, values []any) (map[any]*graphs.Node, error) {
	found := make(map[any]*graphs.Node, len(values))
	distinct := make([]any, 0, len(values))
	seen := make(map[any]struct{}, len(values))
	for _, v := range values {
		k, ok := graphs.MatchKey(v)
		if !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		distinct = append(distinct, v)
	}
	if len(distinct) == 0 {
		return found, nil
	}

	nodes, err := r.g.store.MatchNodes(ctx, graphs.NodeMatch{
		Label:      r.label,
		Predicates: []graphs.Predicate{graphs.In(r.idKey, distinct)},
	})
	if err != nil {
		return nil, fmt.Errorf("match %s nodes: %w", r.label, err)
	}
	for _, n := range nodes {
		if c := r.ep.Selector.Class(); c != nil {
			e, err := c.Wrap(n)
			if err != nil {
				return nil, err
			}
			n = e.GraphNode()
		}
		k, ok := graphs.MatchKey(n.Properties[r.idKey])
		if !ok {
			continue
		}
		if _, dup := found[k]; !dup {
			found[k] = n
		}
	}
	r.g.logger.Debug("resolved nodes",
		zap.String("label", r.label),
		zap.String("key", r.idKey),
		zap.Int("requested", len(distinct)),
		zap.Int("found", len(found)))
	return found, nil
}

// resolve returns the node of every row of chunk, in row order. A row whose
// node does not exist fails with a *NodeNotFoundError.
func (r *resolver) resolve(ctx context.Context, chunk *table.Table) ([]*graphs.Node, error) {
	values, err := chunk.Column(r.column)
	if err != nil {
		return nil, err
	}
	found, err := r.lookup(ctx, values)
	if err != nil {
		return nil, err
	}
	out := make([]*graphs.Node, len(values))
	for i, v := range values {
		out[i] = r.find(found, v)
		if out[i] == nil {
			return nil, fmt.Errorf("row %d: %w", chunk.Row(i).Index(), r.notFound(v))
		}
	}
	return out, nil
}

// find returns the node for a single value, or nil.
func (r *resolver) find(found map[any]*graphs.Node, v any) *graphs.Node {
	k, ok := graphs.MatchKey(v)
	if !ok {
		return nil
	}
	return found[k]
}

func (r *resolver) notFound(v any) error {
	return &NodeNotFoundError{Label: r.label, Key: r.idKey, Value: v}
}
