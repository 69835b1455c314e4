package model

import (
	"fmt"

	"github.com/0xdezzy/tabgraph/graphs"
	"github.com/0xdezzy/tabgraph/table"
)

// ModelsToTable turns instances into a table, one row per instance. The
// columns are the requested properties, or the union of every instance's
// stored properties when none are requested.
func ModelsToTable(entities []Entity, x DictExtractor, columns []string) (*table.Table, error) {
	records := make([]map[string]any, len(entities))
	for i, e := range entities {
		rec, err := x.ToDict(e, columns)
		if err != nil {
			return nil, fmt.Errorf("entity %d: %w", i, err)
		}
		records[i] = rec
	}
	return table.FromRecords(records, columns...)
}

// NodesToTable turns nodes into a table, one row per node. Requested columns
// must be present on every node; with none requested the columns are the
// union of the node properties.
func NodesToTable(nodes []*graphs.Node, columns []string) (*table.Table, error) {
	records := make([]map[string]any, len(nodes))
	for i, n := range nodes {
		if len(columns) == 0 {
			records[i] = n.Properties
			continue
		}
		rec := make(map[string]any, len(columns))
		for _, c := range columns {
			v, ok := n.Properties[c]
			if !ok {
				return nil, fmt.Errorf("node %d (%s): %w %q", i, n.Label(), ErrUnknownProperty, c)
			}
			rec[c] = v
		}
		records[i] = rec
	}
	return table.FromRecords(records, columns...)
}
