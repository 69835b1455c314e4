package neo4j

import (
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/0xdezzy/tabgraph/graphs"
)

// labelPattern renders labels as a node pattern suffix such as :`A`:`B`.
func labelPattern(labels ...string) string {
	var b strings.Builder
	for _, l := range labels {
		if l == "" {
			continue
		}
		b.WriteString(":")
		b.WriteString(graphs.QuoteIdentifier(l))
	}
	return b.String()
}

func createNodesQuery(labels []string) string {
	return "UNWIND $rows AS row\n" +
		"CREATE (n" + labelPattern(labels...) + ")\n" +
		"SET n = row.props\n" +
		"RETURN row.i AS i, elementId(n) AS id"
}

func createRelationshipsQuery(relType string) string {
	return "UNWIND $rows AS row\n" +
		"MATCH (a) WHERE elementId(a) = row.start\n" +
		"MATCH (b) WHERE elementId(b) = row.end\n" +
		"CREATE (a)-[r:" + graphs.QuoteIdentifier(relType) + "]->(b)\n" +
		"SET r = row.props\n" +
		"RETURN row.i AS i, elementId(r) AS id"
}

func matchNodesQuery(m graphs.NodeMatch) (string, graphs.CypherParams) {
	params := graphs.CypherParams{}
	var b strings.Builder
	b.WriteString("MATCH (n" + labelPattern(m.Label) + ")")
	if where := graphs.PredicateClause("n", m.Predicates, params); where != "" {
		b.WriteString(" WHERE " + where)
	}
	b.WriteString(" RETURN n ORDER BY id(n)")
	if m.Limit > 0 {
		b.WriteString(" LIMIT " + params.Add(int64(m.Limit)))
	}
	return b.String(), params
}

func matchRelationshipsQuery(m graphs.RelationshipMatch) (string, graphs.CypherParams) {
	params := graphs.CypherParams{}
	var b strings.Builder
	b.WriteString("MATCH (a)-[r" + labelPattern(m.Type) + "]->(b)")

	var conds []string
	if m.Start != nil {
		conds = append(conds, "elementId(a) = "+params.Add(m.Start.ID))
	}
	if m.End != nil {
		conds = append(conds, "elementId(b) = "+params.Add(m.End.ID))
	}
	if len(m.Touching) > 0 {
		ids := params.Add(m.TouchingIDs())
		if m.Inner {
			conds = append(conds, "elementId(a) IN "+ids+" AND elementId(b) IN "+ids)
		} else {
			conds = append(conds, "(elementId(a) IN "+ids+" OR elementId(b) IN "+ids+")")
		}
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	b.WriteString(" RETURN a, r, b ORDER BY id(r)")
	if m.Limit > 0 {
		b.WriteString(" LIMIT " + params.Add(int64(m.Limit)))
	}
	return b.String(), params
}

func nodeFromDB(n neo4j.Node) *graphs.Node {
	props := n.Props
	if props == nil {
		props = map[string]any{}
	}
	return &graphs.Node{
		ID:         n.ElementId,
		Labels:     append([]string(nil), n.Labels...),
		Properties: props,
	}
}

func relationshipFromDB(r neo4j.Relationship, start, end neo4j.Node) *graphs.Relationship {
	props := r.Props
	if props == nil {
		props = map[string]any{}
	}
	return &graphs.Relationship{
		ID:         r.ElementId,
		Type:       r.Type,
		Start:      nodeFromDB(start),
		End:        nodeFromDB(end),
		Properties: props,
	}
}

// propertyMap drops nil values, which Neo4j cannot store.
func propertyMap(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

// nodeGroup is a run of batch nodes sharing the same labels.
type nodeGroup struct {
	labels []string
	nodes  []*graphs.Node
}

// groupNodes groups nodes by label set, in order of first appearance.
func groupNodes(nodes []*graphs.Node) []nodeGroup {
	var groups []nodeGroup
	index := make(map[string]int)
	for _, n := range nodes {
		key := strings.Join(n.Labels, "\x00")
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nodeGroup{labels: n.Labels})
		}
		groups[i].nodes = append(groups[i].nodes, n)
	}
	return groups
}

// batches splits n items into consecutive [lo, hi) ranges of at most size.
func batches(n, size int) [][2]int {
	if size <= 0 {
		size = n
	}
	var out [][2]int
	for lo := 0; lo < n; lo += size {
		out = append(out, [2]int{lo, min(lo+size, n)})
	}
	return out
}
