package graphs

import (
	"fmt"
	"strings"
)

// QuoteIdentifier quotes a label, relationship type or property key for use
// in a Cypher query.
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// CypherParams collects query parameters under generated names.
type CypherParams map[string]any

// Add stores v under a fresh parameter name and returns its placeholder.
func (p CypherParams) Add(v any) string {
	name := fmt.Sprintf("p%d", len(p))
	p[name] = v
	return "$" + name
}

// PredicateClause renders predicates on variable as a Cypher boolean
// expression joined by AND. It returns an empty string when there are none.
func PredicateClause(variable string, preds []Predicate, params CypherParams) string {
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		ref := variable + "." + QuoteIdentifier(p.Key)
		switch p.Op {
		case OpEq:
			parts = append(parts, ref+" = "+params.Add(p.Value))
		case OpIn:
			parts = append(parts, ref+" IN "+params.Add(p.Values))
		}
	}
	return strings.Join(parts, " AND ")
}
