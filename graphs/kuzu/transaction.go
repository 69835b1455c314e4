package kuzu

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/0xdezzy/tabgraph/graphs"
)

// TransactionState represents the state of a transaction
type TransactionState int

const (
	TransactionActive TransactionState = iota
	TransactionCommitted
	TransactionRolledBack
	TransactionFailed
)

// String returns the string representation of the transaction state
func (ts TransactionState) String() string {
	switch ts {
	case TransactionActive:
		return "active"
	case TransactionCommitted:
		return "committed"
	case TransactionRolledBack:
		return "rolled_back"
	case TransactionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type tx struct {
	store *Store
	batch graphs.Batch
	state TransactionState
}

func (t *tx) Create(e graphs.Entity) error {
	if t.state != TransactionActive {
		return graphs.ErrTxDone
	}
	return t.batch.Add(e)
}

func (t *tx) Rollback(_ context.Context) error {
	if t.state == TransactionActive {
		t.state = TransactionRolledBack
	}
	t.batch.Reset()
	return nil
}

// Commit creates or alters the tables the batch needs, then writes the batch
// in one KuzuDB transaction. Schema changes are not undone when the data
// transaction fails.
func (t *tx) Commit(ctx context.Context) error {
	if t.state != TransactionActive {
		return fmt.Errorf("%w: transaction is %s", graphs.ErrTxDone, t.state)
	}
	t.state = TransactionFailed
	if t.batch.Len() == 0 {
		t.state = TransactionCommitted
		return nil
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	changes := newSchemaChanges(s.catalog)
	nodeLabels := make(map[*graphs.Node]string, len(t.batch.Nodes))
	for _, n := range t.batch.Nodes {
		label, err := nodeLabel(n)
		if err != nil {
			return err
		}
		if err := changes.node(label, n.Properties); err != nil {
			return fmt.Errorf("node table %s: %w", label, err)
		}
		nodeLabels[n] = label
	}
	endpointLabel := func(n *graphs.Node) (string, error) {
		if label, ok := nodeLabels[n]; ok {
			return label, nil
		}
		return labelFromID(n.ID)
	}
	relLabels := make(map[*graphs.Relationship][2]string, len(t.batch.Relationships))
	for _, r := range t.batch.Relationships {
		from, err := endpointLabel(r.Start)
		if err != nil {
			return err
		}
		to, err := endpointLabel(r.End)
		if err != nil {
			return err
		}
		if err := changes.rel(r.Type, from, to, r.Properties); err != nil {
			return fmt.Errorf("relationship table %s: %w", r.Type, err)
		}
		relLabels[r] = [2]string{from, to}
	}
	if err := s.applySchema(ctx, changes); err != nil {
		return err
	}

	nodeIDs := make(map[*graphs.Node]string, len(t.batch.Nodes))
	for _, n := range t.batch.Nodes {
		nodeIDs[n] = elementID(nodeLabels[n], uuid.NewString())
	}
	relIDs := make(map[*graphs.Relationship]string, len(t.batch.Relationships))
	for _, r := range t.batch.Relationships {
		relIDs[r] = elementID(r.Type, uuid.NewString())
	}
	idOf := func(n *graphs.Node) string {
		if id, ok := nodeIDs[n]; ok {
			return id
		}
		return n.ID
	}

	if _, err := s.query(ctx, "BEGIN TRANSACTION;", nil); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	write := func() error {
		for _, n := range t.batch.Nodes {
			query, params, err := s.createNodeStatement(nodeLabels[n], nodeIDs[n], n.Properties)
			if err != nil {
				return err
			}
			if _, err := s.query(ctx, query, params); err != nil {
				return fmt.Errorf("create %s node: %w", nodeLabels[n], err)
			}
		}
		for _, r := range t.batch.Relationships {
			labels := relLabels[r]
			query, params, err := s.createRelationshipStatement(r.Type, labels, relIDs[r], idOf(r.Start), idOf(r.End), r.Properties)
			if err != nil {
				return err
			}
			records, err := s.query(ctx, query, params)
			if err != nil {
				return fmt.Errorf("create %s relationship: %w", r.Type, err)
			}
			if len(records) != 1 {
				return fmt.Errorf("%w: (%s)-[%s]->(%s)", ErrEndpointsNotFound, idOf(r.Start), r.Type, idOf(r.End))
			}
		}
		return nil
	}
	if err := write(); err != nil {
		if _, rbErr := s.query(context.WithoutCancel(ctx), "ROLLBACK;", nil); rbErr != nil {
			s.options.logger.Warn("kuzu rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if _, err := s.query(ctx, "COMMIT;", nil); err != nil {
		if _, rbErr := s.query(context.WithoutCancel(ctx), "ROLLBACK;", nil); rbErr != nil {
			s.options.logger.Warn("kuzu rollback failed", zap.Error(rbErr))
		}
		return fmt.Errorf("commit: %w", err)
	}

	for n, id := range nodeIDs {
		n.ID = id
	}
	for r, id := range relIDs {
		r.ID = id
	}
	t.state = TransactionCommitted
	s.options.logger.Debug("committed transaction",
		zap.Int("nodes", len(t.batch.Nodes)),
		zap.Int("relationships", len(t.batch.Relationships)))
	return nil
}

func nodeLabel(n *graphs.Node) (string, error) {
	if len(n.Labels) != 1 || n.Labels[0] == "" {
		return "", fmt.Errorf("%w: got %v", ErrLabel, n.Labels)
	}
	return n.Labels[0], nil
}

// propertyAssignments renders a property map literal for the columns of
// table, converting values to the column types.
func (s *Store) propertyAssignments(table string, id string, props map[string]any, params graphs.CypherParams) (string, error) {
	t := s.catalog.tables[table]
	parts := []string{graphs.QuoteIdentifier(idProperty) + ": " + params.Add(id)}
	for _, k := range slices.Sorted(maps.Keys(props)) {
		v := props[k]
		if untyped(v) {
			continue
		}
		conv, err := convertFor(t.columns[k], v)
		if err != nil {
			return "", fmt.Errorf("property %s: %w", k, err)
		}
		parts = append(parts, graphs.QuoteIdentifier(k)+": "+params.Add(conv))
	}
	return "{" + strings.Join(parts, ", ") + "}", nil
}

func (s *Store) createNodeStatement(label, id string, props map[string]any) (string, graphs.CypherParams, error) {
	params := graphs.CypherParams{}
	assign, err := s.propertyAssignments(label, id, props, params)
	if err != nil {
		return "", nil, err
	}
	return "CREATE (n:" + graphs.QuoteIdentifier(label) + " " + assign + ")", params, nil
}

func (s *Store) createRelationshipStatement(relType string, labels [2]string, id, start, end string, props map[string]any) (string, graphs.CypherParams, error) {
	params := graphs.CypherParams{}
	key := graphs.QuoteIdentifier(idProperty)
	match := "MATCH (a:" + graphs.QuoteIdentifier(labels[0]) + "), (b:" + graphs.QuoteIdentifier(labels[1]) + ")" +
		" WHERE a." + key + " = " + params.Add(start) + " AND b." + key + " = " + params.Add(end)
	assign, err := s.propertyAssignments(relType, id, props, params)
	if err != nil {
		return "", nil, err
	}
	return match + " CREATE (a)-[r:" + graphs.QuoteIdentifier(relType) + " " + assign + "]->(b) RETURN r." + key + " AS id",
		params, nil
}
