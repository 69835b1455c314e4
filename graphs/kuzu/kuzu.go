package kuzu

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/kuzudb/go-kuzu"
	"go.uber.org/zap"

	"github.com/0xdezzy/tabgraph/graphs"
)

var (
	ErrConnectionNotInitialized = errors.New("kuzu connection not initialized")
	ErrDatabaseCreationFailed   = errors.New("failed to create kuzu database")
	ErrConnectionCreationFailed = errors.New("failed to create kuzu connection")
	ErrQueryExecutionFailed     = errors.New("failed to execute query")
	ErrUnsupportedValue         = errors.New("unsupported property value")
	ErrColumnType               = errors.New("property value does not match column type")
	ErrReservedProperty         = errors.New("property name is reserved")
	ErrLabel                    = errors.New("kuzu nodes need exactly one label")
	ErrTableKind                = errors.New("table exists with a different kind")
	ErrForeignID                = errors.New("element id was not assigned by kuzu store")
	ErrEndpointsNotFound        = errors.New("relationship endpoints not found")
)

// idProperty is the primary key column holding element ids.
const idProperty = "_eid"

// Store implements graphs.Store for KuzuDB. Every node table is keyed by a
// STRING element id column; other columns are added as properties appear.
type Store struct {
	database   *kuzu.Database
	connection *kuzu.Connection
	options    *options

	// mu serializes use of the connection, which carries at most one
	// open transaction.
	mu      sync.Mutex
	catalog *catalog
}

var _ graphs.Store = (*Store)(nil)

// New opens a KuzuDB database and loads its table catalog.
func New(ctx context.Context, opts ...Option) (*Store, error) {
	options := &options{}
	for _, opt := range opts {
		opt(options)
	}
	applyDefaults(options)

	s := &Store{options: options}
	if err := s.connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to kuzu: %w", err)
	}
	if err := s.loadCatalog(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

// connect initializes the KuzuDB database and connection
func (s *Store) connect() error {
	var err error

	systemConfig := kuzu.DefaultSystemConfig()
	systemConfig.BufferPoolSize = s.options.bufferPoolSize
	systemConfig.MaxNumThreads = s.options.maxNumThreads
	systemConfig.ReadOnly = s.options.readOnly

	if s.options.inMemory() {
		s.database, err = kuzu.OpenInMemoryDatabase(systemConfig)
	} else {
		s.database, err = kuzu.OpenDatabase(s.options.databasePath, systemConfig)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseCreationFailed, err)
	}

	s.connection, err = kuzu.OpenConnection(s.database)
	if err != nil {
		s.database.Close()
		s.database = nil
		return fmt.Errorf("%w: %v", ErrConnectionCreationFailed, err)
	}

	s.connection.SetMaxNumThreads(s.options.maxNumThreads)
	if s.options.timeout > 0 {
		s.connection.SetTimeout(uint64(s.options.timeout.Milliseconds()))
	}
	return nil
}

// Close closes the KuzuDB connection and database
func (s *Store) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connection != nil {
		s.connection.Close()
		s.connection = nil
	}
	if s.database != nil {
		s.database.Close()
		s.database = nil
	}
	return nil
}

// Begin opens a write transaction. Tables are created and altered when it
// commits, before the data statements run.
func (s *Store) Begin(ctx context.Context) (graphs.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &tx{store: s, state: TransactionActive}, nil
}

// MatchNodes returns the nodes selected by m. A label without a table or a
// predicate on a missing column selects nothing.
func (s *Store) MatchNodes(ctx context.Context, m graphs.NodeMatch) ([]*graphs.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.catalog.node(m.Label)
	if t == nil {
		return nil, nil
	}
	params := graphs.CypherParams{}
	where, ok := predicateClause(t, "n", m.Predicates, params)
	if !ok {
		return nil, nil
	}

	var b strings.Builder
	b.WriteString("MATCH (n:" + graphs.QuoteIdentifier(m.Label) + ")")
	if where != "" {
		b.WriteString(" WHERE " + where)
	}
	b.WriteString(" RETURN n")
	if m.Limit > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(m.Limit))
	}

	records, err := s.query(ctx, b.String(), params)
	if err != nil {
		return nil, err
	}
	nodes := make([]*graphs.Node, 0, len(records))
	for _, rec := range records {
		n, err := nodeFromValue(rec["n"])
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// MatchRelationships returns the relationships selected by m.
func (s *Store) MatchRelationships(ctx context.Context, m graphs.RelationshipMatch) ([]*graphs.Relationship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, params, ok := matchRelationshipsQuery(s.catalog, m)
	if !ok {
		return nil, nil
	}
	records, err := s.query(ctx, query, params)
	if err != nil {
		return nil, err
	}
	rels := make([]*graphs.Relationship, 0, len(records))
	for _, rec := range records {
		start, err := nodeFromValue(rec["a"])
		if err != nil {
			return nil, err
		}
		end, err := nodeFromValue(rec["b"])
		if err != nil {
			return nil, err
		}
		r, err := relationshipFromValue(rec["r"], start, end)
		if err != nil {
			return nil, err
		}
		rels = append(rels, r)
	}
	return rels, nil
}

func matchRelationshipsQuery(c *catalog, m graphs.RelationshipMatch) (string, graphs.CypherParams, bool) {
	if m.Type != "" && c.rel(m.Type) == nil {
		return "", nil, false
	}
	if m.Type == "" && !c.hasRelTables() {
		return "", nil, false
	}

	params := graphs.CypherParams{}
	startPattern, endPattern := "(a)", "(b)"
	var conds []string
	if m.Start != nil {
		label, err := labelFromID(m.Start.ID)
		if err != nil {
			return "", nil, false
		}
		startPattern = "(a:" + graphs.QuoteIdentifier(label) + ")"
		conds = append(conds, "a."+graphs.QuoteIdentifier(idProperty)+" = "+params.Add(m.Start.ID))
	}
	if m.End != nil {
		label, err := labelFromID(m.End.ID)
		if err != nil {
			return "", nil, false
		}
		endPattern = "(b:" + graphs.QuoteIdentifier(label) + ")"
		conds = append(conds, "b."+graphs.QuoteIdentifier(idProperty)+" = "+params.Add(m.End.ID))
	}
	if len(m.Touching) > 0 {
		ids := m.TouchingIDs()
		if len(ids) == 0 {
			return "", nil, false
		}
		list := make([]any, len(ids))
		for i, id := range ids {
			list[i] = id
		}
		p := params.Add(list)
		inA := "list_contains(" + p + ", a." + graphs.QuoteIdentifier(idProperty) + ")"
		inB := "list_contains(" + p + ", b." + graphs.QuoteIdentifier(idProperty) + ")"
		if m.Inner {
			conds = append(conds, inA+" AND "+inB)
		} else {
			conds = append(conds, "("+inA+" OR "+inB+")")
		}
	}

	rel := "[r]"
	if m.Type != "" {
		rel = "[r:" + graphs.QuoteIdentifier(m.Type) + "]"
	}
	var b strings.Builder
	b.WriteString("MATCH " + startPattern + "-" + rel + "->" + endPattern)
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	b.WriteString(" RETURN a, r, b")
	if m.Limit > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(m.Limit))
	}
	return b.String(), params, true
}

// predicateClause renders predicates against table t. It reports false when
// no node of t can satisfy them, so the query can be skipped.
func predicateClause(t *tableSchema, variable string, preds []graphs.Predicate, params graphs.CypherParams) (string, bool) {
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		col, ok := t.columns[p.Key]
		if !ok {
			return "", false
		}
		ref := variable + "." + graphs.QuoteIdentifier(p.Key)
		switch p.Op {
		case graphs.OpEq:
			if p.Value == nil || !comparableWith(col, p.Value) {
				return "", false
			}
			_, v, _ := typeOf(p.Value)
			parts = append(parts, ref+" = "+params.Add(v))
		case graphs.OpIn:
			values := make([]any, 0, len(p.Values))
			for _, v := range p.Values {
				if v != nil && comparableWith(col, v) {
					_, conv, _ := typeOf(v)
					values = append(values, conv)
				}
			}
			if len(values) == 0 {
				return "", false
			}
			parts = append(parts, "list_contains("+params.Add(uniformList(values))+", "+ref+")")
		}
	}
	return strings.Join(parts, " AND "), true
}

// uniformList widens mixed INT64 and DOUBLE values to DOUBLE so the list
// has a single element type.
func uniformList(values []any) []any {
	hasFloat, hasInt := false, false
	for _, v := range values {
		switch v.(type) {
		case float64:
			hasFloat = true
		case int64:
			hasInt = true
		}
	}
	if !hasFloat || !hasInt {
		return values
	}
	out := make([]any, len(values))
	for i, v := range values {
		if n, ok := v.(int64); ok {
			out[i] = float64(n)
		} else {
			out[i] = v
		}
	}
	return out
}

// query executes a statement, using a prepared statement when there are
// parameters. The caller holds s.mu.
func (s *Store) query(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	if s.connection == nil {
		return nil, ErrConnectionNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	var result *kuzu.QueryResult
	var err error
	go func() {
		defer close(done)
		if len(params) > 0 {
			result, err = s.executeWithParameters(query, params)
		} else {
			result, err = s.connection.Query(query)
		}
	}()

	select {
	case <-ctx.Done():
		s.connection.Interrupt()
		<-done
		if result != nil {
			result.Close()
		}
		return nil, ctx.Err()
	case <-done:
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	defer result.Close()

	s.options.logger.Debug("kuzu query",
		zap.String("query", query),
		zap.Uint64("rows", result.GetNumberOfRows()))
	return convertQueryResult(result)
}

func (s *Store) executeWithParameters(query string, params map[string]any) (*kuzu.QueryResult, error) {
	stmt, err := s.connection.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	result, err := s.connection.Execute(stmt, params)
	if err != nil {
		return nil, fmt.Errorf("failed to execute prepared statement: %w", err)
	}
	return result, nil
}

func convertQueryResult(result *kuzu.QueryResult) ([]map[string]any, error) {
	records := make([]map[string]any, 0)
	for result.HasNext() {
		tuple, err := result.Next()
		if err != nil {
			return nil, fmt.Errorf("failed to get next tuple: %w", err)
		}
		record, err := tuple.GetAsMap()
		tuple.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to convert tuple to map: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

// elementID builds the element id of a new node or relationship in table.
func elementID(table, uid string) string {
	return table + ":" + uid
}

// labelFromID returns the table part of an element id.
func labelFromID(id string) (string, error) {
	i := strings.LastIndexByte(id, ':')
	if i <= 0 || i == len(id)-1 {
		return "", fmt.Errorf("%w: %q", ErrForeignID, id)
	}
	return id[:i], nil
}

// storedProperties drops the element id column and unset columns.
func storedProperties(props map[string]any) (string, map[string]any) {
	id, _ := props[idProperty].(string)
	out := make(map[string]any, len(props))
	for k, v := range props {
		if k == idProperty || v == nil {
			continue
		}
		out[k] = v
	}
	return id, out
}

func nodeFromValue(v any) (*graphs.Node, error) {
	var n kuzu.Node
	switch x := v.(type) {
	case kuzu.Node:
		n = x
	case *kuzu.Node:
		n = *x
	default:
		return nil, fmt.Errorf("unexpected node value %T", v)
	}
	id, props := storedProperties(n.Properties)
	return &graphs.Node{ID: id, Labels: []string{n.Label}, Properties: props}, nil
}

func relationshipFromValue(v any, start, end *graphs.Node) (*graphs.Relationship, error) {
	var r kuzu.Relationship
	switch x := v.(type) {
	case kuzu.Relationship:
		r = x
	case *kuzu.Relationship:
		r = *x
	default:
		return nil, fmt.Errorf("unexpected relationship value %T", v)
	}
	id, props := storedProperties(r.Properties)
	return &graphs.Relationship{ID: id, Type: r.Label, Start: start, End: end, Properties: props}, nil
}
