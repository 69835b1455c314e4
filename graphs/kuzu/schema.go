package kuzu

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/0xdezzy/tabgraph/graphs"
)

// tableSchema describes a node or relationship table.
type tableSchema struct {
	Name    string
	Rel     bool
	columns map[string]DataType
	// pairs holds the FROM/TO node tables of a relationship table.
	pairs map[[2]string]bool
}

func (t *tableSchema) clone() *tableSchema {
	return &tableSchema{
		Name:    t.Name,
		Rel:     t.Rel,
		columns: maps.Clone(t.columns),
		pairs:   maps.Clone(t.pairs),
	}
}

// Columns returns the column names and types of the table.
func (t *tableSchema) Columns() map[string]DataType {
	return maps.Clone(t.columns)
}

// catalog is the cached set of tables of a database.
type catalog struct {
	tables map[string]*tableSchema
}

func newCatalog() *catalog {
	return &catalog{tables: make(map[string]*tableSchema)}
}

func (c *catalog) clone() *catalog {
	out := newCatalog()
	for name, t := range c.tables {
		out.tables[name] = t.clone()
	}
	return out
}

func (c *catalog) node(name string) *tableSchema {
	if t := c.tables[name]; t != nil && !t.Rel {
		return t
	}
	return nil
}

func (c *catalog) rel(name string) *tableSchema {
	if t := c.tables[name]; t != nil && t.Rel {
		return t
	}
	return nil
}

func (c *catalog) hasRelTables() bool {
	for _, t := range c.tables {
		if t.Rel {
			return true
		}
	}
	return false
}

// Tables returns the names of the node and relationship tables.
func (s *Store) Tables() (nodes, rels []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, t := range s.catalog.tables {
		if t.Rel {
			rels = append(rels, name)
		} else {
			nodes = append(nodes, name)
		}
	}
	slices.Sort(nodes)
	slices.Sort(rels)
	return nodes, rels
}

// TableColumns returns the property columns of a table, without the element
// id column, or nil when the table does not exist.
func (s *Store) TableColumns(name string) map[string]DataType {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.catalog.tables[name]
	if t == nil {
		return nil
	}
	cols := t.Columns()
	delete(cols, idProperty)
	return cols
}

// loadCatalog introspects the database tables. The caller holds s.mu or has
// exclusive access to s.
func (s *Store) loadCatalog(ctx context.Context) error {
	tables, err := s.query(ctx, "CALL show_tables() RETURN *;", nil)
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	c := newCatalog()
	for _, rec := range tables {
		name, _ := rec["name"].(string)
		kind, _ := rec["type"].(string)
		if name == "" {
			continue
		}
		t := &tableSchema{
			Name:    name,
			Rel:     strings.EqualFold(kind, "REL"),
			columns: make(map[string]DataType),
			pairs:   make(map[[2]string]bool),
		}
		if !t.Rel && !strings.EqualFold(kind, "NODE") {
			continue
		}

		props, err := s.query(ctx, "CALL table_info("+quoteString(name)+") RETURN *;", nil)
		if err != nil {
			return fmt.Errorf("failed to get properties for table %s: %w", name, err)
		}
		for _, p := range props {
			col, _ := p["name"].(string)
			typ, _ := p["type"].(string)
			if col != "" {
				t.columns[col] = normalizeType(typ)
			}
		}

		if t.Rel {
			conns, err := s.query(ctx, "CALL show_connection("+quoteString(name)+") RETURN *;", nil)
			if err != nil {
				return fmt.Errorf("failed to get connections for table %s: %w", name, err)
			}
			for _, conn := range conns {
				from, _ := conn["source table name"].(string)
				to, _ := conn["destination table name"].(string)
				t.pairs[[2]string{from, to}] = true
			}
		}
		c.tables[name] = t
	}
	s.catalog = c
	return nil
}

func quoteString(s string) string {
	return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s) + "'"
}

// schemaChanges collects the DDL statements needed before a batch can be
// written, against a working copy of the catalog.
type schemaChanges struct {
	catalog *catalog
	stmts   []string
}

func newSchemaChanges(c *catalog) *schemaChanges {
	return &schemaChanges{catalog: c.clone()}
}

// columnTypes returns the type of every typed property, sorted by name.
// Nil values and empty lists carry no type and need no column.
func columnTypes(props map[string]any) ([]string, map[string]DataType, error) {
	types := make(map[string]DataType, len(props))
	for k, v := range props {
		if k == idProperty {
			return nil, nil, fmt.Errorf("%w: %s", ErrReservedProperty, k)
		}
		if untyped(v) {
			continue
		}
		t, _, err := typeOf(v)
		if err != nil {
			return nil, nil, fmt.Errorf("property %s: %w", k, err)
		}
		types[k] = t
	}
	return slices.Sorted(maps.Keys(types)), types, nil
}

func untyped(v any) bool {
	if v == nil {
		return true
	}
	list, ok := v.([]any)
	return ok && len(list) == 0
}

// node ensures a node table for label has a column for every property.
func (c *schemaChanges) node(label string, props map[string]any) error {
	names, types, err := columnTypes(props)
	if err != nil {
		return err
	}
	if existing := c.catalog.tables[label]; existing != nil && existing.Rel {
		return fmt.Errorf("%w: %s is a relationship table", ErrTableKind, label)
	}

	t := c.catalog.node(label)
	if t == nil {
		defs := []string{graphs.QuoteIdentifier(idProperty) + " STRING"}
		for _, name := range names {
			defs = append(defs, graphs.QuoteIdentifier(name)+" "+string(types[name]))
		}
		defs = append(defs, "PRIMARY KEY("+graphs.QuoteIdentifier(idProperty)+")")
		c.stmts = append(c.stmts, "CREATE NODE TABLE "+graphs.QuoteIdentifier(label)+"("+strings.Join(defs, ", ")+");")

		t = &tableSchema{Name: label, columns: map[string]DataType{idProperty: STRING}}
		maps.Copy(t.columns, types)
		c.catalog.tables[label] = t
		return nil
	}
	return c.addColumns(t, names, types)
}

// rel ensures a relationship table for relType connects from to to and has a
// column for every property.
func (c *schemaChanges) rel(relType, from, to string, props map[string]any) error {
	names, types, err := columnTypes(props)
	if err != nil {
		return err
	}
	if existing := c.catalog.tables[relType]; existing != nil && !existing.Rel {
		return fmt.Errorf("%w: %s is a node table", ErrTableKind, relType)
	}

	pair := [2]string{from, to}
	pairClause := "FROM " + graphs.QuoteIdentifier(from) + " TO " + graphs.QuoteIdentifier(to)
	t := c.catalog.rel(relType)
	if t == nil {
		defs := []string{pairClause, graphs.QuoteIdentifier(idProperty) + " STRING"}
		for _, name := range names {
			defs = append(defs, graphs.QuoteIdentifier(name)+" "+string(types[name]))
		}
		c.stmts = append(c.stmts, "CREATE REL TABLE "+graphs.QuoteIdentifier(relType)+"("+strings.Join(defs, ", ")+");")

		t = &tableSchema{
			Name:    relType,
			Rel:     true,
			columns: map[string]DataType{idProperty: STRING},
			pairs:   map[[2]string]bool{pair: true},
		}
		maps.Copy(t.columns, types)
		c.catalog.tables[relType] = t
		return nil
	}
	if !t.pairs[pair] {
		c.stmts = append(c.stmts, "ALTER TABLE "+graphs.QuoteIdentifier(relType)+" ADD "+pairClause+";")
		t.pairs[pair] = true
	}
	return c.addColumns(t, names, types)
}

func (c *schemaChanges) addColumns(t *tableSchema, names []string, types map[string]DataType) error {
	for _, name := range names {
		want := types[name]
		have, ok := t.columns[name]
		if !ok {
			c.stmts = append(c.stmts, "ALTER TABLE "+graphs.QuoteIdentifier(t.Name)+" ADD "+
				graphs.QuoteIdentifier(name)+" "+string(want)+";")
			t.columns[name] = want
			continue
		}
		if have == want {
			continue
		}
		if (have == DOUBLE && want == INT64) || (have == ListOf(DOUBLE) && want == ListOf(INT64)) {
			continue
		}
		return fmt.Errorf("%w: %s.%s is %s, got %s", ErrColumnType, t.Name, name, have, want)
	}
	return nil
}

// applySchema runs the collected DDL and installs the working catalog. The
// caller holds s.mu. After a failed statement the catalog is reloaded, since
// earlier statements have already taken effect.
func (s *Store) applySchema(ctx context.Context, c *schemaChanges) error {
	for _, stmt := range c.stmts {
		if _, err := s.query(ctx, stmt, nil); err != nil {
			if reloadErr := s.loadCatalog(context.WithoutCancel(ctx)); reloadErr != nil {
				s.options.logger.Warn("failed to reload kuzu catalog", zap.Error(reloadErr))
			}
			return fmt.Errorf("schema change %q: %w", stmt, err)
		}
		s.options.logger.Info("kuzu schema change", zap.String("statement", stmt))
	}
	s.catalog = c.catalog
	return nil
}
