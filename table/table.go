// Package table holds rows of tabular data with ordered, named columns.
//
// Tables are the exchange format between tabular sources (CSV files, SQL
// queries, in-memory records) and the graph synchronizer. A missing cell is
// nil; sources that encode missing values differently are normalized when the
// table is built.
package table

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrUnknownColumn is returned when a column name is not part of a table.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrDuplicateColumn is returned when a table would hold two columns with
	// the same name.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrRowLength is returned when a row does not have one value per column.
	ErrRowLength = errors.New("row length does not match column count")
)

// Table is an ordered collection of rows sharing the same columns.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]any
	offset  int // position of the first row in the table this one was split from
}

// New creates a table. Each row must have exactly one value per column.
func New(columns []string, rows ...[]any) (*Table, error) {
	t := &Table{
		columns: slices.Clone(columns),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if _, ok := t.index[c]; ok {
			return nil, fmt.Errorf("%w %q", ErrDuplicateColumn, c)
		}
		t.index[c] = i
	}
	for _, r := range rows {
		if err := t.Append(r...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustNew is like New but panics on error.
func MustNew(columns []string, rows ...[]any) *Table {
	t, err := New(columns, rows...)
	if err != nil {
		panic(err)
	}
	return t
}

// FromRecords builds a table from maps. Columns are taken in order of first
// appearance (keys of a record sorted) unless given explicitly; absent keys
// become nil.
func FromRecords(records []map[string]any, columns ...string) (*Table, error) {
	if len(columns) == 0 {
		seen := make(map[string]struct{})
		for _, rec := range records {
			for _, k := range sortedKeys(rec) {
				if _, ok := seen[k]; !ok {
					seen[k] = struct{}{}
					columns = append(columns, k)
				}
			}
		}
	}
	t, err := New(columns)
	if err != nil {
		return nil, err
	}
	t.rows = make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(columns))
		for j, c := range columns {
			row[j] = rec[c]
		}
		t.rows[i] = row
	}
	return t, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Append adds a row.
func (t *Table) Append(values ...any) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("%w: got %d values for %d columns", ErrRowLength, len(values), len(t.columns))
	}
	t.rows = append(t.rows, slices.Clone(values))
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Columns returns the column names in order.
func (t *Table) Columns() []string { return slices.Clone(t.columns) }

// HasColumn reports whether the table has a column named name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Row returns the i-th row.
func (t *Table) Row(i int) Row { return Row{t: t, i: i} }

// Rows returns every row in order.
func (t *Table) Rows() []Row {
	rows := make([]Row, len(t.rows))
	for i := range rows {
		rows[i] = Row{t: t, i: i}
	}
	return rows
}

// Column returns the values of a column.
func (t *Table) Column(name string) ([]any, error) {
	j, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownColumn, name)
	}
	values := make([]any, len(t.rows))
	for i, r := range t.rows {
		values[i] = r[j]
	}
	return values, nil
}

// Select returns a table with only the named columns, in the given order.
func (t *Table) Select(columns ...string) (*Table, error) {
	idx := make([]int, len(columns))
	for k, c := range columns {
		j, ok := t.index[c]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownColumn, c)
		}
		idx[k] = j
	}
	out, err := New(columns)
	if err != nil {
		return nil, err
	}
	out.rows = make([][]any, len(t.rows))
	for i, r := range t.rows {
		row := make([]any, len(idx))
		for k, j := range idx {
			row[k] = r[j]
		}
		out.rows[i] = row
	}
	return out, nil
}

// AddColumn appends a column. values must hold one value per row.
func (t *Table) AddColumn(name string, values []any) error {
	if _, ok := t.index[name]; ok {
		return fmt.Errorf("%w %q", ErrDuplicateColumn, name)
	}
	if len(values) != len(t.rows) {
		return fmt.Errorf("%w: column %q has %d values for %d rows", ErrRowLength, name, len(values), len(t.rows))
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)
	rows := make([][]any, len(t.rows))
	for i, r := range t.rows {
		rows[i] = append(slices.Clip(r), values[i])
	}
	t.rows = rows
	return nil
}

// Records returns the rows as maps keyed by column name.
func (t *Table) Records() []map[string]any {
	out := make([]map[string]any, len(t.rows))
	for i := range t.rows {
		out[i] = t.Row(i).Map()
	}
	return out
}

// Values returns a copy of the cells, row by row.
func (t *Table) Values() [][]any {
	out := make([][]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = slices.Clone(r)
	}
	return out
}

// Row is a view of a single table row.
type Row struct {
	t *Table
	i int
}

// Index returns the row position. Rows of a partition returned by Split keep
// their position in the partitioned table.
func (r Row) Index() int { return r.t.offset + r.i }

// Columns returns the column names of the row.
func (r Row) Columns() []string { return r.t.Columns() }

// Get returns the value of a column and whether the column exists.
func (r Row) Get(column string) (any, bool) {
	j, ok := r.t.index[column]
	if !ok {
		return nil, false
	}
	return r.t.rows[r.i][j], true
}

// Values returns a copy of the row cells.
func (r Row) Values() []any { return slices.Clone(r.t.rows[r.i]) }

// Map returns the row as a map keyed by column name.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.t.columns))
	for j, c := range r.t.columns {
		m[c] = r.t.rows[r.i][j]
	}
	return m
}

// IsMissing reports whether a cell holds no value: nil or a floating NaN.
func IsMissing(v any) bool {
	switch f := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(f)
	case float32:
		return math.IsNaN(float64(f))
	}
	return false
}
