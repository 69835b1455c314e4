package table

import (
	"fmt"
	"maps"
	"slices"
)

// ChunkCount returns the number of chunks rows are split into for a chunk
// size. A size of zero or less means a single chunk; otherwise the count is
// rows/size rounded up.
func ChunkCount(rows, size int) int {
	if size <= 0 {
		return 1
	}
	return (rows + size - 1) / size
}

// Split partitions the table into n consecutive tables whose lengths differ by
// at most one. The first Len() % n partitions carry the extra row. Partitions
// share cell storage with t. n less than one is treated as one.
func (t *Table) Split(n int) []*Table {
	if n < 1 {
		n = 1
	}
	each, extra := len(t.rows)/n, len(t.rows)%n
	parts := make([]*Table, n)
	start := 0
	for k := range parts {
		size := each
		if k < extra {
			size++
		}
		parts[k] = &Table{
			columns: slices.Clone(t.columns),
			index:   maps.Clone(t.index),
			rows:    t.rows[start : start+size : start+size],
			offset:  t.offset + start,
		}
		start += size
	}
	return parts
}

// Chunks splits the table into ChunkCount(t.Len(), size) partitions.
func (t *Table) Chunks(size int) []*Table {
	n := ChunkCount(len(t.rows), size)
	if n == 0 {
		return nil
	}
	return t.Split(n)
}

// Concat stacks tables with identical columns.
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return MustNew(nil), nil
	}
	out := MustNew(tables[0].columns)
	for i, t := range tables {
		if !slices.Equal(out.columns, t.columns) {
			return nil, fmt.Errorf("table %d has columns %v, want %v", i, t.columns, out.columns)
		}
		out.rows = append(out.rows, t.rows...)
	}
	return out, nil
}
