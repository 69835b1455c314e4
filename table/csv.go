package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVOption configures CSV reading and writing.
type CSVOption func(*csvOptions)

type csvOptions struct {
	comma      rune
	inferTypes bool
	nullValues []string
}

func defaultCSVOptions() csvOptions {
	return csvOptions{
		comma:      ',',
		inferTypes: true,
		nullValues: []string{""},
	}
}

// WithComma sets the field delimiter.
func WithComma(r rune) CSVOption {
	return func(o *csvOptions) {
		o.comma = r
	}
}

// WithInferTypes controls whether column types are inferred while reading.
// When enabled (the default) a column whose present cells all parse as
// integers becomes int64, then float64, then bool; anything else stays string.
func WithInferTypes(infer bool) CSVOption {
	return func(o *csvOptions) {
		o.inferTypes = infer
	}
}

// WithNullValues sets the cell texts read as missing values. The first one is
// written for nil cells. Defaults to the empty string.
func WithNullValues(values ...string) CSVOption {
	return func(o *csvOptions) {
		o.nullValues = values
	}
}

// ReadCSV reads a table from CSV. The first record is the header.
func ReadCSV(r io.Reader, opts ...CSVOption) (*Table, error) {
	o := defaultCSVOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cr := csv.NewReader(r)
	cr.Comma = o.comma

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return MustNew(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	t, err := New(header)
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var raw [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		raw = append(raw, rec)
	}

	null := make(map[string]struct{}, len(o.nullValues))
	for _, v := range o.nullValues {
		null[v] = struct{}{}
	}
	parsers := make([]func(string) any, len(header))
	for j := range header {
		parsers[j] = parseString
		if o.inferTypes {
			parsers[j] = inferColumn(raw, j, null)
		}
	}

	t.rows = make([][]any, len(raw))
	for i, rec := range raw {
		row := make([]any, len(header))
		for j, cell := range rec {
			if _, ok := null[cell]; ok {
				continue
			}
			row[j] = parsers[j](cell)
		}
		t.rows[i] = row
	}
	return t, nil
}

func parseString(s string) any { return s }

func parseInt(s string) any {
	i, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return i
}

func parseFloat(s string) any {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func parseBool(s string) any {
	return strings.EqualFold(strings.TrimSpace(s), "true")
}

// inferColumn picks the narrowest parser accepting every present cell of column j.
func inferColumn(raw [][]string, j int, null map[string]struct{}) func(string) any {
	isInt, isFloat, isBool := true, true, true
	present := 0
	for _, rec := range raw {
		cell := rec[j]
		if _, ok := null[cell]; ok {
			continue
		}
		present++
		s := strings.TrimSpace(cell)
		if isInt {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				isInt = false
			}
		}
		if isFloat {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				isFloat = false
			}
		}
		if isBool {
			if !strings.EqualFold(s, "true") && !strings.EqualFold(s, "false") {
				isBool = false
			}
		}
	}
	switch {
	case present == 0:
		return parseString
	case isInt:
		return parseInt
	case isFloat:
		return parseFloat
	case isBool:
		return parseBool
	default:
		return parseString
	}
}

// WriteCSV writes the table as CSV with a header record.
func WriteCSV(w io.Writer, t *Table, opts ...CSVOption) error {
	o := defaultCSVOptions()
	for _, opt := range opts {
		opt(&o)
	}
	null := ""
	if len(o.nullValues) > 0 {
		null = o.nullValues[0]
	}

	cw := csv.NewWriter(w)
	cw.Comma = o.comma
	if err := cw.Write(t.columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	rec := make([]string, len(t.columns))
	for _, r := range t.rows {
		for j, v := range r {
			rec[j] = formatCell(v, null)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v any, null string) string {
	if IsMissing(v) {
		return null
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = formatCell(e, null)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}
