package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/0xdezzy/tabgraph/table"

	// SQL drivers available to --sql-driver.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb"
	_ "modernc.org/sqlite"
)

// sqlDrivers lists the driver names accepted by --sql-driver.
var sqlDrivers = []string{"sqlite", "duckdb", "pgx", "mysql"}

// sourceFlags select where imported rows come from.
type sourceFlags struct {
	csv       string
	sqlDriver string
	dsn       string
	query     string
	comma     string
	nulls     []string
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.csv, "csv", "", "CSV file to read rows from (- for stdin)")
	cmd.Flags().StringVar(&s.sqlDriver, "sql-driver", "", "SQL driver: sqlite, duckdb, pgx or mysql")
	cmd.Flags().StringVar(&s.dsn, "dsn", "", "SQL data source name")
	cmd.Flags().StringVar(&s.query, "query", "", "SQL query returning the rows")
	cmd.Flags().StringVar(&s.comma, "comma", ",", "CSV field delimiter")
	cmd.Flags().StringSliceVar(&s.nulls, "null-values", []string{""}, "CSV cells read as missing values")
	cmd.MarkFlagsMutuallyExclusive("csv", "query")
	cmd.MarkFlagsOneRequired("csv", "query")
	cmd.MarkFlagsRequiredTogether("sql-driver", "dsn", "query")
}

func (s *sourceFlags) read(ctx context.Context, stdin io.Reader) (*table.Table, error) {
	switch {
	case s.csv != "" && s.query != "":
		return nil, errors.New("--csv and --query cannot be used together")
	case s.csv != "":
		return s.readCSV(stdin)
	case s.query != "":
		return s.readSQL(ctx)
	}
	return nil, errors.New("one of --csv or --query is required")
}

func (s *sourceFlags) readCSV(stdin io.Reader) (*table.Table, error) {
	comma := []rune(s.comma)
	if len(comma) != 1 {
		return nil, fmt.Errorf("--comma must be a single character, got %q", s.comma)
	}
	opts := []table.CSVOption{table.WithComma(comma[0]), table.WithNullValues(s.nulls...)}

	if s.csv == "-" {
		return table.ReadCSV(stdin, opts...)
	}
	f, err := os.Open(s.csv)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()
	t, err := table.ReadCSV(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.csv, err)
	}
	return t, nil
}

func (s *sourceFlags) readSQL(ctx context.Context) (*table.Table, error) {
	if !slices.Contains(sqlDrivers, s.sqlDriver) {
		return nil, fmt.Errorf("unsupported sql driver %q, expected one of %v", s.sqlDriver, sqlDrivers)
	}
	db, err := sql.Open(s.sqlDriver, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", s.sqlDriver, err)
	}
	defer db.Close()

	t, err := table.Query(ctx, db, s.query)
	if err != nil {
		return nil, fmt.Errorf("query %s database: %w", s.sqlDriver, err)
	}
	return t, nil
}
