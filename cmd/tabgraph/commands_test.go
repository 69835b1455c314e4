package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xdezzy/tabgraph/table"
	"github.com/0xdezzy/tabgraph/tablegraph"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// kuzuConfig writes a configuration for a file-based Kuzu database that
// survives between invocations.
func kuzuConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return writeFile(t, "tabgraph.yaml", fmt.Sprintf("backend: kuzu\nkuzu:\n  path: %s\n", filepath.Join(dir, "graph.kuzu")))
}

func findCmd(t *testing.T, root *cobra.Command, path ...string) *cobra.Command {
	t.Helper()
	cmd, rest, err := root.Find(path)
	require.NoError(t, err)
	require.Empty(t, rest)
	return cmd
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()
	assert.Equal(t, "tabgraph", root.Use)
	assert.NotEmpty(t, root.Short)
	for _, name := range []string{"config", "backend", "debug"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(name), name)
	}

	for _, path := range [][]string{
		{"import", "nodes"},
		{"import", "relationships"},
		{"export", "label"},
		{"export", "model"},
		{"export", "relationships"},
	} {
		cmd := findCmd(t, root, path...)
		assert.Equal(t, path[len(path)-1], cmd.Name())
		assert.NotNil(t, cmd.RunE, strings.Join(path, " "))
	}

	nodes := findCmd(t, root, "import", "nodes")
	for _, name := range []string{"label", "model", "schemas", "csv", "sql-driver", "dsn", "query", "chunk-size"} {
		assert.NotNil(t, nodes.Flags().Lookup(name), name)
	}
	rels := findCmd(t, root, "import", "relationships")
	for _, name := range []string{"type", "from-label", "from-model", "from-key-column", "from-id-key", "to-label", "to-model", "to-key-column", "to-id-key", "properties"} {
		assert.NotNil(t, rels.Flags().Lookup(name), name)
	}
}

func TestImportNodesMemory(t *testing.T) {
	out, err := runCLI(t, "id,name\n1,a\n2,b\n",
		"--backend", "memory", "import", "nodes", "--label", "Person", "--csv", "-", "--chunk-size", "1")
	require.NoError(t, err)
	assert.Equal(t, "created 2 Person nodes\n", out)
}

func TestImportNodesFlagErrors(t *testing.T) {
	csv := writeFile(t, "people.csv", "id\n1\n")
	tests := []struct {
		name string
		args []string
	}{
		{"no selector", []string{"import", "nodes", "--csv", csv}},
		{"label and model", []string{"import", "nodes", "--label", "A", "--model", "B", "--csv", csv}},
		{"no source", []string{"import", "nodes", "--label", "A"}},
		{"csv and query", []string{"import", "nodes", "--label", "A", "--csv", csv, "--sql-driver", "sqlite", "--dsn", "x", "--query", "SELECT 1"}},
		{"query without driver", []string{"import", "nodes", "--label", "A", "--query", "SELECT 1"}},
		{"unknown driver", []string{"import", "nodes", "--label", "A", "--sql-driver", "oracle", "--dsn", "x", "--query", "SELECT 1"}},
		{"model without schemas", []string{"import", "nodes", "--model", "Person", "--csv", csv}},
		{"bad comma", []string{"import", "nodes", "--label", "A", "--csv", csv, "--comma", ";;"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TABGRAPH_SCHEMAS", "")
			_, err := runCLI(t, "", append([]string{"--backend", "memory"}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}

func TestUnknownBackend(t *testing.T) {
	_, err := runCLI(t, "", "--backend", "bogus", "export", "label", "--label", "Person")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestImportAndExportRelationshipsKuzu(t *testing.T) {
	cfg := kuzuConfig(t)
	people := writeFile(t, "people.csv", "id,name\n1,a\n2,b\n3,c\n")
	knows := writeFile(t, "knows.csv", "a,b,since\n1,3,2001\n")

	out, err := runCLI(t, "", "--config", cfg, "import", "nodes", "--label", "Person", "--csv", people)
	require.NoError(t, err)
	assert.Equal(t, "created 3 Person nodes\n", out)

	endpointArgs := []string{
		"--from-label", "Person", "--from-key-column", "a", "--from-id-key", "id",
		"--to-label", "Person", "--to-key-column", "b", "--to-id-key", "id",
	}
	args := append([]string{"--config", cfg, "import", "relationships", "--type", "KNOWS", "--properties", "since", "--csv", knows}, endpointArgs...)
	out, err = runCLI(t, "", args...)
	require.NoError(t, err)
	assert.Equal(t, "created 1 KNOWS relationships\n", out)

	missing := writeFile(t, "missing.csv", "a,b\n1,42\n")
	args = append([]string{"--config", cfg, "import", "relationships", "--type", "KNOWS", "--csv", missing}, endpointArgs...)
	_, err = runCLI(t, "", args...)
	assert.ErrorIs(t, err, tablegraph.ErrNodeWithIDDoesNotExist)

	out, err = runCLI(t, "", "--config", cfg, "export", "relationships", "--type", "KNOWS",
		"--from-property", "name", "--to-property", "name")
	require.NoError(t, err)
	assert.Equal(t, "name_from,name_to\na,c\n", out)

	outFile := filepath.Join(t.TempDir(), "people_out.csv")
	_, err = runCLI(t, "", "--config", cfg, "export", "label", "--label", "Person", "--columns", "id,name", "--out", outFile)
	require.NoError(t, err)
	got := readCSVFile(t, outFile)
	assert.Equal(t, []string{"id", "name"}, got.Columns())
	assert.ElementsMatch(t, [][]any{{int64(1), "a"}, {int64(2), "b"}, {int64(3), "c"}}, got.Values())
}

func TestImportModelFromSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "people.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE people (uuid TEXT, name TEXT);
		INSERT INTO people VALUES ('1', 'Ada'), ('2', 'Grace'), ('3', NULL);`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	schemas := writeFile(t, "models.yaml", `
models:
  - label: Person
    primary_key: uuid
    properties:
      - {name: uuid, kind: integer, cast: true, not_null: true}
      - {name: name, kind: string}
`)
	cfg := kuzuConfig(t)

	out, err := runCLI(t, "", "--config", cfg, "import", "nodes", "--model", "Person", "--schemas", schemas,
		"--sql-driver", "sqlite", "--dsn", dbPath, "--query", "SELECT uuid, name FROM people", "--chunk-size", "2")
	require.NoError(t, err)
	assert.Equal(t, "created 3 Person nodes\n", out)

	out, err = runCLI(t, "", "--config", cfg, "export", "model", "--model", "Person", "--schemas", schemas,
		"--columns", "uuid,name")
	require.NoError(t, err)
	got, err := table.ReadCSV(strings.NewReader(out))
	require.NoError(t, err)
	assert.ElementsMatch(t, [][]any{{int64(1), "Ada"}, {int64(2), "Grace"}, {int64(3), nil}}, got.Values())

	bad := writeFile(t, "bad.csv", "uuid,name\nx,Alan\n")
	_, err = runCLI(t, "", "--config", cfg, "import", "nodes", "--model", "Person", "--schemas", schemas, "--csv", bad)
	assert.Error(t, err)
}

func readCSVFile(t *testing.T, path string) *table.Table {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got, err := table.ReadCSV(bytes.NewReader(data))
	require.NoError(t, err)
	return got
}

func TestImportNodesFromDuckDB(t *testing.T) {
	out, err := runCLI(t, "", "--backend", "memory", "import", "nodes", "--label", "Person",
		"--sql-driver", "duckdb", "--dsn", "",
		"--query", "SELECT * FROM (VALUES (1, 'a'), (2, 'b'), (3, 'c')) people(id, name)")
	require.NoError(t, err)
	assert.Equal(t, "created 3 Person nodes\n", out)
}
