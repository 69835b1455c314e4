package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xdezzy/tabgraph/tablegraph"
)

func (a *app) importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create graph entities from table rows",
	}
	cmd.AddCommand(a.importNodesCmd(), a.importRelationshipsCmd())
	return cmd
}

// selectorFlags choose a bare label or a model class from the schemas file.
type selectorFlags struct {
	prefix  string
	label   string
	model   string
	schemas string
}

func (s *selectorFlags) flag(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "-" + name
}

func (s *selectorFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.label, s.flag("label"), "", "Node label")
	cmd.Flags().StringVar(&s.model, s.flag("model"), "", "Model class defined in the schemas file")
	cmd.MarkFlagsMutuallyExclusive(s.flag("label"), s.flag("model"))
	cmd.MarkFlagsOneRequired(s.flag("label"), s.flag("model"))
}

func (s *selectorFlags) selector(cfg *Config) (tablegraph.Selector, error) {
	if s.label != "" {
		return tablegraph.ByLabel(s.label), nil
	}
	path := s.schemas
	if path == "" {
		path = cfg.Schemas
	}
	schema, err := loadSchema(path, s.model)
	if err != nil {
		return tablegraph.Selector{}, err
	}
	return tablegraph.ByModel(schema), nil
}

func (a *app) importNodesCmd() *cobra.Command {
	var (
		sel       selectorFlags
		src       sourceFlags
		chunkSize int
	)
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "Create one node per table row",
		Long: `Create one node per table row, with the row's columns as properties.

With --label every non-missing cell becomes a property as read. With --model
the row is assigned through the model's property descriptors, so values are
cast and validated and the command fails on the first invalid row.`,
		Example: `  tabgraph import nodes --label Person --csv people.csv --chunk-size 500
  tabgraph import nodes --model Person --schemas models.yaml \
      --sql-driver sqlite --dsn people.db --query "SELECT * FROM people"`,
		Args: cobra.NoArgs,
	}
	sel.register(cmd)
	src.register(cmd)
	cmd.Flags().StringVar(&sel.schemas, "schemas", "", "YAML schema definitions file")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Maximal number of rows per transaction (0 writes all rows at once)")

	cmd.RunE = a.run(func(cmd *cobra.Command, g *tablegraph.Graph) error {
		selector, err := sel.selector(a.cfg)
		if err != nil {
			return err
		}
		t, err := src.read(cmd.Context(), cmd.InOrStdin())
		if err != nil {
			return err
		}
		var opts []tablegraph.CallOption
		if cmd.Flags().Changed("chunk-size") {
			opts = append(opts, tablegraph.WithChunkSize(chunkSize))
		}
		nodes, err := g.CreateNodes(cmd.Context(), t, selector, opts...)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %d %s nodes\n", len(nodes), selector.Label())
		return nil
	})
	return cmd
}

func (a *app) importRelationshipsCmd() *cobra.Command {
	var (
		relType    string
		from, to   = selectorFlags{prefix: "from"}, selectorFlags{prefix: "to"}
		fromKey    string
		toKey      string
		fromIDKey  string
		toIDKey    string
		properties []string
		schemas    string
		src        sourceFlags
		chunkSize  int
	)
	cmd := &cobra.Command{
		Use:   "relationships",
		Short: "Create one relationship per table row between existing nodes",
		Long: `Create one relationship per table row. The start node is the node matched
by the --from-key-column cell and the end node the one matched by the
--to-key-column cell. Label endpoints compare the cell with the --from-id-key
or --to-id-key node property; model endpoints default to the model's primary
key. A row whose endpoint does not exist fails the command, and nothing is
created for its chunk.`,
		Example: `  tabgraph import relationships --type AUTHOR \
      --from-model Person --from-key-column author \
      --to-model Publication --to-key-column publication \
      --schemas models.yaml --csv authorship.csv`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().StringVar(&relType, "type", "", "Relationship type")
	from.register(cmd)
	to.register(cmd)
	cmd.Flags().StringVar(&fromKey, "from-key-column", "", "Column identifying the start node")
	cmd.Flags().StringVar(&toKey, "to-key-column", "", "Column identifying the end node")
	cmd.Flags().StringVar(&fromIDKey, "from-id-key", "", "Start node property compared with the key column")
	cmd.Flags().StringVar(&toIDKey, "to-id-key", "", "End node property compared with the key column")
	cmd.Flags().StringSliceVar(&properties, "properties", nil, "Columns copied to relationship properties")
	cmd.Flags().StringVar(&schemas, "schemas", "", "YAML schema definitions file")
	src.register(cmd)
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "Maximal number of rows per transaction (0 writes all rows at once)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("from-key-column")
	_ = cmd.MarkFlagRequired("to-key-column")

	cmd.RunE = a.run(func(cmd *cobra.Command, g *tablegraph.Graph) error {
		from.schemas, to.schemas = schemas, schemas
		fromSel, err := from.selector(a.cfg)
		if err != nil {
			return err
		}
		toSel, err := to.selector(a.cfg)
		if err != nil {
			return err
		}
		t, err := src.read(cmd.Context(), cmd.InOrStdin())
		if err != nil {
			return err
		}
		var opts []tablegraph.CallOption
		if cmd.Flags().Changed("chunk-size") {
			opts = append(opts, tablegraph.WithChunkSize(chunkSize))
		}
		if len(properties) > 0 {
			opts = append(opts, tablegraph.WithProperties(properties...))
		}
		rels, err := g.CreateRelationships(cmd.Context(), t, relType,
			tablegraph.Endpoint{Selector: fromSel, KeyColumn: fromKey, IDKey: fromIDKey},
			tablegraph.Endpoint{Selector: toSel, KeyColumn: toKey, IDKey: toIDKey},
			opts...,
		)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %d %s relationships\n", len(rels), relType)
		return nil
	})
	return cmd
}
