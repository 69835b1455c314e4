package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/0xdezzy/tabgraph/table"
	"github.com/0xdezzy/tabgraph/tablegraph"
)

func (a *app) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write graph entities to CSV",
	}
	cmd.AddCommand(a.exportLabelCmd(), a.exportModelCmd(), a.exportRelationshipsCmd())
	return cmd
}

// outputFlags select where a table is written.
type outputFlags struct {
	out   string
	comma string
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "CSV file to write (default stdout)")
	cmd.Flags().StringVar(&o.comma, "comma", ",", "CSV field delimiter")
}

func (o *outputFlags) write(stdout io.Writer, t *table.Table) error {
	comma := []rune(o.comma)
	if len(comma) != 1 {
		return fmt.Errorf("--comma must be a single character, got %q", o.comma)
	}
	if o.out == "" || o.out == "-" {
		return table.WriteCSV(stdout, t, table.WithComma(comma[0]))
	}

	f, err := os.Create(o.out)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := table.WriteCSV(f, t, table.WithComma(comma[0])); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", o.out, err)
	}
	return f.Close()
}

func (a *app) exportLabelCmd() *cobra.Command {
	var (
		label   string
		columns []string
		out     outputFlags
	)
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Write every node with a label, one row per node",
		Long: `Write every node with a label, one row per node. Without --columns the
columns are the union of the node properties; requested columns must be present
on every node.`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().StringVar(&label, "label", "", "Node label")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Properties to write")
	out.register(cmd)
	_ = cmd.MarkFlagRequired("label")

	cmd.RunE = a.run(func(cmd *cobra.Command, g *tablegraph.Graph) error {
		t, err := g.GetTableForLabel(cmd.Context(), label, columns)
		if err != nil {
			return err
		}
		return out.write(cmd.OutOrStdout(), t)
	})
	return cmd
}

func (a *app) exportModelCmd() *cobra.Command {
	var (
		name    string
		schemas string
		columns []string
		out     outputFlags
	)
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Write every node of a model class, read through its descriptors",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&name, "model", "", "Model class defined in the schemas file")
	cmd.Flags().StringVar(&schemas, "schemas", "", "YAML schema definitions file")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "Properties to write")
	out.register(cmd)
	_ = cmd.MarkFlagRequired("model")

	cmd.RunE = a.run(func(cmd *cobra.Command, g *tablegraph.Graph) error {
		if schemas == "" {
			schemas = a.cfg.Schemas
		}
		schema, err := loadSchema(schemas, name)
		if err != nil {
			return err
		}
		t, err := g.GetTableForModels(cmd.Context(), schema, columns)
		if err != nil {
			return err
		}
		return out.write(cmd.OutOrStdout(), t)
	})
	return cmd
}

func (a *app) exportRelationshipsCmd() *cobra.Command {
	var (
		relType      string
		fromProperty string
		toProperty   string
		out          outputFlags
	)
	cmd := &cobra.Command{
		Use:   "relationships",
		Short: "Write one row per relationship with a property of each endpoint",
		Long: `Write one row per relationship of a type, holding the --from-property value
of its start node and the --to-property value of its end node. When both
properties have the same name the columns are <name>_from and <name>_to.`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().StringVar(&relType, "type", "", "Relationship type")
	cmd.Flags().StringVar(&fromProperty, "from-property", "", "Start node property")
	cmd.Flags().StringVar(&toProperty, "to-property", "", "End node property")
	out.register(cmd)
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("from-property")
	_ = cmd.MarkFlagRequired("to-property")

	cmd.RunE = a.run(func(cmd *cobra.Command, g *tablegraph.Graph) error {
		t, err := g.GetTableForRelationship(cmd.Context(), relType, fromProperty, toProperty, nil, false)
		if err != nil {
			return err
		}
		return out.write(cmd.OutOrStdout(), t)
	})
	return cmd
}
