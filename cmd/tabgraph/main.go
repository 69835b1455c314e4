// Command tabgraph imports CSV files and SQL query results into a property
// graph and exports graph nodes and relationships back to CSV.
//
//	tabgraph --backend kuzu import nodes --label Person --csv people.csv
//	tabgraph --backend kuzu import relationships --type KNOWS \
//	    --from-label Person --from-key-column a --from-id-key id \
//	    --to-label Person --to-key-column b --to-id-key id --csv knows.csv
//	tabgraph --backend kuzu export relationships --type KNOWS \
//	    --from-property name --to-property name --out knows_names.csv
//
// Store connection settings come from the YAML file named by --config and
// fall back to the NEO4J_URI, NEO4J_USERNAME, NEO4J_PASSWORD, NEO4J_DATABASE
// and KUZU_PATH environment variables.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xdezzy/tabgraph/graphs"
	"github.com/0xdezzy/tabgraph/tablegraph"
)

// Version is the current tabgraph CLI version
var Version = "0.1.0"

// app holds the state shared by every command of one invocation.
type app struct {
	configPath string
	backend    string
	debug      bool

	cfg    *Config
	logger *zap.Logger
	store  graphs.Store
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "tabgraph",
		Short:         "Move tabular data in and out of a property graph",
		Long:          `tabgraph creates graph nodes and relationships from CSV files or SQL query results, in chunks of rows per transaction, and exports them back to CSV.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML configuration file")
	root.PersistentFlags().StringVar(&a.backend, "backend", "", "Graph store backend: neo4j, kuzu or memory")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable development logging")

	root.AddCommand(a.importCmd(), a.exportCmd())
	return root
}

// setup loads the configuration and opens the store. Flags given on the
// command line override the configuration file.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("backend") {
		cfg.Backend = a.backend
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug = a.debug
	}
	a.cfg = cfg

	a.logger, err = newLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.store, err = openStore(cmd.Context(), cfg, a.logger)
	if err != nil {
		return err
	}
	a.logger.Debug("opened graph store", zap.String("backend", cfg.Backend))
	return nil
}

func (a *app) teardown(cmd *cobra.Command) {
	if a.store != nil {
		if err := a.store.Close(cmd.Context()); err != nil {
			a.logger.Warn("failed to close graph store", zap.Error(err))
		}
		a.store = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// run wraps a command body with store setup and teardown.
func (a *app) run(fn func(cmd *cobra.Command, g *tablegraph.Graph) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if err := a.setup(cmd); err != nil {
			return err
		}
		defer a.teardown(cmd)
		g := tablegraph.New(a.store,
			tablegraph.WithLogger(a.logger),
			tablegraph.WithDefaultChunkSize(a.cfg.ChunkSize),
		)
		return fn(cmd, g)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tabgraph:", err)
		os.Exit(1)
	}
}
