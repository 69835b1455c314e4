package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/0xdezzy/tabgraph/graphs"
	"github.com/0xdezzy/tabgraph/graphs/kuzu"
	"github.com/0xdezzy/tabgraph/graphs/memory"
	"github.com/0xdezzy/tabgraph/graphs/neo4j"
	"github.com/0xdezzy/tabgraph/model"
)

var ErrUnknownBackend = errors.New("unknown graph store backend")

// Config is the tabgraph configuration file.
//
//	backend: kuzu
//	chunk_size: 500
//	schemas: models.yaml
//	kuzu:
//	  path: ./graph.kuzu
//	  read_only: false
//	  timeout: 1m
//	neo4j:
//	  uri: bolt://localhost:7687
//	  username: neo4j
//	  password: secret
type Config struct {
	Backend   string      `yaml:"backend"`
	Debug     bool        `yaml:"debug"`
	ChunkSize int         `yaml:"chunk_size"`
	Schemas   string      `yaml:"schemas"`
	Neo4j     Neo4jConfig `yaml:"neo4j"`
	Kuzu      KuzuConfig  `yaml:"kuzu"`
}

// Neo4jConfig holds Neo4j connection settings. Empty fields keep the store
// defaults, which read the NEO4J_* environment variables.
type Neo4jConfig struct {
	URI       string `yaml:"uri"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	Database  string `yaml:"database"`
	BatchSize int    `yaml:"batch_size"`
}

// KuzuConfig holds KuzuDB settings. Without a path KUZU_PATH is used, and
// without either the database lives in memory.
type KuzuConfig struct {
	Path     string        `yaml:"path"`
	InMemory bool          `yaml:"in_memory"`
	ReadOnly bool          `yaml:"read_only"`
	Timeout  time.Duration `yaml:"timeout"`
}

// defaultConfig returns the configuration used when no file is given.
func defaultConfig() *Config {
	return &Config{
		Backend:   getEnv("TABGRAPH_BACKEND", "neo4j"),
		ChunkSize: getEnvInt("TABGRAPH_CHUNK_SIZE", 0),
		Schemas:   getEnv("TABGRAPH_SCHEMAS", ""),
	}
}

// LoadConfig reads the configuration file at path over the defaults. An
// empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.ChunkSize < 0 {
		return nil, fmt.Errorf("invalid chunk_size %d", cfg.ChunkSize)
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// openStore connects to the configured backend.
func openStore(ctx context.Context, cfg *Config, logger *zap.Logger) (graphs.Store, error) {
	switch cfg.Backend {
	case "memory":
		return memory.New(memory.WithLogger(logger)), nil

	case "neo4j":
		opts := []neo4j.Option{neo4j.WithLogger(logger)}
		if cfg.Neo4j.URI != "" {
			opts = append(opts, neo4j.WithConnectionURL(cfg.Neo4j.URI))
		}
		if cfg.Neo4j.Username != "" {
			opts = append(opts, neo4j.WithCredentials(cfg.Neo4j.Username, cfg.Neo4j.Password))
		}
		if cfg.Neo4j.Database != "" {
			opts = append(opts, neo4j.WithDatabase(cfg.Neo4j.Database))
		}
		if cfg.Neo4j.BatchSize > 0 {
			opts = append(opts, neo4j.WithBatchSize(cfg.Neo4j.BatchSize))
		}
		store, err := neo4j.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("open neo4j store: %w", err)
		}
		return store, nil

	case "kuzu":
		opts := []kuzu.Option{kuzu.WithLogger(logger)}
		if cfg.Kuzu.Path != "" {
			opts = append(opts, kuzu.WithDatabasePath(cfg.Kuzu.Path))
		}
		if cfg.Kuzu.InMemory {
			opts = append(opts, kuzu.WithInMemory(true))
		}
		if cfg.Kuzu.ReadOnly {
			opts = append(opts, kuzu.WithReadOnly(true))
		}
		if cfg.Kuzu.Timeout > 0 {
			opts = append(opts, kuzu.WithTimeout(cfg.Kuzu.Timeout))
		}
		store, err := kuzu.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("open kuzu store: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
}

// loadSchema returns the schema for label from the schema definitions file.
func loadSchema(path, label string) (*model.Schema, error) {
	if path == "" {
		return nil, errors.New("a schema definitions file is required with --model")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schemas: %w", err)
	}
	defer f.Close()

	schemas, err := model.LoadSchemas(f)
	if err != nil {
		return nil, fmt.Errorf("load schemas %s: %w", path, err)
	}
	s, ok := schemas[label]
	if !ok {
		return nil, fmt.Errorf("model %q is not defined in %s", label, path)
	}
	return s, nil
}
