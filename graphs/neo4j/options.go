package neo4j

import (
	"os"

	"go.uber.org/zap"
)

// Option is a function type for configuring a Neo4j graph store.
type Option func(*options)

// options contains the configuration for the Neo4j graph store.
type options struct {
	connectionURL string
	username      string
	password      string
	database      string
	batchSize     int
	logger        *zap.Logger
}

// defaultOptions returns the default options, taking connection settings
// from NEO4J_URI, NEO4J_USERNAME, NEO4J_PASSWORD and NEO4J_DATABASE when set.
func defaultOptions() *options {
	return &options{
		connectionURL: getEnv("NEO4J_URI", "bolt://localhost:7687"),
		username:      getEnv("NEO4J_USERNAME", "neo4j"),
		password:      getEnv("NEO4J_PASSWORD", "password"),
		database:      getEnv("NEO4J_DATABASE", "neo4j"),
		batchSize:     1000,
		logger:        zap.NewNop(),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// WithConnectionURL sets the Neo4j connection URL.
func WithConnectionURL(url string) Option {
	return func(o *options) {
		o.connectionURL = url
	}
}

// WithCredentials sets the Neo4j authentication credentials.
func WithCredentials(username, password string) Option {
	return func(o *options) {
		o.username = username
		o.password = password
	}
}

// WithDatabase sets the Neo4j database name.
func WithDatabase(database string) Option {
	return func(o *options) {
		o.database = database
	}
}

// WithBatchSize sets how many entities are sent in a single UNWIND statement.
// A transaction holding more entities than this issues several statements.
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

// WithLogger sets the logger used for query diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
