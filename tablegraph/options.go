package tablegraph

import (
	"go.uber.org/zap"
)

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithDefaultChunkSize sets the chunk size used when a call does not give one.
// Zero, the default, writes every row in a single transaction.
func WithDefaultChunkSize(n int) Option {
	return func(g *Graph) {
		g.chunkSize = n
	}
}

// CallOption configures a single create call.
type CallOption func(*callOptions)

type callOptions struct {
	chunkSize  int
	properties []string
}

// WithChunkSize sets the maximal number of rows written per transaction. The
// table is split into rows/n (rounded up) chunks of nearly equal size, so a
// chunk may hold fewer rows than n. Zero writes every row at once.
func WithChunkSize(n int) CallOption {
	return func(o *callOptions) {
		o.chunkSize = n
	}
}

// WithProperties copies the named columns of each row into the properties of
// the created relationship. Missing cells are skipped.
func WithProperties(columns ...string) CallOption {
	return func(o *callOptions) {
		o.properties = columns
	}
}

func (g *Graph) callOptions(opts []CallOption) callOptions {
	o := callOptions{chunkSize: g.chunkSize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
