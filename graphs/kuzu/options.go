package kuzu

import (
	"os"
	"time"

	"go.uber.org/zap"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultBufferPoolSize = 256 << 20
	defaultMaxNumThreads  = 4
)

// Option configures a Store.
type Option func(*options)

type options struct {
	// databasePath is the database directory; empty selects an in-memory
	// database.
	databasePath string
	pathSet      bool
	readOnly     bool

	timeout        time.Duration
	bufferPoolSize uint64
	maxNumThreads  uint64

	logger *zap.Logger
}

// applyDefaults fills unset options. Without a path option the database path
// comes from KUZU_PATH.
func applyDefaults(opts *options) {
	if !opts.pathSet {
		opts.databasePath = os.Getenv("KUZU_PATH")
	}
	if opts.timeout == 0 {
		opts.timeout = defaultTimeout
	}
	if opts.bufferPoolSize == 0 {
		opts.bufferPoolSize = defaultBufferPoolSize
	}
	if opts.maxNumThreads == 0 {
		opts.maxNumThreads = defaultMaxNumThreads
	}
	if opts.logger == nil {
		opts.logger = zap.NewNop()
	}
}

func (o *options) inMemory() bool { return o.databasePath == "" }

// WithDatabasePath opens the file-based database in directory path, creating
// it when missing. An empty path selects an in-memory database.
func WithDatabasePath(path string) Option {
	return func(o *options) {
		o.databasePath = path
		o.pathSet = true
	}
}

// WithInMemory selects an in-memory database, ignoring KUZU_PATH. Its
// contents are lost on Close.
func WithInMemory(inMemory bool) Option {
	return func(o *options) {
		if inMemory {
			o.databasePath = ""
			o.pathSet = true
		}
	}
}

// WithReadOnly opens the database read-only. Commits of a read-only store
// fail.
func WithReadOnly(readOnly bool) Option {
	return func(o *options) {
		o.readOnly = readOnly
	}
}

// WithTimeout sets the query execution timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithBufferPoolSize sets the buffer pool size in bytes.
func WithBufferPoolSize(size uint64) Option {
	return func(o *options) {
		o.bufferPoolSize = size
	}
}

// WithMaxNumThreads sets the maximum number of threads used by a query.
func WithMaxNumThreads(threads uint64) Option {
	return func(o *options) {
		o.maxNumThreads = threads
	}
}

// WithLogger sets the logger used for schema changes and commits.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
