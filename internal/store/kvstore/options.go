package kvstore

import (
	"time"

	"go.uber.org/zap"

	"github.com/steviemul/offily/internal/blob"
	"github.com/steviemul/offily/internal/compress"
	"github.com/steviemul/offily/internal/compress/noopcompress"
	"github.com/steviemul/offily/internal/stats"
	"github.com/steviemul/offily/internal/wal"
)

// DefaultTimeout bounds each bucket operation.
const DefaultTimeout = 30 * time.Second

// reconcileWorkers bounds concurrent bucket calls during recovery and Clear.
const reconcileWorkers = 8

// Option configures a Store.
type Option func(*options)

type options struct {
	id         int
	bucket     blob.Bucket
	compressor compress.Compressor
	sync       bool
	timeout    time.Duration
	logger     *zap.Logger
	stats      stats.Collector
}

func defaultOptions() options {
	return options{
		id:         wal.NoIdentifier,
		compressor: noopcompress.New(),
		timeout:    DefaultTimeout,
		logger:     zap.NewNop(),
		stats:      stats.NewNoop(),
	}
}

// WithIdentifier sets the numeric identifier distinguishing stores that share
// a name, e.g. shards.
func WithIdentifier(id int) Option {
	return func(o *options) { o.id = id }
}

// WithBucket sets the bucket values are stored in. The store takes ownership
// and closes it on Close. Defaults to a directory bucket at the store root.
func WithBucket(b blob.Bucket) Option {
	return func(o *options) { o.bucket = b }
}

// WithCompressor sets the compressor applied to stored values.
// The WAL is never compressed.
func WithCompressor(c compress.Compressor) Option {
	return func(o *options) { o.compressor = c }
}

// WithSync makes every WAL append fsync before returning.
func WithSync(sync bool) Option {
	return func(o *options) { o.sync = sync }
}

// WithTimeout bounds each bucket operation. Defaults to DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStats sets the stats collector.
func WithStats(c stats.Collector) Option {
	return func(o *options) { o.stats = c }
}
