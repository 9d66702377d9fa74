package offily

import (
	"time"

	"go.uber.org/zap"

	"github.com/steviemul/offily/internal/stats"
)

// DefaultCapacity is the in-memory capacity used by Open and New when
// WithCapacity is not given.
const DefaultCapacity = 10000

// Option configures a Cache.
type Option interface {
	apply(*options)
}

// options holds the cache configuration.
type options struct {
	capacity     int
	flushOnClose bool
	stats        stats.Collector
	logger       *zap.Logger

	// Persistent store settings, used by Open.
	id          int
	shards      int
	compression Compression
	syncWrites  bool
	timeout     time.Duration
	bucket      bucketConfig
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		capacity:    DefaultCapacity,
		stats:       stats.NewNoop(),
		logger:      zap.NewNop(),
		id:          -1,
		compression: CompressionNone,
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithCapacity sets how many entries the memory tier holds.
// Zero or less means unbounded: nothing is ever evicted.
func WithCapacity(n int) Option {
	return optionFunc(func(o *options) {
		o.capacity = n
	})
}

// WithFlushOnClose makes Close move the memory tier to the backing store
// before closing it, so a persistent cache keeps everything across restarts.
func WithFlushOnClose(flush bool) Option {
	return optionFunc(func(o *options) {
		o.flushOnClose = flush
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		o.stats = c
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// WithIdentifier sets the numeric identifier of the persistent store opened
// by Open, giving <name>-<id>.log. Ignored with WithShards.
func WithIdentifier(id int) Option {
	return optionFunc(func(o *options) {
		o.id = id
	})
}

// WithShards spreads the persistent store opened by Open over n stores.
// A store created with n shards must always be reopened with n shards.
func WithShards(n int) Option {
	return optionFunc(func(o *options) {
		o.shards = n
	})
}

// WithCompression sets how stored values are compressed.
func WithCompression(c Compression) Option {
	return optionFunc(func(o *options) {
		o.compression = c
	})
}

// WithSyncWrites makes every write-ahead log append fsync before returning.
func WithSyncWrites(sync bool) Option {
	return optionFunc(func(o *options) {
		o.syncWrites = sync
	})
}

// WithTimeout bounds each object bucket operation of the persistent store.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.timeout = d
	})
}

// WithS3Bucket stores values in an S3 bucket under prefix instead of the
// local directory. The write-ahead log stays local.
func WithS3Bucket(bucket, prefix string) Option {
	return optionFunc(func(o *options) {
		o.bucket = bucketConfig{kind: bucketS3, name: bucket, prefix: prefix}
	})
}

// WithGCSBucket stores values in a Google Cloud Storage bucket under prefix
// instead of the local directory. The write-ahead log stays local.
func WithGCSBucket(bucket, prefix string) Option {
	return optionFunc(func(o *options) {
		o.bucket = bucketConfig{kind: bucketGCS, name: bucket, prefix: prefix}
	})
}
