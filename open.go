package offily

import (
	"context"
	"fmt"

	"github.com/steviemul/offily/internal/blob"
	"github.com/steviemul/offily/internal/blob/gcsblob"
	"github.com/steviemul/offily/internal/blob/s3blob"
	"github.com/steviemul/offily/internal/compress"
	"github.com/steviemul/offily/internal/compress/gzipcompress"
	"github.com/steviemul/offily/internal/compress/noopcompress"
	"github.com/steviemul/offily/internal/compress/zstdcompress"
	"github.com/steviemul/offily/internal/store/kvstore"
	"github.com/steviemul/offily/internal/store/noopstore"
	"github.com/steviemul/offily/internal/store/shardedstore"
)

// Compression selects how the persistent store compresses values.
type Compression string

// Supported compressions.
const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

func (c Compression) compressor() (compress.Compressor, error) {
	switch c {
	case CompressionNone, "":
		return noopcompress.New(), nil
	case CompressionGzip:
		return gzipcompress.New(), nil
	case CompressionZstd:
		return zstdcompress.New(), nil
	default:
		return nil, fmt.Errorf("offily: unknown compression %q", string(c))
	}
}

type bucketKind int

const (
	bucketLocal bucketKind = iota
	bucketS3
	bucketGCS
)

type bucketConfig struct {
	kind   bucketKind
	name   string
	prefix string
}

func (b bucketConfig) remote() bool {
	return b.kind != bucketLocal
}

// open returns the configured remote bucket.
func (b bucketConfig) open(ctx context.Context) (blob.Bucket, error) {
	switch b.kind {
	case bucketS3:
		bucket, err := s3blob.New(ctx, b.name, s3blob.WithPrefix(b.prefix))
		if err != nil {
			return nil, err
		}
		return bucket, nil
	case bucketGCS:
		bucket, err := gcsblob.New(ctx, b.name, gcsblob.WithPrefix(b.prefix))
		if err != nil {
			return nil, err
		}
		return bucket, nil
	default:
		return nil, fmt.Errorf("offily: bucket kind %d is not remote", b.kind)
	}
}

// NewMemory creates a memory-only cache with no persistence. It is unbounded
// unless WithCapacity is given, in which case evicted entries are discarded.
func NewMemory[K comparable, V any](opts ...Option) *Cache[K, V] {
	opts = append([]Option{WithCapacity(0)}, opts...)
	c, _ := New[K, V](noopstore.New[K, V](), opts...)
	return c
}

// Open creates a cache backed by the persistent store called name under dir.
// The store's write-ahead log is replayed before Open returns. ctx is used
// only to set up remote buckets.
func Open[K comparable, V any](ctx context.Context, dir, name string, keys Codec[K], values Codec[V], opts ...Option) (*Cache[K, V], error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	comp, err := cfg.compression.compressor()
	if err != nil {
		return nil, err
	}
	logger := cfg.logger.Named("cold")

	var backing Store[K, V]
	if cfg.shards > 0 {
		shOpts := []shardedstore.Option{
			shardedstore.WithCompressor(comp),
			shardedstore.WithSync(cfg.syncWrites),
			shardedstore.WithLogger(logger),
			shardedstore.WithStats(cfg.stats),
		}
		if cfg.timeout > 0 {
			shOpts = append(shOpts, shardedstore.WithTimeout(cfg.timeout))
		}
		if cfg.bucket.remote() {
			shOpts = append(shOpts, shardedstore.WithBucket(func(int) (blob.Bucket, error) {
				return cfg.bucket.open(ctx)
			}))
		}

		s, err := shardedstore.New(dir, name, cfg.shards, keys, values, shOpts...)
		if err != nil {
			return nil, err
		}
		backing = s
	} else {
		kvOpts := []kvstore.Option{
			kvstore.WithIdentifier(cfg.id),
			kvstore.WithCompressor(comp),
			kvstore.WithSync(cfg.syncWrites),
			kvstore.WithLogger(logger),
			kvstore.WithStats(cfg.stats),
		}
		if cfg.timeout > 0 {
			kvOpts = append(kvOpts, kvstore.WithTimeout(cfg.timeout))
		}
		if cfg.bucket.remote() {
			b, err := cfg.bucket.open(ctx)
			if err != nil {
				return nil, fmt.Errorf("offily: opening bucket: %w", err)
			}
			kvOpts = append(kvOpts, kvstore.WithBucket(b))
		}

		s, err := kvstore.New(dir, name, keys, values, kvOpts...)
		if err != nil {
			return nil, err
		}
		backing = s
	}

	return New(backing, opts...)
}
