// Package shardedstore spreads keys over several persistent stores.
//
// Shard i of a store called name is a kvstore with identifier i, so its
// files are <name>-<i>.log, <name>-<i>.lock and objects under <name>-<i>/.
// A manifest pins the shard count, strategy and compression; reopening with
// a different layout would route keys to the wrong shard and is refused.
package shardedstore

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/steviemul/offily/internal/blob"
	"github.com/steviemul/offily/internal/codec"
	"github.com/steviemul/offily/internal/compress"
	"github.com/steviemul/offily/internal/compress/noopcompress"
	"github.com/steviemul/offily/internal/shard"
	"github.com/steviemul/offily/internal/shard/fnvshard"
	"github.com/steviemul/offily/internal/stats"
	"github.com/steviemul/offily/internal/store"
	"github.com/steviemul/offily/internal/store/kvstore"
)

// ErrLayoutMismatch is returned when a store is reopened with a layout that
// differs from its manifest.
var ErrLayoutMismatch = errors.New("shardedstore: layout mismatch")

// Compile-time check that Store implements store.Store.
var _ store.Store[string, []byte] = (*Store[string, []byte])(nil)

// Option configures a Store.
type Option func(*options)

type options struct {
	strategy   shard.Strategy
	compressor compress.Compressor
	bucket     func(id int) (blob.Bucket, error)
	sync       bool
	timeout    time.Duration
	logger     *zap.Logger
	stats      stats.Collector
}

// WithStrategy sets the shard strategy. Defaults to FNV-1a.
func WithStrategy(s shard.Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithCompressor sets the compressor used by every shard.
func WithCompressor(c compress.Compressor) Option {
	return func(o *options) { o.compressor = c }
}

// WithBucket sets a factory returning the bucket for shard id.
// Defaults to a directory bucket at the root.
func WithBucket(fn func(id int) (blob.Bucket, error)) Option {
	return func(o *options) { o.bucket = fn }
}

// WithSync makes every shard fsync its WAL appends.
func WithSync(sync bool) Option {
	return func(o *options) { o.sync = sync }
}

// WithTimeout bounds each bucket operation of every shard.
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

// Store routes each key to one of several persistent stores.
type Store[K comparable, V any] struct {
	keys     codec.Codec[K]
	strategy shard.Strategy
	shards   []*kvstore.Store[K, V]
}

// New opens the sharded store called name under root with the given number
// of shards.
func New[K comparable, V any](root, name string, shards int, keys codec.Codec[K], values codec.Codec[V], opts ...Option) (*Store[K, V], error) {
	if shards < 1 {
		return nil, fmt.Errorf("shardedstore: shard count %d, must be at least 1", shards)
	}

	o := options{
		strategy:   fnvshard.New(),
		compressor: noopcompress.New(),
		timeout:    kvstore.DefaultTimeout,
		logger:     zap.NewNop(),
		stats:      stats.NewNoop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("shardedstore: creating root directory: %w", err)
	}
	if err := ensureManifest(root, name, &Manifest{
		Version:     manifestVersion,
		Shards:      shards,
		Strategy:    o.strategy.Name(),
		Compression: o.compressor.Extension(),
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	s := &Store[K, V]{
		keys:     keys,
		strategy: o.strategy,
		shards:   make([]*kvstore.Store[K, V], 0, shards),
	}
	for i := range shards {
		kvOpts := []kvstore.Option{
			kvstore.WithIdentifier(i),
			kvstore.WithCompressor(o.compressor),
			kvstore.WithSync(o.sync),
			kvstore.WithTimeout(o.timeout),
			kvstore.WithLogger(o.logger),
			kvstore.WithStats(o.stats),
		}
		if o.bucket != nil {
			b, err := o.bucket(i)
			if err != nil {
				s.Close()
				return nil, fmt.Errorf("shardedstore: opening bucket for shard %d: %w", i, err)
			}
			kvOpts = append(kvOpts, kvstore.WithBucket(b))
		}

		kv, err := kvstore.New(root, name, keys, values, kvOpts...)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("shardedstore: opening shard %d: %w", i, err)
		}
		s.shards = append(s.shards, kv)
	}

	o.logger.Info("sharded store opened",
		zap.String("name", name),
		zap.Int("shards", shards),
		zap.String("strategy", o.strategy.Name()),
	)
	return s, nil
}

func ensureManifest(root, name string, want *Manifest) error {
	m, err := ReadManifest(root, name)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return WriteManifest(root, name, want)
	case err != nil:
		return fmt.Errorf("shardedstore: %w", err)
	}
	return m.check(want)
}

// shardFor returns the shard owning key.
func (s *Store[K, V]) shardFor(op string, key K) (*kvstore.Store[K, V], error) {
	ek, err := s.keys.Encode(key)
	if err != nil {
		return nil, store.Errorf(op, fmt.Sprint(key), err)
	}
	return s.shards[s.strategy.ShardID(ek, len(s.shards))], nil
}

func (s *Store[K, V]) Contains(key K) (bool, error) {
	kv, err := s.shardFor("contains", key)
	if err != nil {
		return false, err
	}
	return kv.Contains(key)
}

func (s *Store[K, V]) Get(key K) (V, bool, error) {
	kv, err := s.shardFor("get", key)
	if err != nil {
		var zero V
		return zero, false, err
	}
	return kv.Get(key)
}

func (s *Store[K, V]) Put(key K, value V) (V, bool, error) {
	kv, err := s.shardFor("put", key)
	if err != nil {
		var zero V
		return zero, false, err
	}
	return kv.Put(key, value)
}

func (s *Store[K, V]) Remove(key K) (V, bool, error) {
	kv, err := s.shardFor("remove", key)
	if err != nil {
		var zero V
		return zero, false, err
	}
	return kv.Remove(key)
}

// Clear clears every shard concurrently.
func (s *Store[K, V]) Clear() error {
	var g errgroup.Group
	for _, kv := range s.shards {
		g.Go(kv.Clear)
	}
	return g.Wait()
}

// Close closes every shard. Closing twice is a no-op.
func (s *Store[K, V]) Close() error {
	errs := make([]error, 0, len(s.shards))
	for _, kv := range s.shards {
		errs = append(errs, kv.Close())
	}
	return errors.Join(errs...)
}

// Len returns the number of keys across all shards.
func (s *Store[K, V]) Len() int {
	n := 0
	for _, kv := range s.shards {
		n += kv.Len()
	}
	return n
}

// Shards returns the number of shards.
func (s *Store[K, V]) Shards() int {
	return len(s.shards)
}

// ShardLen returns the number of keys in shard i.
func (s *Store[K, V]) ShardLen(i int) int {
	return s.shards[i].Len()
}
