// Package offily provides a two-tier key/value cache: a capacity-bounded,
// recency-ordered in-memory tier in front of a durable backing store.
//
// Entries evicted from memory are written to the backing store, and a later
// Get moves them back. A key lives in at most one tier at a time.
//
// Example usage:
//
//	cache, err := offily.Open(ctx, "/var/lib/myapp", "sessions",
//	    offily.StringCodec{}, offily.JSONCodec[Session]{},
//	    offily.WithCapacity(10000),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Close()
//
//	if _, _, err := cache.Put("abc", session); err != nil {
//	    log.Fatal(err)
//	}
//	s, ok, err := cache.Get("abc")
package offily

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/steviemul/offily/internal/stats"
	"github.com/steviemul/offily/internal/store"
	"github.com/steviemul/offily/internal/store/lrustore"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrClosed indicates the cache has been closed.
	ErrClosed = errors.New("offily: cache closed")

	// ErrNoStore indicates no backing store was provided.
	ErrNoStore = errors.New("offily: no backing store provided")
)

// EvictionPersistError records an evicted entry that could not be written to
// the backing store. It is logged and counted, never returned: the entry is
// lost but the Put that caused the eviction succeeds.
type EvictionPersistError struct {
	Key string
	Err error
}

func (e *EvictionPersistError) Error() string {
	return fmt.Sprintf("offily: persisting evicted key %q: %v", e.Key, e.Err)
}

func (e *EvictionPersistError) Unwrap() error { return e.Err }

// Compile-time check that Cache can back another Cache.
var _ Store[string, string] = (*Cache[string, string])(nil)

// Cache is a two-tier cache. It is safe for concurrent use; one mutex
// serializes all operations.
type Cache[K comparable, V any] struct {
	mu           sync.Mutex
	hot          *lrustore.Store[K, V]
	cold         store.Store[K, V]
	flushOnClose bool
	logger       *zap.Logger
	stats        stats.Collector
	counts       Stats
	closed       bool
}

// Stats is a snapshot of cache activity since the cache was created.
type Stats struct {
	HotHits         int64
	ColdHits        int64
	Misses          int64
	Evictions       int64
	PersistFailures int64
	HotSize         int
}

// HitRate returns the fraction of Gets served by either tier.
func (s Stats) HitRate() float64 {
	total := s.HotHits + s.ColdHits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.HotHits+s.ColdHits) / float64(total)
}

// New creates a Cache in front of backing. The cache owns backing and closes
// it on Close.
func New[K comparable, V any](backing Store[K, V], opts ...Option) (*Cache[K, V], error) {
	if backing == nil {
		return nil, ErrNoStore
	}

	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	c := &Cache[K, V]{
		cold:         backing,
		flushOnClose: cfg.flushOnClose,
		logger:       cfg.logger,
		stats:        cfg.stats,
	}
	c.hot = lrustore.New[K, V](cfg.capacity, lrustore.WithLogger(cfg.logger.Named("hot")))
	c.hot.AddListener(lrustore.ListenerFunc[K, V](c.persist))

	c.logger.Info("cache initialized",
		zap.Int("capacity", c.hot.Capacity()),
		zap.Bool("flushOnClose", c.flushOnClose),
	)
	return c, nil
}

// Contains reports whether key is in either tier. It moves nothing.
func (c *Cache[K, V]) Contains(key K) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, ErrClosed
	}
	if c.hot.Contains(key) {
		return true, nil
	}
	return c.cold.Contains(key)
}

// Get returns the value for key. A value found in the backing store is
// removed from it and re-admitted to memory, which may evict another entry.
func (c *Cache[K, V]) Get(key K) (V, bool, error) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return zero, false, ErrClosed
	}

	if v, ok := c.hot.Get(key); ok {
		c.counts.HotHits++
		c.stats.IncCounter(stats.MetricHotHits, 1)
		c.logger.Debug("hot hit", zap.Any("key", key))
		return v, true, nil
	}

	v, ok, err := c.cold.Remove(key)
	if err != nil {
		return zero, false, err
	}
	if !ok {
		c.counts.Misses++
		c.stats.IncCounter(stats.MetricMisses, 1)
		c.logger.Debug("miss", zap.Any("key", key))
		return zero, false, nil
	}

	c.counts.ColdHits++
	c.stats.IncCounter(stats.MetricColdHits, 1)
	c.logger.Debug("cold hit", zap.Any("key", key))

	c.hot.Put(key, v)
	c.stats.SetGauge(stats.MetricHotSize, int64(c.hot.Len()))
	return v, true, nil
}

// Put stores value under key in memory and returns the previous value from
// whichever tier held it. A copy in the backing store is removed first; if
// that fails the failure is logged and the value is stored anyway.
func (c *Cache[K, V]) Put(key K, value V) (V, bool, error) {
	var (
		prev V
		had  bool
	)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return prev, false, ErrClosed
	}

	if !c.hot.Contains(key) {
		cv, ok, err := c.cold.Remove(key)
		if err != nil {
			c.logger.Warn("removing stale backing copy", zap.Any("key", key), zap.Error(err))
		}
		prev, had = cv, ok
	}

	if hv, ok := c.hot.Put(key, value); ok {
		prev, had = hv, true
	}
	c.stats.SetGauge(stats.MetricHotSize, int64(c.hot.Len()))
	return prev, had, nil
}

// Remove deletes key from whichever tier holds it and returns its value.
func (c *Cache[K, V]) Remove(key K) (V, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		var zero V
		return zero, false, ErrClosed
	}

	if v, ok := c.hot.Remove(key); ok {
		c.stats.SetGauge(stats.MetricHotSize, int64(c.hot.Len()))
		return v, true, nil
	}
	return c.cold.Remove(key)
}

// Clear empties both tiers.
func (c *Cache[K, V]) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.hot.Clear()
	c.stats.SetGauge(stats.MetricHotSize, 0)
	if err := c.cold.Clear(); err != nil {
		return fmt.Errorf("clearing backing store: %w", err)
	}
	return nil
}

// Flush moves every in-memory entry to the backing store, least recently
// used first. On failure the entries not yet written stay in memory.
func (c *Cache[K, V]) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	return c.flush()
}

func (c *Cache[K, V]) flush() error {
	entries := c.hot.Drain()
	defer func() { c.stats.SetGauge(stats.MetricHotSize, int64(c.hot.Len())) }()

	for i, e := range entries {
		if _, _, err := c.cold.Put(e.Key, e.Value); err != nil {
			for _, rest := range entries[i:] {
				c.hot.Put(rest.Key, rest.Value)
			}
			return fmt.Errorf("flushing to backing store: %w", err)
		}
	}

	if len(entries) > 0 {
		c.logger.Info("flushed memory tier", zap.Int("entries", len(entries)))
	}
	return nil
}

// Close flushes memory to the backing store when WithFlushOnClose is set and
// closes the backing store. Closing twice is a no-op.
func (c *Cache[K, V]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var flushErr error
	if c.flushOnClose {
		flushErr = c.flush()
	}
	if err := c.cold.Close(); err != nil {
		return errors.Join(flushErr, fmt.Errorf("closing backing store: %w", err))
	}
	if flushErr != nil {
		return flushErr
	}

	c.logger.Info("cache closed")
	return nil
}

// Stats returns a snapshot of cache activity.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.counts
	s.HotSize = c.hot.Len()
	return s
}

// persist writes an evicted entry to the backing store. It runs inside the
// Put or Get that caused the eviction, with c.mu held.
func (c *Cache[K, V]) persist(key K, value V) error {
	c.counts.Evictions++
	c.stats.IncCounter(stats.MetricEvictions, 1)

	if _, _, err := c.cold.Put(key, value); err != nil {
		perr := &EvictionPersistError{Key: fmt.Sprint(key), Err: err}
		c.counts.PersistFailures++
		c.stats.IncCounter(stats.MetricPersistFail, 1)
		c.logger.Error("dropping evicted entry", zap.Error(perr))
		return nil
	}

	c.logger.Debug("evicted entry persisted", zap.Any("key", key))
	return nil
}
