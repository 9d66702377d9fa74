// Package lrustore implements the bounded, recency-ordered in-memory tier.
//
// A Store owns a capacity and a list of eviction listeners and wraps a plain
// recency-ordered map (simplelru). When a Put pushes the store above its
// capacity, the least recently used entry is removed and every listener is
// told about it, in registration order, before Put returns.
//
// A Store is not safe for concurrent use; callers serialize access.
package lrustore

import (
	"fmt"
	"math"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"go.uber.org/zap"

	"github.com/steviemul/offily/internal/store"
)

// Listener receives eviction notifications.
type Listener[K comparable, V any] interface {
	OnEvict(key K, value V) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc[K comparable, V any] func(key K, value V) error

// OnEvict calls f(key, value).
func (f ListenerFunc[K, V]) OnEvict(key K, value V) error { return f(key, value) }

// Entry is a key/value pair held by the store.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Option configures a Store.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger used to report listener failures.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Store is a capacity-bounded LRU map with synchronous eviction notification.
type Store[K comparable, V any] struct {
	lru       *simplelru.LRU[K, V]
	capacity  int
	listeners []Listener[K, V]
	logger    *zap.Logger

	// Written by the simplelru callback while adding is set, so callbacks
	// fired by Remove and Purge never retain a value.
	adding  bool
	evicted Entry[K, V]
}

// New creates a Store holding at most capacity entries.
// A capacity of zero or less means unbounded: nothing is ever evicted.
func New[K comparable, V any](capacity int, opts ...Option) *Store[K, V] {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store[K, V]{
		capacity: capacity,
		logger:   o.logger,
	}

	size := capacity
	if size <= 0 {
		size = math.MaxInt
	}
	lru, err := simplelru.NewLRU[K, V](size, s.capture)
	if err != nil {
		// Unreachable: size is always positive.
		panic(err)
	}
	s.lru = lru
	return s
}

// AddListener registers l. Listeners run in registration order.
func (s *Store[K, V]) AddListener(l Listener[K, V]) {
	s.listeners = append(s.listeners, l)
}

// Capacity returns the configured capacity, or 0 when unbounded.
func (s *Store[K, V]) Capacity() int {
	if s.capacity <= 0 {
		return 0
	}
	return s.capacity
}

// Put stores value under key, marks it most recently used and returns the
// previous value. If the store grows past capacity, exactly one entry (the
// least recently used) is evicted and listeners are notified before Put
// returns.
func (s *Store[K, V]) Put(key K, value V) (V, bool) {
	prev, had := s.lru.Peek(key)
	s.adding = true
	evicted := s.lru.Add(key, value)
	s.adding = false
	ev := s.evicted
	s.evicted = Entry[K, V]{}
	if evicted {
		s.notify(ev)
	}
	return prev, had
}

// Get returns the value for key and marks it most recently used.
func (s *Store[K, V]) Get(key K) (V, bool) {
	return s.lru.Get(key)
}

// Contains reports whether key is present without touching recency.
func (s *Store[K, V]) Contains(key K) bool {
	return s.lru.Contains(key)
}

// Remove deletes key without notifying listeners.
func (s *Store[K, V]) Remove(key K) (V, bool) {
	v, ok := s.lru.Peek(key)
	if ok {
		s.lru.Remove(key)
	}
	return v, ok
}

// Clear deletes every entry without notifying listeners.
func (s *Store[K, V]) Clear() {
	s.lru.Purge()
}

// Len returns the number of entries.
func (s *Store[K, V]) Len() int {
	return s.lru.Len()
}

// Keys returns the keys from least to most recently used.
func (s *Store[K, V]) Keys() []K {
	return s.lru.Keys()
}

// Drain removes every entry without notifying listeners and returns them from
// least to most recently used.
func (s *Store[K, V]) Drain() []Entry[K, V] {
	keys := s.lru.Keys()
	out := make([]Entry[K, V], 0, len(keys))
	for _, k := range keys {
		v, _ := s.lru.Peek(k)
		out = append(out, Entry[K, V]{Key: k, Value: v})
	}
	s.lru.Purge()
	return out
}

func (s *Store[K, V]) capture(key K, value V) {
	if s.adding {
		s.evicted = Entry[K, V]{Key: key, Value: value}
	}
}

// notify delivers ev to every listener. A failing listener is logged and
// does not stop the others; the eviction itself has already happened.
func (s *Store[K, V]) notify(ev Entry[K, V]) {
	for i, l := range s.listeners {
		if err := deliver(l, ev); err != nil {
			s.logger.Error("eviction listener failed",
				zap.Int("listener", i),
				zap.Any("key", ev.Key),
				zap.Error(err),
			)
		}
	}
}

func deliver[K comparable, V any](l Listener[K, V], ev Entry[K, V]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panicked: %v", r)
		}
	}()
	return l.OnEvict(ev.Key, ev.Value)
}

// AsStore exposes s through the store.Store contract. The returned store
// never fails; Close is a no-op.
func (s *Store[K, V]) AsStore() store.Store[K, V] {
	return adapter[K, V]{s}
}

type adapter[K comparable, V any] struct {
	s *Store[K, V]
}

func (a adapter[K, V]) Contains(key K) (bool, error) { return a.s.Contains(key), nil }

func (a adapter[K, V]) Get(key K) (V, bool, error) {
	v, ok := a.s.Get(key)
	return v, ok, nil
}

func (a adapter[K, V]) Put(key K, value V) (V, bool, error) {
	v, ok := a.s.Put(key, value)
	return v, ok, nil
}

func (a adapter[K, V]) Remove(key K) (V, bool, error) {
	v, ok := a.s.Remove(key)
	return v, ok, nil
}

func (a adapter[K, V]) Clear() error {
	a.s.Clear()
	return nil
}

func (a adapter[K, V]) Close() error { return nil }
