// Package memstore provides a map-backed store.
//
// It is used as a volatile backing tier and as a test double; Reads and
// Writes count calls so tests can assert how often a tier was touched.
package memstore

import (
	"sync"
	"sync/atomic"

	"github.com/steviemul/offily/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store[string, int] = (*Store[string, int])(nil)

// Store is an in-memory store safe for concurrent use.
type Store[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
	closed  bool

	reads  atomic.Int64
	writes atomic.Int64
}

// New creates a new in-memory store.
func New[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{
		entries: make(map[K]V),
	}
}

// Contains reports whether key is present.
func (s *Store[K, V]) Contains(key K) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, store.Errorf("contains", "", store.ErrClosed)
	}
	_, ok := s.entries[key]
	return ok, nil
}

// Get returns the value for key.
func (s *Store[K, V]) Get(key K) (V, bool, error) {
	s.reads.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		var zero V
		return zero, false, store.Errorf("get", "", store.ErrClosed)
	}
	v, ok := s.entries[key]
	return v, ok, nil
}

// Put stores value under key.
func (s *Store[K, V]) Put(key K, value V) (V, bool, error) {
	s.writes.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		var zero V
		return zero, false, store.Errorf("put", "", store.ErrClosed)
	}
	prev, had := s.entries[key]
	s.entries[key] = value
	return prev, had, nil
}

// Remove deletes key. It counts as a read: it is how a cache pulls entries
// back from this tier.
func (s *Store[K, V]) Remove(key K) (V, bool, error) {
	s.reads.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		var zero V
		return zero, false, store.Errorf("remove", "", store.ErrClosed)
	}
	v, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	return v, ok, nil
}

// Clear removes every entry.
func (s *Store[K, V]) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.Errorf("clear", "", store.ErrClosed)
	}
	clear(s.entries)
	return nil
}

// Close marks the store closed. Closing twice is a no-op.
func (s *Store[K, V]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Len returns the number of entries.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Reads returns how many Get and Remove calls the store has served.
func (s *Store[K, V]) Reads() int64 { return s.reads.Load() }

// Writes returns how many Put calls the store has served.
func (s *Store[K, V]) Writes() int64 { return s.writes.Load() }
