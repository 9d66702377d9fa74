// Package noopstore provides a backing store that keeps nothing.
//
// A cache fronting a Store from this package behaves like a plain map: evicted
// entries are discarded and lookups never fall through to a second tier.
package noopstore

import "github.com/steviemul/offily/internal/store"

// Store always misses and discards writes.
type Store[K comparable, V any] struct{}

// Compile-time check that Store implements store.Store.
var _ store.Store[string, int] = Store[string, int]{}

// New returns a no-op store.
func New[K comparable, V any]() Store[K, V] {
	return Store[K, V]{}
}

func (Store[K, V]) Contains(K) (bool, error) { return false, nil }

func (Store[K, V]) Get(K) (V, bool, error) {
	var zero V
	return zero, false, nil
}

func (Store[K, V]) Put(K, V) (V, bool, error) {
	var zero V
	return zero, false, nil
}

func (Store[K, V]) Remove(K) (V, bool, error) {
	var zero V
	return zero, false, nil
}

func (Store[K, V]) Clear() error { return nil }

func (Store[K, V]) Close() error { return nil }
