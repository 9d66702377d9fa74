// Package store defines the key/value store contract shared by every cache tier.
package store

import (
	"errors"
	"fmt"
)

// Sentinel errors for well-defined store conditions.
var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store: closed")

	// ErrLocked is returned when another process holds the store's lock.
	ErrLocked = errors.New("store: locked by another process")
)

// Store defines the interface implemented by every tier and by the cache
// orchestrator itself, so caches can be nested as backing stores.
//
// Absence is reported through the boolean result, never through an error.
type Store[K comparable, V any] interface {
	// Contains reports whether key is present. It never mutates the store.
	Contains(key K) (bool, error)

	// Get returns the value stored under key.
	Get(key K) (V, bool, error)

	// Put stores value under key and returns the previous value, if any.
	Put(key K, value V) (V, bool, error)

	// Remove deletes key and returns the removed value, if any.
	Remove(key K) (V, bool, error)

	// Clear removes every entry.
	Clear() error

	// Close releases any resources held by the store.
	Close() error
}

// Error records a failed store operation.
type Error struct {
	Op  string // "contains", "get", "put", "remove", "clear", "close", "open"
	Key string // printable form of the key, empty for whole-store operations
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf wraps err as an *Error for op on key. It returns nil if err is nil
// and passes existing *Error values through unchanged.
func Errorf(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Key: key, Err: err}
}
