// Package blob defines the object bucket the persistent store keeps values in.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an object does not exist in the bucket.
var ErrNotFound = errors.New("blob: object not found")

// Bucket is a flat namespace of immutable objects. Names are slash-separated
// relative paths.
type Bucket interface {
	// Read returns the content of the named object, or ErrNotFound.
	Read(ctx context.Context, name string) ([]byte, error)

	// Write creates or replaces the named object. Readers never observe a
	// partially written object.
	Write(ctx context.Context, name string, data []byte) error

	// Delete removes the named object. Deleting a missing object succeeds.
	Delete(ctx context.Context, name string) error

	// Close releases any resources held by the bucket.
	Close() error
}
