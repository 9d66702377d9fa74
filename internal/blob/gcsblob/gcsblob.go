// Package gcsblob implements a bucket backed by Google Cloud Storage.
package gcsblob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/steviemul/offily/internal/blob"
)

// Compile-time check that Bucket implements blob.Bucket.
var _ blob.Bucket = (*Bucket)(nil)

// Bucket is a Google Cloud Storage bucket, optionally scoped to a prefix.
type Bucket struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
}

// Option configures a Bucket.
type Option func(*Bucket)

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(b *Bucket) {
		b.prefix = strings.TrimSuffix(prefix, "/")
		if b.prefix != "" {
			b.prefix += "/"
		}
	}
}

// New creates a GCS bucket handle. The bucket must already exist.
func New(ctx context.Context, bucketName string, opts ...Option) (*Bucket, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}
	return newBucket(client, bucketName, opts...), nil
}

func newBucket(client *storage.Client, bucketName string, opts ...Option) *Bucket {
	b := &Bucket{
		client: client,
		bucket: client.Bucket(bucketName),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Read returns the content of the named object.
func (b *Bucket) Read(ctx context.Context, name string) ([]byte, error) {
	reader, err := b.bucket.Object(b.key(name)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, blob.ErrNotFound
		}
		return nil, fmt.Errorf("creating reader: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading object: %w", err)
	}
	return data, nil
}

// Write uploads data under name. The object becomes visible only when the
// writer is closed successfully.
func (b *Bucket) Write(ctx context.Context, name string, data []byte) error {
	w := b.bucket.Object(b.key(name)).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("writing object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing object: %w", err)
	}
	return nil
}

// Delete removes the named object.
func (b *Bucket) Delete(ctx context.Context, name string) error {
	err := b.bucket.Object(b.key(name)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("deleting object: %w", err)
	}
	return nil
}

// Close releases resources.
func (b *Bucket) Close() error {
	return b.client.Close()
}

// key returns the full object key for name.
func (b *Bucket) key(name string) string {
	return b.prefix + name
}
