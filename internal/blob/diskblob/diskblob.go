// Package diskblob implements a bucket backed by a local directory.
package diskblob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/steviemul/offily/internal/blob"
)

// Compile-time check that Bucket implements blob.Bucket.
var _ blob.Bucket = (*Bucket)(nil)

// Bucket stores each object as a file under a root directory.
type Bucket struct {
	root string
}

// New creates a bucket rooted at the given directory, creating it if needed.
func New(root string) (*Bucket, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating root directory: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	return &Bucket{root: root}, nil
}

// Root returns the bucket's root directory.
func (b *Bucket) Root() string {
	return b.root
}

// Read returns the content of the named object.
func (b *Bucket) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := b.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, blob.ErrNotFound
		}
		return nil, fmt.Errorf("reading object: %w", err)
	}
	return data, nil
}

// Write stores data under name. The file is written to a temporary sibling
// and renamed into place.
func (b *Bucket) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := b.path(name)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating object directory: %w", err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing object: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publishing object: %w", err)
	}
	return nil
}

// Delete removes the named object.
func (b *Bucket) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := b.path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting object: %w", err)
	}
	return nil
}

// Close releases any resources held by the bucket.
func (b *Bucket) Close() error {
	return nil
}

// path maps an object name to a file path, rejecting names that escape root.
func (b *Bucket) path(name string) (string, error) {
	local := filepath.FromSlash(name)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return filepath.Join(b.root, local), nil
}
