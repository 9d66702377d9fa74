package shardedstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// manifestVersion is bumped when the on-disk layout changes.
const manifestVersion = 1

// Manifest records the layout a sharded store was created with.
type Manifest struct {
	Version     int       `json:"version"`
	Shards      int       `json:"shards"`
	Strategy    string    `json:"strategy"`
	Compression string    `json:"compression"`
	CreatedAt   time.Time `json:"created_at"`
}

// ManifestPath returns the manifest location for name under root.
func ManifestPath(root, name string) string {
	return filepath.Join(root, name+".manifest.json")
}

// WriteManifest writes m for name under root.
func WriteManifest(root, name string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(ManifestPath(root, name), data, 0644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// ReadManifest reads the manifest for name under root. It returns
// os.ErrNotExist (wrapped) when the store has never been created.
func ReadManifest(root, name string) (*Manifest, error) {
	data, err := os.ReadFile(ManifestPath(root, name))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// check compares a stored manifest with the requested layout.
func (m *Manifest) check(want *Manifest) error {
	var errs []error
	if m.Version != want.Version {
		errs = append(errs, fmt.Errorf("version %d, want %d", m.Version, want.Version))
	}
	if m.Shards != want.Shards {
		errs = append(errs, fmt.Errorf("%d shards, want %d", m.Shards, want.Shards))
	}
	if m.Strategy != want.Strategy {
		errs = append(errs, fmt.Errorf("strategy %q, want %q", m.Strategy, want.Strategy))
	}
	if m.Compression != want.Compression {
		errs = append(errs, fmt.Errorf("compression %q, want %q", m.Compression, want.Compression))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrLayoutMismatch, errors.Join(errs...))
	}
	return nil
}
