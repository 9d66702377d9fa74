package diskblob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/steviemul/offily/internal/blob"
)

func TestBucket_WriteReadDelete(t *testing.T) {
	b, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer b.Close()
	ctx := context.Background()

	if err := b.Write(ctx, "store/objects/abc", []byte("v1")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := b.Write(ctx, "store/objects/abc", []byte("v2")); err != nil {
		t.Fatalf("overwrite error = %v", err)
	}

	got, err := b.Read(ctx, "store/objects/abc")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("Read() = %q, want %q", got, "v2")
	}

	// No temporary files left behind.
	entries, err := os.ReadDir(filepath.Join(b.Root(), "store", "objects"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("object directory has %d entries, want 1", len(entries))
	}

	if err := b.Delete(ctx, "store/objects/abc"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := b.Delete(ctx, "store/objects/abc"); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
	if _, err := b.Read(ctx, "store/objects/abc"); !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("Read() after Delete error = %v, want ErrNotFound", err)
	}
}

func TestBucket_InvalidName(t *testing.T) {
	b, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"../escape", "/abs", ""} {
		if err := b.Write(context.Background(), name, []byte("x")); err == nil {
			t.Errorf("Write(%q) should fail", name)
		}
	}
}

func TestBucket_CancelledContext(t *testing.T) {
	b, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.Read(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Errorf("Read() error = %v, want context.Canceled", err)
	}
}

func TestNew_NotDirectory(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "file")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()

	if _, err := New(f.Name()); err == nil {
		t.Error("New() with file (not directory) should return error")
	}
}
