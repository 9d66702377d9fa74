package offily

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type session struct {
	User  string `json:"user"`
	Count int    `json:"count"`
}

func openSessions(t *testing.T, dir string, opts ...Option) *Cache[string, session] {
	t.Helper()
	c, err := Open(context.Background(), dir, "sessions", StringCodec{}, JSONCodec[session]{}, opts...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return c
}

func TestOpen_EvictedEntriesSurviveRestart(t *testing.T) {
	dir := t.TempDir()

	c := openSessions(t, dir, WithCapacity(2))
	for i, user := range []string{"ann", "bob", "cat"} {
		if _, _, err := c.Put(user, session{User: user, Count: i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sessions.log")); err != nil {
		t.Fatalf("write-ahead log missing: %v", err)
	}

	c = openSessions(t, dir, WithCapacity(2))
	defer c.Close()

	// ann was evicted to disk; bob and cat only lived in memory.
	s, ok, err := c.Get("ann")
	if err != nil || !ok || s != (session{User: "ann", Count: 0}) {
		t.Errorf("Get(ann) = %+v, %v, %v", s, ok, err)
	}
	if ok, _ := c.Contains("bob"); ok {
		t.Error("unflushed entry bob survived restart")
	}
}

func TestOpen_FlushOnClose(t *testing.T) {
	dir := t.TempDir()
	users := []string{"ann", "bob", "cat", "dan"}

	c := openSessions(t, dir, WithCapacity(2), WithFlushOnClose(true))
	for i, user := range users {
		if _, _, err := c.Put(user, session{User: user, Count: i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	c = openSessions(t, dir, WithCapacity(2))
	defer c.Close()
	for i, user := range users {
		s, ok, err := c.Get(user)
		if err != nil || !ok || s.Count != i {
			t.Errorf("Get(%q) = %+v, %v, %v", user, s, ok, err)
		}
	}
}

func TestOpen_MissingObjectDoesNotPinKey(t *testing.T) {
	dir := t.TempDir()
	c := openSessions(t, dir, WithCapacity(1))
	defer c.Close()

	for _, user := range []string{"ann", "bob"} {
		if _, _, err := c.Put(user, session{User: user}); err != nil {
			t.Fatal(err)
		}
	}
	// ann is in the backing store now; lose its object.
	objects, err := filepath.Glob(filepath.Join(dir, "sessions", "objects", "*"))
	if err != nil || len(objects) != 1 {
		t.Fatalf("objects = %v, %v; want one", objects, err)
	}
	if err := os.Remove(objects[0]); err != nil {
		t.Fatal(err)
	}

	if _, _, err := c.Put("ann", session{User: "ann", Count: 9}); err != nil {
		t.Fatalf("Put(ann) error = %v", err)
	}
	if _, ok, err := c.Remove("ann"); err != nil || !ok {
		t.Fatalf("Remove(ann) = %v, %v; want true, nil", ok, err)
	}
	if ok, _ := c.Contains("ann"); ok {
		t.Error("ann still present after Remove")
	}
}

func TestOpen_RemoveIsDurable(t *testing.T) {
	dir := t.TempDir()

	c := openSessions(t, dir, WithCapacity(1))
	c.Put("ann", session{User: "ann"})
	c.Put("bob", session{User: "bob"}) // ann -> disk
	if _, ok, err := c.Remove("ann"); err != nil || !ok {
		t.Fatalf("Remove(ann) = %v, %v", ok, err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	c = openSessions(t, dir, WithCapacity(1))
	defer c.Close()
	if ok, _ := c.Contains("ann"); ok {
		t.Error("removed entry ann came back after restart")
	}
}

func TestOpen_Locked(t *testing.T) {
	dir := t.TempDir()
	c := openSessions(t, dir)
	defer c.Close()

	_, err := Open(context.Background(), dir, "sessions", StringCodec{}, JSONCodec[session]{})
	if !errors.Is(err, ErrLocked) {
		t.Errorf("second Open() error = %v, want ErrLocked", err)
	}
}

func TestOpen_Identifier(t *testing.T) {
	dir := t.TempDir()
	c := openSessions(t, dir, WithIdentifier(7))
	defer c.Close()

	if _, err := os.Stat(filepath.Join(dir, "sessions-7.log")); err != nil {
		t.Errorf("identified log missing: %v", err)
	}
}

func TestOpen_Sharded(t *testing.T) {
	dir := t.TempDir()

	c := openSessions(t, dir, WithCapacity(1), WithShards(4), WithCompression(CompressionZstd), WithFlushOnClose(true))
	for _, user := range []string{"ann", "bob", "cat", "dan", "eve"} {
		if _, _, err := c.Put(user, session{User: user}); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	_, err := Open(context.Background(), dir, "sessions", StringCodec{}, JSONCodec[session]{}, WithShards(2), WithCompression(CompressionZstd))
	if !errors.Is(err, ErrLayoutMismatch) {
		t.Fatalf("Open() with 2 shards error = %v, want ErrLayoutMismatch", err)
	}

	c = openSessions(t, dir, WithShards(4), WithCompression(CompressionZstd))
	defer c.Close()
	if s, ok, err := c.Get("eve"); err != nil || !ok || s.User != "eve" {
		t.Errorf("Get(eve) = %+v, %v, %v", s, ok, err)
	}
}

func TestOpen_UnknownCompression(t *testing.T) {
	_, err := Open(context.Background(), t.TempDir(), "sessions", StringCodec{}, StringCodec{}, WithCompression("lz4"))
	if err == nil {
		t.Error("Open() accepted an unknown compression")
	}
}
