// Package kvstore implements the persistent backing store.
//
// Every Put and Remove is appended to a write-ahead log before the value is
// written to (or deleted from) an object bucket. On open the log is replayed
// and the bucket reconciled with it, so a crash between the two steps is
// repaired before the store serves requests.
//
// Layout under the root directory, for name "sessions" and identifier 3:
//
//	sessions-3.log                 write-ahead log
//	sessions-3.lock                process lock
//	sessions-3/objects/<sha256>    one object per key (in the bucket)
package kvstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/steviemul/offily/internal/blob"
	"github.com/steviemul/offily/internal/blob/diskblob"
	"github.com/steviemul/offily/internal/codec"
	"github.com/steviemul/offily/internal/compress"
	"github.com/steviemul/offily/internal/stats"
	"github.com/steviemul/offily/internal/store"
	"github.com/steviemul/offily/internal/wal"
)

// Compile-time check that Store implements store.Store.
var _ store.Store[string, []byte] = (*Store[string, []byte])(nil)

// Store is a durable store logging every mutation through a write-ahead log.
// It is safe for concurrent use.
type Store[K comparable, V any] struct {
	base       string
	keys       codec.Codec[K]
	values     codec.Codec[V]
	bucket     blob.Bucket
	compressor compress.Compressor
	log        *wal.Log
	lock       *flock.Flock
	timeout    time.Duration
	logger     *zap.Logger
	stats      stats.Collector

	// mu orders each WAL append before the matching index mutation.
	mu     sync.RWMutex
	index  map[string]struct{} // encoded keys
	closed bool
}

// New opens the persistent store called name under root, replaying its
// write-ahead log before returning.
func New[K comparable, V any](root, name string, keys codec.Codec[K], values codec.Codec[V], opts ...Option) (*Store[K, V], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	base := strings.TrimSuffix(wal.Filename(name, o.id), "."+wal.Extension)
	s := &Store[K, V]{
		base:       base,
		keys:       keys,
		values:     values,
		bucket:     o.bucket,
		compressor: o.compressor,
		timeout:    o.timeout,
		logger:     o.logger.With(zap.String("store", base)),
		stats:      o.stats,
		index:      make(map[string]struct{}),
	}

	if err := s.open(root, name, o); err != nil {
		s.release()
		return nil, store.Errorf("open", "", err)
	}
	return s, nil
}

func (s *Store[K, V]) open(root, name string, o options) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("creating root directory: %w", err)
	}

	s.lock = flock.New(filepath.Join(root, s.base+".lock"))
	locked, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		s.lock = nil
		return store.ErrLocked
	}

	if s.bucket == nil {
		b, err := diskblob.New(root)
		if err != nil {
			return fmt.Errorf("opening bucket: %w", err)
		}
		s.bucket = b
	}

	s.log, err = wal.Open(root, name,
		wal.WithIdentifier(o.id),
		wal.WithSync(o.sync),
		wal.WithLogger(s.logger),
		wal.WithStats(s.stats),
	)
	if err != nil {
		return err
	}

	return s.recover()
}

// recover replays the log into the index and brings the bucket in line with
// it: the latest PUT of each key is written, keys whose last record is a
// REMOVE are deleted.
func (s *Store[K, V]) recover() error {
	start := time.Now()

	type state struct {
		value   []byte
		present bool
	}
	latest := make(map[string]state)

	sum, err := s.log.Replay(func(r wal.Record) error {
		switch r.Op {
		case wal.OpPut:
			if len(r.Fields) != 2 {
				return fmt.Errorf("PUT record has %d fields, want 2", len(r.Fields))
			}
			latest[string(r.Key())] = state{value: r.Value(), present: true}
		case wal.OpRemove:
			if len(r.Fields) < 1 {
				return errors.New("REMOVE record has no key")
			}
			latest[string(r.Key())] = state{}
		}
		return nil
	})
	if err != nil {
		return err
	}

	g := new(errgroup.Group)
	g.SetLimit(reconcileWorkers)
	for ek, st := range latest {
		if st.present {
			s.index[ek] = struct{}{}
			g.Go(func() error { return s.restore(ek, st.value) })
		} else {
			g.Go(func() error { return s.deleteObject(ek) })
		}
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("reconciling bucket: %w", err)
	}

	s.stats.IncCounter(stats.MetricWALReplayed, int64(sum.Records))
	s.stats.SetGauge(stats.MetricColdSize, int64(len(s.index)))
	s.logger.Info("persistent store recovered",
		zap.Int("records", sum.Records),
		zap.Int("keys", len(s.index)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// restore writes the object for ek unless the bucket already holds it.
func (s *Store[K, V]) restore(ek string, value []byte) error {
	payload, err := compress.Compress(s.compressor, value)
	if err != nil {
		return err
	}

	ctx, cancel := s.context()
	defer cancel()

	name := s.objectName(ek)
	if existing, err := s.bucket.Read(ctx, name); err == nil && bytes.Equal(existing, payload) {
		return nil
	}
	return s.bucket.Write(ctx, name, payload)
}

// Contains reports whether key is stored. It reads only the in-memory index.
func (s *Store[K, V]) Contains(key K) (bool, error) {
	ek, err := s.keys.Encode(key)
	if err != nil {
		return false, store.Errorf("contains", fmt.Sprint(key), err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, store.Errorf("contains", fmt.Sprint(key), store.ErrClosed)
	}
	_, ok := s.index[string(ek)]
	return ok, nil
}

// Get returns the value stored under key without removing it.
func (s *Store[K, V]) Get(key K) (V, bool, error) {
	var zero V
	ek, err := s.keys.Encode(key)
	if err != nil {
		return zero, false, store.Errorf("get", fmt.Sprint(key), err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return zero, false, store.Errorf("get", fmt.Sprint(key), store.ErrClosed)
	}
	if _, ok := s.index[string(ek)]; !ok {
		return zero, false, nil
	}

	v, _, err := s.load(string(ek))
	if err != nil {
		return zero, false, store.Errorf("get", fmt.Sprint(key), err)
	}
	return v, true, nil
}

// Put logs and stores value under key, returning the previous value.
func (s *Store[K, V]) Put(key K, value V) (V, bool, error) {
	var zero V
	ek, err := s.keys.Encode(key)
	if err != nil {
		return zero, false, store.Errorf("put", fmt.Sprint(key), err)
	}
	ev, err := s.values.Encode(value)
	if err != nil {
		return zero, false, store.Errorf("put", fmt.Sprint(key), err)
	}
	payload, err := compress.Compress(s.compressor, ev)
	if err != nil {
		return zero, false, store.Errorf("put", fmt.Sprint(key), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return zero, false, store.Errorf("put", fmt.Sprint(key), store.ErrClosed)
	}

	var (
		prev V
		had  bool
	)
	if _, ok := s.index[string(ek)]; ok {
		// An unreadable previous value is overwritten, not reported.
		if prev, _, err = s.load(string(ek)); err != nil {
			s.logger.Warn("previous value unreadable", zap.String("key", fmt.Sprint(key)), zap.Error(err))
		} else {
			had = true
		}
	}

	if err := s.log.Put(ek, ev); err != nil {
		return zero, false, store.Errorf("put", fmt.Sprint(key), err)
	}

	ctx, cancel := s.context()
	defer cancel()
	if err := s.bucket.Write(ctx, s.objectName(string(ek)), payload); err != nil {
		return zero, false, store.Errorf("put", fmt.Sprint(key), s.abandon(ek, err))
	}

	s.index[string(ek)] = struct{}{}
	s.stats.SetGauge(stats.MetricColdSize, int64(len(s.index)))
	return prev, had, nil
}

// abandon withdraws a PUT whose object could not be written. The logged PUT
// is followed by a REMOVE so recovery does not bring the key back, and any
// previous object for the key is dropped with it.
func (s *Store[K, V]) abandon(ek []byte, cause error) error {
	if err := s.log.Remove(ek, nil); err != nil {
		return errors.Join(cause, err)
	}
	delete(s.index, string(ek))
	s.stats.SetGauge(stats.MetricColdSize, int64(len(s.index)))
	if err := s.deleteObject(string(ek)); err != nil {
		s.logger.Warn("deleting abandoned object", zap.Error(err))
	}
	return cause
}

// Remove logs the removal of key, deletes it and returns its value.
// If the stored value cannot be read the key is still removed and the read
// error is returned.
func (s *Store[K, V]) Remove(key K) (V, bool, error) {
	var zero V
	ek, err := s.keys.Encode(key)
	if err != nil {
		return zero, false, store.Errorf("remove", fmt.Sprint(key), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return zero, false, store.Errorf("remove", fmt.Sprint(key), store.ErrClosed)
	}
	if _, ok := s.index[string(ek)]; !ok {
		return zero, false, nil
	}

	v, ev, loadErr := s.load(string(ek))
	if err := s.log.Remove(ek, ev); err != nil {
		return zero, false, store.Errorf("remove", fmt.Sprint(key), err)
	}
	delete(s.index, string(ek))
	s.stats.SetGauge(stats.MetricColdSize, int64(len(s.index)))

	// The REMOVE is logged; a leftover object is deleted by the next recovery.
	if err := s.deleteObject(string(ek)); err != nil {
		s.logger.Warn("deleting removed object", zap.Error(err))
	}
	if loadErr != nil {
		return zero, false, store.Errorf("remove", fmt.Sprint(key), loadErr)
	}
	return v, true, nil
}

// Clear logs a REMOVE for every key and deletes all objects.
func (s *Store[K, V]) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return store.Errorf("clear", "", store.ErrClosed)
	}

	removed := make([]string, 0, len(s.index))
	var logErr error
	for ek := range s.index {
		if logErr = s.log.Remove([]byte(ek), nil); logErr != nil {
			break
		}
		delete(s.index, ek)
		removed = append(removed, ek)
	}
	s.stats.SetGauge(stats.MetricColdSize, int64(len(s.index)))

	g := new(errgroup.Group)
	g.SetLimit(reconcileWorkers)
	for _, ek := range removed {
		g.Go(func() error { return s.deleteObject(ek) })
	}
	if err := errors.Join(logErr, g.Wait()); err != nil {
		return store.Errorf("clear", "", err)
	}
	return nil
}

// Close closes the log and bucket and releases the process lock.
// Closing twice is a no-op.
func (s *Store[K, V]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.release(); err != nil {
		return store.Errorf("close", "", err)
	}
	s.logger.Debug("persistent store closed")
	return nil
}

// Len returns the number of stored keys.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index)
}

// LogPath returns the path of the write-ahead log.
func (s *Store[K, V]) LogPath() string {
	return s.log.Path()
}

// release closes whatever open managed to acquire.
func (s *Store[K, V]) release() error {
	var errs []error
	if s.log != nil {
		errs = append(errs, s.log.Close())
	}
	if s.bucket != nil {
		errs = append(errs, s.bucket.Close())
	}
	if s.lock != nil {
		errs = append(errs, s.lock.Unlock())
	}
	return errors.Join(errs...)
}

// load reads and decodes the object for ek, returning the value and its
// encoded bytes.
func (s *Store[K, V]) load(ek string) (V, []byte, error) {
	var zero V

	ctx, cancel := s.context()
	defer cancel()

	payload, err := s.bucket.Read(ctx, s.objectName(ek))
	if err != nil {
		return zero, nil, err
	}
	ev, err := compress.Decompress(s.compressor, payload)
	if err != nil {
		return zero, nil, err
	}
	v, err := s.values.Decode(ev)
	if err != nil {
		return zero, nil, err
	}
	return v, ev, nil
}

func (s *Store[K, V]) deleteObject(ek string) error {
	ctx, cancel := s.context()
	defer cancel()
	return s.bucket.Delete(ctx, s.objectName(ek))
}

// objectName maps an encoded key to its object name. Keys are hashed so
// arbitrary bytes yield a safe, fixed-length name.
func (s *Store[K, V]) objectName(ek string) string {
	sum := sha256.Sum256([]byte(ek))
	name := s.base + "/objects/" + hex.EncodeToString(sum[:])
	if ext := s.compressor.Extension(); ext != "" {
		name += "." + ext
	}
	return name
}

func (s *Store[K, V]) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}
