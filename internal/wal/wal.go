// Package wal implements the append-only write-ahead log behind the
// persistent store.
//
// Each record is one line:
//
//	OPERATION:BASE64(FIELD_1):BASE64(FIELD_2)\n
//
// Appends from any number of goroutines are serialized by one mutex into a
// single total order and flushed before Append returns. Open drops an
// unterminated final record left by a crash; otherwise the log is never
// truncated or rewritten.
package wal

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/steviemul/offily/internal/stats"
)

// Extension is the log file extension.
const Extension = "log"

// NoIdentifier marks a log without a numeric identifier.
const NoIdentifier = -1

// ErrClosed is returned by Append on a closed log.
var ErrClosed = errors.New("wal: closed")

// Filename returns the log file name for a store name and optional numeric
// identifier: "<name>.log" or "<name>-<id>.log".
func Filename(name string, id int) string {
	if id < 0 {
		return name + "." + Extension
	}
	return name + "-" + strconv.Itoa(id) + "." + Extension
}

// Option configures a Log.
type Option func(*Log)

// WithIdentifier sets the numeric identifier used in the file name.
func WithIdentifier(id int) Option {
	return func(l *Log) { l.id = id }
}

// WithSync makes every append fsync the file before returning.
func WithSync(sync bool) Option {
	return func(l *Log) { l.sync = sync }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Log) { l.logger = logger }
}

// WithStats sets the stats collector.
func WithStats(c stats.Collector) Option {
	return func(l *Log) { l.stats = c }
}

// Log is an open write-ahead log.
type Log struct {
	path   string
	id     int
	sync   bool
	logger *zap.Logger
	stats  stats.Collector

	// mu serializes appends; it guards the fields below.
	mu     sync.Mutex
	file   *os.File
	w      *bufio.Writer
	closed bool
}

// Open opens (creating if needed) the log for name under root.
func Open(root, name string, opts ...Option) (*Log, error) {
	l := &Log{
		id:     NoIdentifier,
		logger: zap.NewNop(),
		stats:  stats.NewNoop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.path = filepath.Join(root, Filename(name, l.id))

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	file, err := os.OpenFile(l.path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}
	dropped, err := trimTornTail(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("repairing log tail: %w", err)
	}
	if dropped > 0 {
		l.logger.Warn("dropped unterminated final record",
			zap.String("path", l.path),
			zap.Int64("bytes", dropped),
		)
	}
	l.file = file
	l.w = bufio.NewWriter(file)

	l.logger.Debug("write-ahead log opened", zap.String("path", l.path))
	return l, nil
}

// trimTornTail truncates f after its last newline and returns the number of
// bytes removed. Appends made after a torn record would otherwise be glued
// onto it.
func trimTornTail(f *os.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	size := info.Size()
	if size == 0 {
		return 0, nil
	}

	buf := make([]byte, 4096)
	end := size
	for end > 0 {
		start := max(end-int64(len(buf)), 0)
		chunk := buf[:end-start]
		if _, err := f.ReadAt(chunk, start); err != nil {
			return 0, err
		}
		if i := bytes.LastIndexByte(chunk, '\n'); i >= 0 {
			keep := start + int64(i) + 1
			if keep == size {
				return 0, nil
			}
			return size - keep, f.Truncate(keep)
		}
		end = start
	}
	return size, f.Truncate(0)
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Put logs a PUT of value under key.
func (l *Log) Put(key, value []byte) error {
	return l.Append(OpPut, key, value)
}

// Remove logs a REMOVE of key. value is the last known value and may be nil.
func (l *Log) Remove(key, value []byte) error {
	return l.Append(OpRemove, key, value)
}

// Append writes one record and flushes it before returning.
func (l *Log) Append(op Op, fields ...[]byte) error {
	if !op.valid() {
		return fmt.Errorf("wal: unknown operation %q", op)
	}
	line := Record{Op: op, Fields: fields}.MarshalLine()

	start := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	if _, err := l.w.Write(line); err != nil {
		return fmt.Errorf("wal: writing record: %w", err)
	}
	if err := l.w.Flush(); err != nil {
		return fmt.Errorf("wal: flushing record: %w", err)
	}
	if l.sync {
		if err := l.file.Sync(); err != nil {
			return fmt.Errorf("wal: syncing record: %w", err)
		}
	}

	l.stats.IncCounter(stats.MetricWALAppends, 1)
	l.stats.ObserveHistogram(stats.MetricWALAppendSeconds, time.Since(start).Seconds())
	return nil
}

// Replay feeds every record in the log to fn, oldest first.
// fn must not append to l.
func (l *Log) Replay(fn func(Record) error) (Summary, error) {
	l.mu.Lock()
	if !l.closed {
		if err := l.w.Flush(); err != nil {
			l.mu.Unlock()
			return Summary{}, &RecoveryError{Path: l.path, Err: err}
		}
	}
	l.mu.Unlock()

	sum, err := Replay(l.path, fn)
	if sum.TornTail {
		l.logger.Warn("ignoring unterminated final record",
			zap.String("path", l.path),
			zap.Int("line", sum.Records+1),
		)
	}
	return sum, err
}

// Close flushes and closes the log. Closing twice is a no-op.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	flushErr := l.w.Flush()
	closeErr := l.file.Close()
	if flushErr != nil {
		return fmt.Errorf("wal: flushing on close: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("wal: closing: %w", closeErr)
	}
	return nil
}
