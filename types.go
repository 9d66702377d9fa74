package offily

import (
	"github.com/steviemul/offily/internal/codec"
	"github.com/steviemul/offily/internal/store"
	"github.com/steviemul/offily/internal/store/shardedstore"
	"github.com/steviemul/offily/internal/wal"
)

// Store is the contract shared by both tiers and by Cache itself.
type Store[K comparable, V any] = store.Store[K, V]

// Codec converts keys or values to bytes and back, losslessly.
type Codec[T any] = codec.Codec[T]

// BytesCodec passes byte slices through, copying them.
type BytesCodec = codec.Bytes

// StringCodec encodes strings as their bytes.
type StringCodec = codec.String

// GobCodec encodes any gob-encodable type.
type GobCodec[T any] = codec.Gob[T]

// JSONCodec encodes any JSON-marshalable type.
type JSONCodec[T any] = codec.JSON[T]

// StoreError wraps a failure inside a backing store operation.
type StoreError = store.Error

// RecoveryError reports a write-ahead log that could not be replayed.
type RecoveryError = wal.RecoveryError

// Errors returned by Open.
var (
	// ErrLocked indicates another process has the persistent store open.
	ErrLocked = store.ErrLocked

	// ErrLayoutMismatch indicates a sharded store was reopened with a
	// different shard count, strategy or compression.
	ErrLayoutMismatch = shardedstore.ErrLayoutMismatch
)
