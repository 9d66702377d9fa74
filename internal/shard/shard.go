// Package shard defines how keys are distributed across the persistent
// stores of a sharded cold tier.
package shard

// Strategy maps encoded keys to shard IDs.
type Strategy interface {
	// Name returns a stable name recorded in the shard manifest.
	Name() string

	// ShardID returns the shard for key, in the range [0, totalShards).
	// The same key must always map to the same shard.
	ShardID(key []byte, totalShards int) int
}
