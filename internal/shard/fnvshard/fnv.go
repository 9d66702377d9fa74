// Package fnvshard implements FNV-1a hash-based sharding.
package fnvshard

import "github.com/steviemul/offily/internal/shard"

// Strategy implements FNV-1a hash-based sharding.
type Strategy struct{}

// Ensure Strategy implements shard.Strategy.
var _ shard.Strategy = (*Strategy)(nil)

// New creates a new FNV-based sharding strategy.
func New() *Strategy {
	return &Strategy{}
}

// Name returns the strategy name.
func (s *Strategy) Name() string {
	return "fnv32"
}

// ShardID computes a shard ID using the FNV-1a hash of the encoded key.
func (s *Strategy) ShardID(key []byte, totalShards int) int {
	if totalShards <= 1 {
		return 0
	}
	return int(fnv1a32(key) % uint32(totalShards))
}

// fnv1a32 computes the FNV-1a 32-bit hash of b.
func fnv1a32(b []byte) uint32 {
	var h uint32 = 2166136261 // FNV offset basis
	for _, c := range b {
		h ^= uint32(c)
		h *= 16777619 // FNV prime
	}
	return h
}
