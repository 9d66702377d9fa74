// Package memoryoffilyfx provides an fx module for an offily cache backed by
// an in-memory store. Useful for testing.
package memoryoffilyfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/steviemul/offily"
	"github.com/steviemul/offily/internal/stats"
	"github.com/steviemul/offily/internal/stats/logger"
	"github.com/steviemul/offily/internal/store/memstore"
)

// Config holds configuration for the in-memory cache.
type Config struct {
	// Capacity is the number of entries kept in the memory tier before
	// spilling to the backing map. Default is offily.DefaultCapacity.
	Capacity int
}

// Module provides a *offily.Cache[string, []byte] and its backing store.
// Requires a Config and a *zap.Logger to be provided.
var Module = fx.Module("memoryoffily",
	fx.Provide(
		newStatsCollector,
		newMemStore,
		newCache,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("offily.stats"))
}

func newMemStore() *memstore.Store[string, []byte] {
	return memstore.New[string, []byte]()
}

// Params holds dependencies for creating the cache.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Store     *memstore.Store[string, []byte]
	Lifecycle fx.Lifecycle
}

// Result holds the provided cache and store.
type Result struct {
	fx.Out

	Cache *offily.Cache[string, []byte]
}

func newCache(p Params) (Result, error) {
	capacity := p.Config.Capacity
	if capacity <= 0 {
		capacity = offily.DefaultCapacity
	}

	cache, err := offily.New[string, []byte](p.Store,
		offily.WithCapacity(capacity),
		offily.WithStats(p.Collector),
		offily.WithLogger(p.Logger.Named("offily")),
	)
	if err != nil {
		return Result{}, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return cache.Close()
		},
	})

	return Result{Cache: cache}, nil
}
