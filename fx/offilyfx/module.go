// Package offilyfx provides an fx module for a disk-backed offily cache.
package offilyfx

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/steviemul/offily"
	"github.com/steviemul/offily/internal/stats"
	"github.com/steviemul/offily/internal/stats/logger"
	promstats "github.com/steviemul/offily/internal/stats/prometheus"
)

// Config holds configuration for the disk-backed cache.
type Config struct {
	// Dir is the directory holding the write-ahead log and objects.
	Dir string

	// Name is the logical store name. Default is "offily".
	Name string

	// Capacity is the number of entries kept in memory.
	// Default is offily.DefaultCapacity.
	Capacity int

	// Shards spreads the store over several logs when positive.
	Shards int

	// Compression is one of "none", "gzip" or "zstd". Default is "none".
	Compression string

	// SyncWrites fsyncs every log append.
	SyncWrites bool

	// FlushOnClose writes the memory tier to disk when the app stops.
	FlushOnClose bool
}

// Module provides a *offily.Cache[string, []byte].
// Requires a Config and a *zap.Logger to be provided. When a
// prometheus.Registerer is also provided, metrics are registered with it;
// otherwise they are logged.
var Module = New[string, []byte]("offily", offily.StringCodec{}, offily.BytesCodec{})

// New returns a module named name providing a *offily.Cache[K, V] that
// encodes keys and values with the given codecs.
func New[K comparable, V any](name string, keys offily.Codec[K], values offily.Codec[V]) fx.Option {
	return fx.Module(name,
		fx.Provide(
			fx.Private,
			newStatsCollector,
		),
		fx.Provide(func(p Params) (*offily.Cache[K, V], error) {
			return newCache(p, keys, values)
		}),
	)
}

// StatsParams holds dependencies for the stats collector.
type StatsParams struct {
	fx.In

	Logger     *zap.Logger
	Registerer prometheus.Registerer `optional:"true"`
}

func newStatsCollector(p StatsParams) stats.Collector {
	if p.Registerer != nil {
		return promstats.New(p.Registerer)
	}
	return logger.New(p.Logger.Named("offily.stats"))
}

// Params holds dependencies for creating the cache.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

func newCache[K comparable, V any](p Params, keys offily.Codec[K], values offily.Codec[V]) (*offily.Cache[K, V], error) {
	name := p.Config.Name
	if name == "" {
		name = "offily"
	}
	capacity := p.Config.Capacity
	if capacity <= 0 {
		capacity = offily.DefaultCapacity
	}
	compression := offily.Compression(p.Config.Compression)
	if compression == "" {
		compression = offily.CompressionNone
	}

	opts := []offily.Option{
		offily.WithCapacity(capacity),
		offily.WithCompression(compression),
		offily.WithSyncWrites(p.Config.SyncWrites),
		offily.WithFlushOnClose(p.Config.FlushOnClose),
		offily.WithStats(p.Collector),
		offily.WithLogger(p.Logger.Named("offily")),
	}
	if p.Config.Shards > 0 {
		opts = append(opts, offily.WithShards(p.Config.Shards))
	}

	cache, err := offily.Open(context.Background(), p.Config.Dir, name, keys, values, opts...)
	if err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return cache.Close()
		},
	})

	return cache, nil
}
