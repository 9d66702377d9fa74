// Package prometheus provides a Prometheus-based stats collector.
package prometheus

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/steviemul/offily/internal/stats"
)

// help holds descriptions for the metric names the library emits.
// Unknown names fall back to the name itself.
var help = map[string]string{
	stats.MetricHotHits:          "Lookups served by the in-memory tier",
	stats.MetricColdHits:         "Lookups promoted from the backing store",
	stats.MetricMisses:           "Lookups found in neither tier",
	stats.MetricEvictions:        "Entries evicted from the in-memory tier",
	stats.MetricPersistFail:      "Evicted entries dropped because the backing store rejected them",
	stats.MetricHotSize:          "Entries resident in the in-memory tier",
	stats.MetricWALAppends:       "Records appended to the write-ahead log",
	stats.MetricWALAppendSeconds: "Write-ahead log append latency",
	stats.MetricWALReplayed:      "Records replayed from the write-ahead log at startup",
	stats.MetricColdSize:         "Entries held by the persistent store",
}

// Collector implements stats.Collector using Prometheus metrics.
type Collector struct {
	registry    prometheus.Registerer
	constLabels prometheus.Labels

	mu         sync.RWMutex
	counters   map[string]prometheus.Counter
	gauges     map[string]prometheus.Gauge
	histograms map[string]prometheus.Histogram
}

// Compile-time check that Collector implements stats.Collector.
var _ stats.Collector = (*Collector)(nil)

// Option configures a Collector.
type Option func(*Collector)

// WithConstLabels attaches static labels to every metric, e.g. the store name
// when several caches share one registry.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Collector) { c.constLabels = labels }
}

// New creates a new Prometheus collector.
// If registry is nil, prometheus.DefaultRegisterer is used.
func New(registry prometheus.Registerer, opts ...Option) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	c := &Collector{
		registry:   registry,
		counters:   make(map[string]prometheus.Counter),
		gauges:     make(map[string]prometheus.Gauge),
		histograms: make(map[string]prometheus.Histogram),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IncCounter increments a counter metric.
func (c *Collector) IncCounter(name string, delta int64) {
	counter := getOrCreate(c, c.counters, name, func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Name:        name,
			Help:        helpFor(name),
			ConstLabels: c.constLabels,
		})
	})
	counter.Add(float64(delta))
}

// SetGauge sets a gauge metric.
func (c *Collector) SetGauge(name string, value int64) {
	gauge := getOrCreate(c, c.gauges, name, func() prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        name,
			Help:        helpFor(name),
			ConstLabels: c.constLabels,
		})
	})
	gauge.Set(float64(value))
}

// ObserveHistogram records a value in a histogram.
func (c *Collector) ObserveHistogram(name string, value float64) {
	histogram := getOrCreate(c, c.histograms, name, func() prometheus.Histogram {
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        name,
			Help:        helpFor(name),
			ConstLabels: c.constLabels,
			Buckets:     bucketsFor(name),
		})
	})
	histogram.Observe(value)
}

// getOrCreate returns the metric cached under name, creating and registering
// it on first use. A metric already present in the registry is reused.
func getOrCreate[M prometheus.Collector](c *Collector, cache map[string]M, name string, create func() M) M {
	c.mu.RLock()
	m, ok := cache[name]
	c.mu.RUnlock()
	if ok {
		return m
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock.
	if m, ok = cache[name]; ok {
		return m
	}

	m = create()
	if err := c.registry.Register(m); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(M); ok {
				m = existing
			}
		}
		// Otherwise keep the unregistered metric; it still counts.
	}
	cache[name] = m
	return m
}

func helpFor(name string) string {
	if h, ok := help[name]; ok {
		return h
	}
	return name
}

// bucketsFor picks histogram buckets. WAL appends are sub-millisecond when the
// page cache absorbs them and tens of milliseconds when fsync is enabled.
func bucketsFor(name string) []float64 {
	if name == stats.MetricWALAppendSeconds {
		return prometheus.ExponentialBuckets(0.00005, 4, 8)
	}
	return prometheus.DefBuckets
}
