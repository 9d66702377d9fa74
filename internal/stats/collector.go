// Package stats provides a unified interface for collecting metrics.
package stats

// Metric names used throughout the library.
const (
	// Cache metrics.
	MetricHotHits     = "offily_hot_hits_total"
	MetricColdHits    = "offily_cold_hits_total"
	MetricMisses      = "offily_misses_total"
	MetricEvictions   = "offily_evictions_total"
	MetricPersistFail = "offily_eviction_persist_failures_total"
	MetricHotSize     = "offily_hot_size"

	// Persistent store metrics.
	MetricWALAppends       = "offily_wal_appends_total"
	MetricWALAppendSeconds = "offily_wal_append_seconds"
	MetricWALReplayed      = "offily_wal_replayed_records_total"
	MetricColdSize         = "offily_cold_size"
)

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
