package stats

import "sync"

// Noop is a no-op collector that discards all metrics.
type Noop struct{}

// Compile-time check that Noop implements Collector.
var _ Collector = (*Noop)(nil)

// NewNoop creates a new no-op collector.
func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) IncCounter(name string, delta int64)         {}
func (n *Noop) SetGauge(name string, value int64)           {}
func (n *Noop) ObserveHistogram(name string, value float64) {}

// Recorder keeps counters and gauges in memory. It is safe for concurrent use
// and is mostly useful in tests.
type Recorder struct {
	mu           sync.Mutex
	counters     map[string]int64
	gauges       map[string]int64
	observations map[string]int
}

// Compile-time check that Recorder implements Collector.
var _ Collector = (*Recorder)(nil)

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		counters:     make(map[string]int64),
		gauges:       make(map[string]int64),
		observations: make(map[string]int),
	}
}

func (r *Recorder) IncCounter(name string, delta int64) {
	r.mu.Lock()
	r.counters[name] += delta
	r.mu.Unlock()
}

func (r *Recorder) SetGauge(name string, value int64) {
	r.mu.Lock()
	r.gauges[name] = value
	r.mu.Unlock()
}

func (r *Recorder) ObserveHistogram(name string, value float64) {
	r.mu.Lock()
	r.observations[name]++
	r.mu.Unlock()
}

// Counter returns the accumulated value of a counter.
func (r *Recorder) Counter(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[name]
}

// Gauge returns the last value set on a gauge.
func (r *Recorder) Gauge(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gauges[name]
}

// Observations returns how many values were recorded for a histogram.
func (r *Recorder) Observations(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.observations[name]
}
