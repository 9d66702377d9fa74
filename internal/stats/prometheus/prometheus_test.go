package prometheus

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/steviemul/offily/internal/stats"
)

// gather returns the metric family named name, failing the test if absent.
func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric %s not found in registry", name)
	return nil
}

func TestNew_DefaultRegistry(t *testing.T) {
	c := New(nil)
	if c.registry == nil {
		t.Error("registry should not be nil")
	}
}

func TestCollector_IncCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncCounter(stats.MetricEvictions, 5)
	c.IncCounter(stats.MetricEvictions, 3)

	mf := gather(t, reg, stats.MetricEvictions)
	if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 8 {
		t.Errorf("counter value = %v, want 8", got)
	}
	if got := mf.GetHelp(); got != "Entries evicted from the in-memory tier" {
		t.Errorf("help = %q", got)
	}
}

func TestCollector_SetGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.SetGauge(stats.MetricHotSize, 10)
	c.SetGauge(stats.MetricHotSize, 42)

	mf := gather(t, reg, stats.MetricHotSize)
	if got := mf.GetMetric()[0].GetGauge().GetValue(); got != 42 {
		t.Errorf("gauge value = %v, want 42", got)
	}
}

func TestCollector_ObserveHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveHistogram(stats.MetricWALAppendSeconds, 0.0001)
	c.ObserveHistogram(stats.MetricWALAppendSeconds, 0.002)
	c.ObserveHistogram(stats.MetricWALAppendSeconds, 0.5)

	h := gather(t, reg, stats.MetricWALAppendSeconds).GetMetric()[0].GetHistogram()
	if got := h.GetSampleCount(); got != 3 {
		t.Errorf("histogram count = %v, want 3", got)
	}
	if got := len(h.GetBucket()); got != 8 {
		t.Errorf("histogram buckets = %d, want 8", got)
	}
}

func TestCollector_UnknownNameHelp(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg).IncCounter("custom_total", 1)

	if got := gather(t, reg, "custom_total").GetHelp(); got != "custom_total" {
		t.Errorf("help = %q, want metric name", got)
	}
}

func TestCollector_ConstLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, WithConstLabels(prometheus.Labels{"store": "sessions"}))

	c.IncCounter(stats.MetricHotHits, 1)

	labels := gather(t, reg, stats.MetricHotHits).GetMetric()[0].GetLabel()
	if len(labels) != 1 || labels[0].GetName() != "store" || labels[0].GetValue() != "sessions" {
		t.Errorf("labels = %v, want store=sessions", labels)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncCounter("concurrent_counter", 1)
				c.SetGauge("concurrent_gauge", int64(j))
				c.ObserveHistogram("concurrent_histogram", float64(j))
			}
		}()
	}
	wg.Wait()

	if got := gather(t, reg, "concurrent_counter").GetMetric()[0].GetCounter().GetValue(); got != 1000 {
		t.Errorf("counter value = %v, want 1000", got)
	}
	if got := gather(t, reg, "concurrent_histogram").GetMetric()[0].GetHistogram().GetSampleCount(); got != 1000 {
		t.Errorf("histogram count = %v, want 1000", got)
	}
}

func TestCollector_AlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()

	existing := prometheus.NewCounter(prometheus.CounterOpts{
		Name: stats.MetricMisses,
		Help: help[stats.MetricMisses],
	})
	reg.MustRegister(existing)
	existing.Add(100)

	c := New(reg)
	c.IncCounter(stats.MetricMisses, 5)

	// Should reuse the existing counter rather than panic.
	if got := gather(t, reg, stats.MetricMisses).GetMetric()[0].GetCounter().GetValue(); got != 105 {
		t.Errorf("counter value = %v, want 105", got)
	}
}
