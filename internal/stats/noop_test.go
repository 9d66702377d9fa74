package stats

import (
	"sync"
	"testing"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	r.IncCounter(MetricEvictions, 1)
	r.IncCounter(MetricEvictions, 2)
	r.SetGauge(MetricHotSize, 5)
	r.SetGauge(MetricHotSize, 3)
	r.ObserveHistogram(MetricWALAppendSeconds, 0.1)

	if got := r.Counter(MetricEvictions); got != 3 {
		t.Errorf("Counter() = %d, want 3", got)
	}
	if got := r.Gauge(MetricHotSize); got != 3 {
		t.Errorf("Gauge() = %d, want 3", got)
	}
	if got := r.Observations(MetricWALAppendSeconds); got != 1 {
		t.Errorf("Observations() = %d, want 1", got)
	}
	if got := r.Counter("unknown"); got != 0 {
		t.Errorf("Counter(unknown) = %d, want 0", got)
	}
}

func TestRecorder_Concurrent(t *testing.T) {
	r := NewRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.IncCounter(MetricHotHits, 1)
			}
		}()
	}
	wg.Wait()

	if got := r.Counter(MetricHotHits); got != 800 {
		t.Errorf("Counter() = %d, want 800", got)
	}
}
