package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCollector_LogsMetrics(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := New(zap.New(core))

	c.IncCounter("hits", 2)
	c.SetGauge("size", 7)
	c.ObserveHistogram("latency", 0.25)

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("logged %d entries, want 3", len(entries))
	}

	wantMessages := []string{"counter", "gauge", "histogram"}
	for i, e := range entries {
		if e.Message != wantMessages[i] {
			t.Errorf("entry %d message = %q, want %q", i, e.Message, wantMessages[i])
		}
	}
	if got := entries[0].ContextMap()["delta"]; got != int64(2) {
		t.Errorf("counter delta = %v, want 2", got)
	}
}

func TestCollector_Level(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	New(zap.New(core)).IncCounter("hidden", 1)
	if logs.Len() != 0 {
		t.Errorf("debug collector logged %d entries at info level, want 0", logs.Len())
	}

	NewLevel(zap.New(core), zapcore.InfoLevel).IncCounter("shown", 1)
	if logs.Len() != 1 {
		t.Errorf("info collector logged %d entries, want 1", logs.Len())
	}
}

func TestNew_NilLogger(t *testing.T) {
	c := New(nil)
	// Must not panic.
	c.IncCounter("x", 1)
}
