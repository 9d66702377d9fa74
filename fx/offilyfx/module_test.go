package offilyfx

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/steviemul/offily"
)

func TestModule(t *testing.T) {
	dir := t.TempDir()

	var cache *offily.Cache[string, []byte]
	app := fxtest.New(t,
		fx.Supply(Config{Dir: dir, Capacity: 1, FlushOnClose: true}),
		fx.Supply(zap.NewNop()),
		Module,
		fx.Populate(&cache),
	)
	app.RequireStart()

	if _, _, err := cache.Put("a", []byte("1")); err != nil {
		t.Fatal(err)
	}
	if _, _, err := cache.Put("b", []byte("2")); err != nil {
		t.Fatal(err)
	}
	app.RequireStop()

	// Stopping closed the cache and released the store.
	reopened, err := offily.Open(t.Context(), dir, "offily", offily.StringCodec{}, offily.BytesCodec{})
	if err != nil {
		t.Fatalf("Open() after stop error = %v", err)
	}
	defer reopened.Close()
	for k, want := range map[string]string{"a": "1", "b": "2"} {
		v, ok, err := reopened.Get(k)
		if err != nil || !ok || string(v) != want {
			t.Errorf("Get(%q) = %q, %v, %v; want %q", k, v, ok, err, want)
		}
	}
}

func TestNew_Prometheus(t *testing.T) {
	reg := prometheus.NewRegistry()

	var cache *offily.Cache[string, int]
	app := fxtest.New(t,
		fx.Supply(Config{Dir: t.TempDir(), Name: "counts"}),
		fx.Supply(zap.NewNop()),
		fx.Provide(func() prometheus.Registerer { return reg }),
		New[string, int]("counts", offily.StringCodec{}, offily.JSONCodec[int]{}),
		fx.Populate(&cache),
	)
	app.RequireStart()
	defer app.RequireStop()

	if _, _, err := cache.Get("missing"); err != nil {
		t.Fatal(err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "offily_misses_total" {
			found = true
		}
	}
	if !found {
		t.Error("offily_misses_total not registered")
	}
}
