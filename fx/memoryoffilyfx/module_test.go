package memoryoffilyfx

import (
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/steviemul/offily"
	"github.com/steviemul/offily/internal/store/memstore"
)

func TestModule(t *testing.T) {
	var (
		cache *offily.Cache[string, []byte]
		mem   *memstore.Store[string, []byte]
	)
	app := fxtest.New(t,
		fx.Supply(Config{Capacity: 1}),
		fx.Supply(zap.NewNop()),
		Module,
		fx.Populate(&cache, &mem),
	)
	app.RequireStart()
	defer app.RequireStop()

	cache.Put("a", []byte("1"))
	cache.Put("b", []byte("2"))

	if ok, _ := mem.Contains("a"); !ok {
		t.Error("evicted entry a not in backing store")
	}
	v, ok, err := cache.Get("a")
	if err != nil || !ok || string(v) != "1" {
		t.Errorf("Get(a) = %q, %v, %v", v, ok, err)
	}
}
