package micro

import (
	"context"
	"fmt"
	"testing"

	"github.com/steviemul/offily"
	"github.com/steviemul/offily/internal/codec"
	"github.com/steviemul/offily/internal/store/memstore"
	"github.com/steviemul/offily/internal/wal"
)

func openBench(b *testing.B, opts ...offily.Option) *offily.Cache[string, []byte] {
	b.Helper()
	c, err := offily.Open(context.Background(), b.TempDir(), "bench", offily.StringCodec{}, offily.BytesCodec{}, opts...)
	if err != nil {
		b.Fatalf("opening cache: %v", err)
	}
	b.Cleanup(func() { c.Close() })
	return c
}

// BenchmarkGet_Hot measures lookups served from memory.
func BenchmarkGet_Hot(b *testing.B) {
	c := openBench(b, offily.WithCapacity(1024))
	value := make([]byte, 256)
	for i := range 1024 {
		if _, _, err := c.Put(fmt.Sprint(i), value); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok, err := c.Get(fmt.Sprint(i % 1024)); err != nil || !ok {
			b.Fatalf("Get: %v, %v", ok, err)
		}
	}
}

// BenchmarkGet_Promote measures lookups that move an entry from disk to
// memory, evicting another entry back to disk.
func BenchmarkGet_Promote(b *testing.B) {
	c := openBench(b, offily.WithCapacity(1))
	value := make([]byte, 256)
	for _, k := range []string{"a", "b"} {
		if _, _, err := c.Put(k, value); err != nil {
			b.Fatal(err)
		}
	}

	keys := []string{"a", "b"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok, err := c.Get(keys[i%2]); err != nil || !ok {
			b.Fatalf("Get: %v, %v", ok, err)
		}
	}
}

// BenchmarkPut_Evicting measures inserts that each spill one entry to disk.
func BenchmarkPut_Evicting(b *testing.B) {
	for _, compression := range []offily.Compression{offily.CompressionNone, offily.CompressionZstd} {
		b.Run(string(compression), func(b *testing.B) {
			c := openBench(b, offily.WithCapacity(64), offily.WithCompression(compression))
			value := make([]byte, 1024)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, _, err := c.Put(fmt.Sprint(i), value); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkPut_Memory measures inserts into a cache whose backing store is a
// map, isolating the eviction engine from disk I/O.
func BenchmarkPut_Memory(b *testing.B) {
	c, err := offily.New[string, []byte](memstore.New[string, []byte](), offily.WithCapacity(64))
	if err != nil {
		b.Fatal(err)
	}
	defer c.Close()
	value := make([]byte, 1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := c.Put(fmt.Sprint(i), value); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkWAL_Append measures raw log appends, with and without fsync.
func BenchmarkWAL_Append(b *testing.B) {
	for _, sync := range []bool{false, true} {
		b.Run(fmt.Sprintf("sync=%v", sync), func(b *testing.B) {
			l, err := wal.Open(b.TempDir(), "bench", wal.WithSync(sync))
			if err != nil {
				b.Fatal(err)
			}
			defer l.Close()

			value, _ := codec.String{}.Encode("some moderately sized value")
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := l.Put([]byte(fmt.Sprint(i)), value); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
