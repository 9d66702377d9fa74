package compress_test

import (
	"bytes"
	"testing"

	"github.com/steviemul/offily/internal/compress"
	"github.com/steviemul/offily/internal/compress/gzipcompress"
	"github.com/steviemul/offily/internal/compress/noopcompress"
	"github.com/steviemul/offily/internal/compress/zstdcompress"
)

func TestCompressors_RoundTrip(t *testing.T) {
	compressors := []struct {
		name string
		c    compress.Compressor
		ext  string
	}{
		{"noop", noopcompress.New(), ""},
		{"gzip", gzipcompress.New(), "gz"},
		{"zstd", zstdcompress.New(), "zst"},
	}

	inputs := map[string][]byte{
		"empty":  {},
		"text":   []byte("Hello, World! This is test data for compression."),
		"binary": {0x00, 0xff, ':', '\n', 0x10, 0x80},
	}

	for _, tc := range compressors {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.c.Extension(); got != tc.ext {
				t.Errorf("Extension() = %q, want %q", got, tc.ext)
			}
			for name, original := range inputs {
				compressed, err := compress.Compress(tc.c, original)
				if err != nil {
					t.Fatalf("%s: Compress() error = %v", name, err)
				}
				got, err := compress.Decompress(tc.c, compressed)
				if err != nil {
					t.Fatalf("%s: Decompress() error = %v", name, err)
				}
				if !bytes.Equal(got, original) {
					t.Errorf("%s: round-trip = %q, want %q", name, got, original)
				}
			}
		})
	}
}

func TestDecompress_InvalidZstd(t *testing.T) {
	_, err := compress.Decompress(zstdcompress.New(), []byte("definitely not zstd"))
	if err == nil {
		t.Error("Decompress() expected error for invalid zstd data, got nil")
	}
}
