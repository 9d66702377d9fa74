// Package zstdcompress provides a zstd compressor.
package zstdcompress

import (
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/steviemul/offily/internal/compress"
)

// Compile-time check that Compressor implements compress.Compressor.
var _ compress.Compressor = (*Compressor)(nil)

// Compressor implements zstd compression.
type Compressor struct {
	level zstd.EncoderLevel
}

// New returns a zstd compressor using the default encoder level.
func New() *Compressor {
	return &Compressor{level: zstd.SpeedDefault}
}

// NewLevel returns a zstd compressor using the given encoder level.
func NewLevel(level zstd.EncoderLevel) *Compressor {
	return &Compressor{level: level}
}

// Reader wraps r to decompress zstd data.
func (c *Compressor) Reader(r io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return decoder.IOReadCloser(), nil
}

// Writer wraps w to compress data with zstd.
func (c *Compressor) Writer(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w, zstd.WithEncoderLevel(c.level))
}

// Extension returns "zst".
func (c *Compressor) Extension() string {
	return "zst"
}
