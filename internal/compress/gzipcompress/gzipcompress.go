// Package gzipcompress provides a gzip compressor.
package gzipcompress

import (
	"compress/gzip"
	"io"

	"github.com/steviemul/offily/internal/compress"
)

// Compile-time check that Compressor implements compress.Compressor.
var _ compress.Compressor = (*Compressor)(nil)

// Compressor implements gzip compression.
type Compressor struct {
	level int
}

// New returns a gzip compressor using the default compression level.
func New() *Compressor {
	return &Compressor{level: gzip.DefaultCompression}
}

// NewLevel returns a gzip compressor using the given level.
func NewLevel(level int) *Compressor {
	return &Compressor{level: level}
}

// Reader wraps r to decompress gzip data.
func (c *Compressor) Reader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// Writer wraps w to compress data with gzip.
func (c *Compressor) Writer(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(w, c.level)
}

// Extension returns "gz".
func (c *Compressor) Extension() string {
	return "gz"
}
