// Package noopcompress provides a pass-through compressor.
package noopcompress

import (
	"io"

	"github.com/steviemul/offily/internal/compress"
)

// Compile-time check that Compressor implements compress.Compressor.
var _ compress.Compressor = (*Compressor)(nil)

// Compressor stores data as-is.
type Compressor struct{}

// New returns a new pass-through compressor.
func New() *Compressor {
	return &Compressor{}
}

// Reader returns r wrapped as a ReadCloser.
func (c *Compressor) Reader(r io.Reader) (io.ReadCloser, error) {
	if rc, ok := r.(io.ReadCloser); ok {
		return rc, nil
	}
	return io.NopCloser(r), nil
}

// Writer returns w wrapped as a WriteCloser.
func (c *Compressor) Writer(w io.Writer) (io.WriteCloser, error) {
	return &nopWriteCloser{w}, nil
}

// Extension returns empty string.
func (c *Compressor) Extension() string {
	return ""
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
