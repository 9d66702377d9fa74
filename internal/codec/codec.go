// Package codec converts keys and values to bytes and back.
//
// A Codec must be lossless: Decode(Encode(x)) == x for every x it accepts.
// Codecs make no promise about which bytes appear in their output; the
// write-ahead log applies its own delimiter-free field encoding on top.
package codec

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
)

// Codec encodes values of type T to bytes and decodes them back.
type Codec[T any] interface {
	Encode(v T) ([]byte, error)
	Decode(data []byte) (T, error)
}

// Compile-time checks.
var (
	_ Codec[[]byte] = Bytes{}
	_ Codec[string] = String{}
	_ Codec[int]    = Gob[int]{}
	_ Codec[int]    = JSON[int]{}
)

// Bytes is the identity codec for byte slices. Encode and Decode copy their
// input so callers may reuse buffers.
type Bytes struct{}

func (Bytes) Encode(v []byte) ([]byte, error) {
	return bytes.Clone(nonNil(v)), nil
}

func (Bytes) Decode(data []byte) ([]byte, error) {
	return bytes.Clone(nonNil(data)), nil
}

// String encodes strings as their raw bytes.
type String struct{}

func (String) Encode(v string) ([]byte, error) { return []byte(v), nil }

func (String) Decode(data []byte) (string, error) { return string(data), nil }

// Gob encodes arbitrary Go values with encoding/gob.
type Gob[T any] struct{}

func (Gob[T]) Encode(v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (Gob[T]) Decode(data []byte) (T, error) {
	var v T
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return v, fmt.Errorf("gob decode: %w", err)
	}
	return v, nil
}

// JSON encodes values with encoding/json. Only exported fields survive.
type JSON[T any] struct{}

func (JSON[T]) Encode(v T) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json encode: %w", err)
	}
	return data, nil
}

func (JSON[T]) Decode(data []byte) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("json decode: %w", err)
	}
	return v, nil
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
