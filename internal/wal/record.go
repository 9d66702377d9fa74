package wal

import (
	"bytes"
	"encoding/base64"
	"fmt"
)

// Delimiter separates the operation tag and fields of a record line.
// The field encoding (standard base64) never produces it, nor a newline.
const Delimiter = ':'

// Op is a logged operation tag.
type Op string

// Logged operations. Tags are case-sensitive.
const (
	OpPut    Op = "PUT"
	OpRemove Op = "REMOVE"
)

func (op Op) valid() bool {
	return op == OpPut || op == OpRemove
}

// fieldEncoding is the delimiter-free encoding applied to every field.
var fieldEncoding = base64.StdEncoding

// Record is one logged operation. Fields hold the raw (decoded) bytes; for
// both PUT and REMOVE they are the encoded key followed by the encoded value.
type Record struct {
	Op     Op
	Fields [][]byte
}

// Key returns the first field, or nil.
func (r Record) Key() []byte { return r.field(0) }

// Value returns the second field, or nil. REMOVE records written without a
// known value carry an empty value.
func (r Record) Value() []byte { return r.field(1) }

func (r Record) field(i int) []byte {
	if i < len(r.Fields) {
		return r.Fields[i]
	}
	return nil
}

// MarshalLine renders r as a single newline-terminated log line.
func (r Record) MarshalLine() []byte {
	n := len(r.Op) + 1
	for _, f := range r.Fields {
		n += 1 + fieldEncoding.EncodedLen(len(f))
	}

	line := make([]byte, 0, n)
	line = append(line, r.Op...)
	for _, f := range r.Fields {
		line = append(line, Delimiter)
		line = fieldEncoding.AppendEncode(line, f)
	}
	return append(line, '\n')
}

// ParseLine parses a log line, with or without its trailing newline.
func ParseLine(line []byte) (Record, error) {
	line = bytes.TrimSuffix(line, []byte{'\n'})
	if len(line) == 0 {
		return Record{}, fmt.Errorf("empty record")
	}

	parts := bytes.Split(line, []byte{Delimiter})
	op := Op(parts[0])
	if !op.valid() {
		return Record{}, fmt.Errorf("unknown operation %q", parts[0])
	}

	fields := make([][]byte, 0, len(parts)-1)
	for i, p := range parts[1:] {
		f, err := fieldEncoding.AppendDecode(make([]byte, 0, fieldEncoding.DecodedLen(len(p))), p)
		if err != nil {
			return Record{}, fmt.Errorf("decoding field %d: %w", i+1, err)
		}
		fields = append(fields, f)
	}
	return Record{Op: op, Fields: fields}, nil
}
