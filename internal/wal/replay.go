package wal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// RecoveryError reports a failure while replaying a log. Replay has no
// partial-success mode: any RecoveryError means the replay was aborted.
type RecoveryError struct {
	Path string
	Line int // 1-based; 0 when the failure is not tied to a line
	Err  error
}

func (e *RecoveryError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("wal: recovering %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("wal: recovering %s line %d: %v", e.Path, e.Line, e.Err)
}

func (e *RecoveryError) Unwrap() error { return e.Err }

// Summary describes a completed replay.
type Summary struct {
	// Records is the number of records passed to the handler.
	Records int

	// TornTail is set when the final line lacked its newline. Such a line is
	// an append interrupted by a crash and is skipped.
	TornTail bool
}

// Replay reads the log at path and passes each record to fn in file order.
// A missing file replays zero records. A read failure, a malformed line or
// an error from fn aborts the replay with a *RecoveryError.
func Replay(path string, fn func(Record) error) (Summary, error) {
	var sum Summary

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return sum, nil
		}
		return sum, &RecoveryError{Path: path, Err: err}
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for lineNo := 1; ; lineNo++ {
		line, err := r.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				sum.TornTail = len(line) > 0
				return sum, nil
			}
			return sum, &RecoveryError{Path: path, Line: lineNo, Err: err}
		}

		rec, err := ParseLine(line)
		if err != nil {
			return sum, &RecoveryError{Path: path, Line: lineNo, Err: err}
		}
		if err := fn(rec); err != nil {
			return sum, &RecoveryError{Path: path, Line: lineNo, Err: err}
		}
		sum.Records++
	}
}
