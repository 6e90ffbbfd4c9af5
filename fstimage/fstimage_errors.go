// Package fstimage parses and exposes the compact byte-stream
// representation of a compiled, deterministic weighted finite-state
// transducer (spec.md §3 "FstImage", §4.2, §6).
package fstimage

import (
	"errors"
	"fmt"
)

// Sentinel load/decode errors. These are the "Decode" error kind of
// spec.md §7: malformed FST images are fatal for the caller.
var (
	// ErrHeaderTruncated indicates the image is too short to hold the
	// fixed 4-byte marker. A truncated header scalar is reported as a
	// LoadError wrapping bytestream.ErrTruncated instead.
	ErrHeaderTruncated = errors.New("fstimage: header truncated")

	// ErrInvalidConfig indicates a header scalar is out of its legal
	// range (e.g. a transition entry width outside {1,2,3,4}).
	ErrInvalidConfig = errors.New("fstimage: invalid header configuration")
)

// LoadError wraps a decode failure with the field being decoded, so a
// caller logging it (SPEC_FULL.md's warning sink) can report which part
// of the image was malformed.
type LoadError struct {
	Field string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("fstimage: failed to load %s: %v", e.Field, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
