// Package bytestream implements the variable-length integer decoders used
// to read FST knowledge-base images and other binary artifacts consumed
// by this module (spec.md §4.1, §6).
package bytestream

import (
	"errors"
	"fmt"
)

// DecodeError is returned whenever a decode would read past the end of
// the image. Callers treat this as fatal (spec.md §4.1).
type DecodeError struct {
	Pos int
	Len int
	Op  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("bytestream: %s at pos %d would read past image of length %d", e.Op, e.Pos, e.Len)
}

// ErrTruncated is wrapped by every DecodeError; callers that only care
// about the failure class can test with errors.Is(err, ErrTruncated).
var ErrTruncated = errors.New("bytestream: truncated image")

func (e *DecodeError) Unwrap() error { return ErrTruncated }

// Reader decodes integers at arbitrary cursor positions over an in-memory
// byte image. It holds no position state of its own beyond the image;
// every decode takes and returns an explicit cursor, matching the image
// accessors in fstimage that need to juggle several independent cursors
// (alphabet search chains, in-epsilon chains) at once.
type Reader struct {
	image []byte
}

// New wraps image for decoding. image is not copied; the caller must not
// mutate it afterwards (FstImage treats its image as logically immutable,
// spec.md §3).
func New(image []byte) *Reader {
	return &Reader{image: image}
}

// Len returns the number of bytes in the underlying image.
func (r *Reader) Len() int { return len(r.image) }

func (r *Reader) checkRoom(pos, n int, op string) error {
	if pos < 0 || n < 0 || pos+n > len(r.image) {
		return &DecodeError{Pos: pos, Len: len(r.image), Op: op}
	}
	return nil
}

// FixedUnsigned reads n big-endian bytes (n in [1,4]) at pos as an
// unsigned integer and returns the value plus the cursor after it.
func (r *Reader) FixedUnsigned(pos, n int) (uint32, int, error) {
	if err := r.checkRoom(pos, n, "FixedUnsigned"); err != nil {
		return 0, pos, err
	}
	var v uint32
	for i := 0; i < n; i++ {
		v = (v << 8) | uint32(r.image[pos+i])
	}
	return v, pos + n, nil
}

// FixedSigned reads n big-endian bytes (n in [1,4]) at pos as a
// zig-zag-encoded signed integer (spec.md §4.1).
func (r *Reader) FixedSigned(pos, n int) (int32, int, error) {
	v, next, err := r.FixedUnsigned(pos, n)
	if err != nil {
		return 0, pos, err
	}
	return zigzagDecode(v), next, nil
}

// VarintSigned reads a varint zig-zag-encoded signed integer at pos: bytes
// with the top bit clear contribute 7 low bits and continue the sequence;
// the first byte with the top bit set contributes (b-128) and terminates
// (spec.md §4.1).
func (r *Reader) VarintSigned(pos int) (int32, int, error) {
	var val uint32
	cur := pos
	for {
		if err := r.checkRoom(cur, 1, "VarintSigned"); err != nil {
			return 0, pos, err
		}
		b := uint32(r.image[cur])
		cur++
		if b < 128 {
			val = (val << 7) + b
			continue
		}
		val = (val << 7) + (b - 128)
		break
	}
	return zigzagDecode(val), cur, nil
}

// zigzagDecode implements the odd/even sign recovery from spec.md §4.1:
// odd values are negative, ((v-1)/2)+1 below zero; even values are v/2.
func zigzagDecode(v uint32) int32 {
	if v%2 == 1 {
		return -int32((v-1)/2) - 1
	}
	return int32(v / 2)
}
