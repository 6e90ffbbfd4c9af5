// Package intconv provides bounds-checked integer narrowing for the FST
// binary reader.
//
// bytestream and fstimage decode varint/fixed-width fields straight off an
// untrusted knowledge-base image; narrowing a decoded value to the width
// the caller actually needs (a state id, a 16-bit symbol, a transition
// table entry of width W) must not silently wrap on a malformed image.
package intconv

import "math"

// Int64ToInt32 safely narrows an int64 to int32.
// Panics if n is out of int32 range.
func Int64ToInt32(n int64) int32 {
	if n < math.MinInt32 || n > math.MaxInt32 {
		panic("intconv: int64 value out of int32 range")
	}
	return int32(n)
}

// Uint32ToUint16 safely narrows a uint32 to uint16.
// Panics if n > math.MaxUint16.
func Uint32ToUint16(n uint32) uint16 {
	if n > math.MaxUint16 {
		panic("intconv: uint32 value out of uint16 range")
	}
	return uint16(n)
}

// Uint64ToUint32 safely narrows a uint64 to uint32.
// Panics if n > math.MaxUint32.
func Uint64ToUint32(n uint64) uint32 {
	if n > math.MaxUint32 {
		panic("intconv: uint64 value out of uint32 range")
	}
	return uint32(n)
}

// IntToUint32 safely converts an int to uint32.
// Panics if n < 0 or n > math.MaxUint32.
func IntToUint32(n int) uint32 {
	if n < 0 || uint(n) > math.MaxUint32 {
		panic("intconv: int value out of uint32 range")
	}
	return uint32(n)
}

// EntryWidthUnsigned narrows a uint64 decoded at a given fixed transition
// table entry width (W in {1,2,3,4} bytes, so the value always fits a
// uint32) down to uint32 for use as a state id.
func EntryWidthUnsigned(n uint64, width int) uint32 {
	if width < 1 || width > 4 {
		panic("intconv: invalid transition table entry width")
	}
	max := uint64(1)<<(uint(width)*8) - 1
	if n > max {
		panic("intconv: decoded value exceeds declared entry width")
	}
	return uint32(n)
}
