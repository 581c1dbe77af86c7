// Package sizing provides safe size arithmetic and range checks for the
// fixed-width fields of the archive format.
package sizing

import (
	"math"
)

// ToInt converts a uint64 to int, returning overflowErr if it doesn't fit.
func ToInt(size uint64, overflowErr error) (int, error) {
	if size > uint64(math.MaxInt) {
		return 0, overflowErr
	}
	return int(size), nil
}

// ToUint16 narrows n to a 16-bit header field, returning overflowErr if it
// doesn't fit.
func ToUint16(n int, overflowErr error) (uint16, error) {
	if n < 0 || n > math.MaxUint16 {
		return 0, overflowErr
	}
	return uint16(n), nil
}

// ToUint32 narrows n to a 32-bit header field, returning overflowErr if it
// doesn't fit.
func ToUint32(n int64, overflowErr error) (uint32, error) {
	if n < 0 || n > math.MaxUint32 {
		return 0, overflowErr
	}
	return uint32(n), nil
}

// AddInt64 adds two non-negative int64 values, returning (result, false) on
// overflow.
func AddInt64(a, b int64) (int64, bool) {
	if a < 0 || b < 0 || a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}

// WithinLimit reports whether size is acceptable for limit. A zero limit
// disables the check.
func WithinLimit(size, limit uint64) bool {
	return limit == 0 || size <= limit
}
