// Package sizing provides overflow-checked size arithmetic.
package sizing

import "math"

// ToInt converts a uint64 to int, returning overflowErr if it doesn't fit.
func ToInt(size uint64, overflowErr error) (int, error) {
	if size > uint64(math.MaxInt) {
		return 0, overflowErr
	}
	return int(size), nil
}

// ToInt64 converts a uint64 to int64, returning overflowErr if it doesn't fit.
func ToInt64(size uint64, overflowErr error) (int64, error) {
	if size > uint64(math.MaxInt64) {
		return 0, overflowErr
	}
	return int64(size), nil
}

// AddUint64 adds two uint64 values, returning (result, false) on overflow.
func AddUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// RangeEnd returns offset+length and whether that range fits inside a
// source of the given size.
func RangeEnd(offset, length uint64, size int64) (uint64, bool) {
	end, ok := AddUint64(offset, length)
	if !ok || size < 0 {
		return end, false
	}
	return end, end <= uint64(size)
}
