// Package host implements the host (CPU) backend: slice-backed sparse
// matrix handles, the host matrix-vector kernel, and the unblocked-to-block
// conversion kernel.
package host

// allocate returns a zero-initialized array of n elements. n == 0 yields
// nil, the empty state.
func allocate[T any](n int) []T {
	if n == 0 {
		return nil
	}
	return make([]T, n)
}

// setToZero clears an already-allocated array in place.
func setToZero[T any](s []T) {
	var zero T
	for i := range s {
		s[i] = zero
	}
}

// free drops ownership of an array. The host backend has no explicit
// deallocation; the slice is released to the garbage collector.
func free[T any](s *[]T) {
	*s = nil
}
