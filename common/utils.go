package common

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// GrowSlice returns s resliced to length n, reallocating only when n exceeds the current capacity.
// Existing elements up to the old length are preserved; the contents past it are unspecified.
//
// Parameters:
//   - s: the slice to grow
//   - n: the required length
//
// Returns:
//   - []T: a slice of length n sharing s's backing array when it fits
func GrowSlice[T any](s []T, n int) []T {
	if n <= cap(s) {
		return s[:n]
	}
	grown := make([]T, n, max(n, 2*cap(s)))
	copy(grown, s)
	return grown
}
