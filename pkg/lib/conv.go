// lib contains helper functions for the implementation
package lib

// Map applies f to every element of the slice
func Map[V any, R any](values []V, f func(V) R) []R {
	mapped := make([]R, len(values))

	for i, v := range values {
		mapped[i] = f(v)
	}

	return mapped
}
