package host

import (
	"go.uber.org/zap"

	"github.com/abhimeda/rocALUTION/sparse"
)

// Vector is a dense vector in host memory.
type Vector[T sparse.Float] struct {
	data []T
}

var _ sparse.Vector[float64] = (*Vector[float64])(nil)

// NewVector creates an empty host vector.
func NewVector[T sparse.Float]() *Vector[T] {
	return &Vector[T]{}
}

// Allocate resizes the vector to n zero-initialized elements.
func (v *Vector[T]) Allocate(n int) {
	if n < 0 {
		sparse.Fatalf("host vector: Allocate: negative size %d", n)
	}
	v.data = allocate[T](n)
}

// Clear releases the vector storage.
func (v *Vector[T]) Clear() {
	free(&v.data)
}

// Size returns the number of elements.
func (v *Vector[T]) Size() int {
	return len(v.data)
}

// Data returns the backing array. The vector keeps ownership.
func (v *Vector[T]) Data() []T {
	return v.data
}

// CopyFromData copies the given values into the vector, allocating to
// match when the vector is empty.
func (v *Vector[T]) CopyFromData(data []T) {
	if v.data == nil {
		v.data = allocate[T](len(data))
	}
	if len(v.data) != len(data) {
		sparse.Fatalf("host vector: CopyFromData: size mismatch %d != %d", len(v.data), len(data))
	}
	copy(v.data, data)
}

// Info logs the vector state.
func (v *Vector[T]) Info() {
	zap.L().Info("host vector",
		zap.Int("size", v.Size()),
		zap.Int("valueBytes", sparse.SizeOf[T]()))
}
