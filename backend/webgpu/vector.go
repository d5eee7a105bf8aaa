package webgpu

import (
	"github.com/go-webgpu/webgpu/wgpu"
	"go.uber.org/zap"

	"github.com/abhimeda/rocALUTION/backend/host"
	"github.com/abhimeda/rocALUTION/sparse"
)

// Vector is a dense vector in device memory.
type Vector[T sparse.Float] struct {
	backend *Backend
	buf     *wgpu.Buffer
	size    int
}

var _ sparse.Vector[float32] = (*Vector[float32])(nil)

// NewVector creates an empty device vector on the given backend. A nil
// backend is a programming error.
func NewVector[T sparse.Float](b *Backend) *Vector[T] {
	if b == nil {
		sparse.Fatalf("webgpu vector: no backend context")
	}
	return &Vector[T]{backend: b}
}

// Allocate resizes the vector to n zero-initialized elements.
func (v *Vector[T]) Allocate(n int) {
	if n < 0 {
		sparse.Fatalf("webgpu vector: Allocate: negative size %d", n)
	}

	v.Clear()

	if n > 0 {
		v.buf = v.backend.allocBuffer(uint64(n * sparse.SizeOf[T]()))
		v.size = n
	}
}

// Clear releases the device storage.
func (v *Vector[T]) Clear() {
	if v.size > 0 {
		releaseBuffer(&v.buf)
		v.size = 0
	}
}

// Size returns the number of elements.
func (v *Vector[T]) Size() int {
	return v.size
}

// CopyFromHost copies a host vector into device memory, allocating to
// match when the vector is empty.
func (v *Vector[T]) CopyFromHost(src *host.Vector[T]) {
	if v.size == 0 {
		v.Allocate(src.Size())
	}
	if v.size != src.Size() {
		sparse.Fatalf("webgpu vector: CopyFromHost: size mismatch %d != %d", v.size, src.Size())
	}
	if v.size > 0 {
		v.backend.hostToDevice(v.buf, bytesOf(src.Data()))
	}
}

// CopyToHost copies the vector back into a host vector, allocating the
// destination to match when it is empty.
func (v *Vector[T]) CopyToHost(dst *host.Vector[T]) {
	if dst.Size() == 0 {
		dst.Allocate(v.size)
	}
	if v.size != dst.Size() {
		sparse.Fatalf("webgpu vector: CopyToHost: size mismatch %d != %d", v.size, dst.Size())
	}
	if v.size > 0 {
		v.backend.deviceToHost(v.buf, bytesOf(dst.Data()))
	}
}

// Info logs the vector state.
func (v *Vector[T]) Info() {
	zap.L().Info("webgpu vector",
		zap.Int("size", v.size),
		zap.Int("valueBytes", sparse.SizeOf[T]()))
}
