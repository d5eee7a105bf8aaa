package webgpu

import (
	"github.com/go-webgpu/webgpu/wgpu"
	"go.uber.org/zap"

	"github.com/abhimeda/rocALUTION/backend/host"
	"github.com/abhimeda/rocALUTION/sparse"
)

// CSR is an unblocked compressed-sparse-row matrix in device memory. Like
// its host counterpart it exists as a conversion source for BCSR.
type CSR[T sparse.Float] struct {
	backend *Backend

	rowOffset *wgpu.Buffer
	col       *wgpu.Buffer
	val       *wgpu.Buffer

	nrow int
	ncol int
	nnz  int

	descr *sparse.Descriptor
}

var _ sparse.Matrix[float32] = (*CSR[float32])(nil)

// NewCSR creates an empty device CSR matrix on the given backend. A nil
// backend is a programming error.
func NewCSR[T sparse.Float](b *Backend) *CSR[T] {
	if b == nil {
		sparse.Fatalf("webgpu CSR: no backend context")
	}
	return &CSR[T]{backend: b, descr: sparse.NewDescriptor()}
}

// Format returns sparse.CSR.
func (m *CSR[T]) Format() sparse.Format { return sparse.CSR }

// Rows returns the scalar row count.
func (m *CSR[T]) Rows() int { return m.nrow }

// Cols returns the scalar column count.
func (m *CSR[T]) Cols() int { return m.ncol }

// Nnz returns the stored nonzero count.
func (m *CSR[T]) Nnz() int { return m.nnz }

// Descr returns the kernel descriptor. Callers may adjust its index base
// before handing the matrix to a conversion.
func (m *CSR[T]) Descr() *sparse.Descriptor { return m.descr }

// Allocate sizes the matrix for nnz nonzeros in an nrow x ncol shape with
// zero-initialized device buffers. nnz == 0 leaves the matrix empty.
func (m *CSR[T]) Allocate(nnz, nrow, ncol int) {
	if nnz < 0 || nrow < 0 || ncol < 0 {
		sparse.Fatalf("webgpu CSR: Allocate: negative shape (%d, %d, %d)", nnz, nrow, ncol)
	}

	if m.nnz > 0 {
		m.Clear()
	}

	if nnz > 0 {
		m.rowOffset = m.backend.allocBuffer(uint64((nrow + 1) * 4))
		m.col = m.backend.allocBuffer(uint64(nnz * 4))
		m.val = m.backend.allocBuffer(uint64(nnz * sparse.SizeOf[T]()))

		m.nrow = nrow
		m.ncol = ncol
		m.nnz = nnz
	}
}

// Clear releases the device buffers and resets the shape to empty.
func (m *CSR[T]) Clear() {
	if m.nnz > 0 {
		releaseBuffer(&m.rowOffset)
		releaseBuffer(&m.col)
		releaseBuffer(&m.val)

		m.nrow = 0
		m.ncol = 0
		m.nnz = 0
	}
}

// CopyFromHost copies a host CSR matrix into device memory, allocating on
// first use.
func (m *CSR[T]) CopyFromHost(src *host.CSR[T]) {
	if m.nnz == 0 {
		m.Allocate(src.Nnz(), src.Rows(), src.Cols())
	}

	if m.nnz != src.Nnz() || m.nrow != src.Rows() || m.ncol != src.Cols() {
		m.Info()
		src.Info()
		sparse.Fatalf("webgpu CSR: CopyFromHost: shape mismatch")
	}

	if m.nnz > 0 {
		m.backend.hostToDeviceAsync(m.rowOffset, bytesOf(src.RowOffset()))
		m.backend.hostToDeviceAsync(m.col, bytesOf(src.Col()))
		m.backend.hostToDeviceAsync(m.val, bytesOf(src.Val()))
		m.backend.Synchronize()
	}
}

// CopyToHost copies the matrix back into a host CSR matrix, allocating the
// destination on first use.
func (m *CSR[T]) CopyToHost(dst *host.CSR[T]) {
	if dst.Nnz() == 0 {
		dst.Allocate(m.nnz, m.nrow, m.ncol)
	}

	if m.nnz != dst.Nnz() || m.nrow != dst.Rows() || m.ncol != dst.Cols() {
		m.Info()
		dst.Info()
		sparse.Fatalf("webgpu CSR: CopyToHost: shape mismatch")
	}

	if m.nnz > 0 {
		m.backend.deviceToHostAsync(m.rowOffset, bytesOf(dst.RowOffset()))
		m.backend.deviceToHostAsync(m.col, bytesOf(dst.Col()))
		m.backend.deviceToHostAsync(m.val, bytesOf(dst.Val()))
		m.backend.Synchronize()
	}
}

// Info logs the matrix state.
func (m *CSR[T]) Info() {
	zap.L().Info("webgpu CSR matrix",
		zap.Int("nrow", m.nrow),
		zap.Int("ncol", m.ncol),
		zap.Int("nnz", m.nnz),
		zap.Int("valueBytes", sparse.SizeOf[T]()))
}
