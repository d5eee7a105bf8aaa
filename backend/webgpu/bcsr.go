package webgpu

import (
	"github.com/go-webgpu/webgpu/wgpu"
	"go.uber.org/zap"

	"github.com/abhimeda/rocALUTION/backend/host"
	"github.com/abhimeda/rocALUTION/sparse"
)

// BCSR is a block-compressed-sparse-row matrix in device memory. It owns
// three wgpu buffers mirroring the host layout: block row pointers
// (nrowb+1 int32), block column indices (nnzb int32) and flattened block
// values (nnzb*blockdim^2 values).
//
// Copies against another device matrix or a host matrix follow one
// discipline: matching format tag, first-use allocation when the
// destination is empty, a seven-field shape assertion, then the three
// array copies in fixed order row_offset, col, val. The asynchronous
// variants enqueue the copies without fencing; a later Synchronize on the
// backend (performed implicitly by every synchronous operation) makes the
// results visible.
type BCSR[T sparse.Float] struct {
	backend *Backend

	rowOffset *wgpu.Buffer
	col       *wgpu.Buffer
	val       *wgpu.Buffer

	nrowb    int
	ncolb    int
	nnzb     int
	blockDim int

	nrow int
	ncol int
	nnz  int

	descr *sparse.Descriptor
	dir   sparse.BlockDirection
}

var _ sparse.Matrix[float32] = (*BCSR[float32])(nil)

// NewBCSR creates an empty device BCSR matrix on the given backend. A
// handle without a backend context is invalid; passing nil fails fast.
func NewBCSR[T sparse.Float](b *Backend) *BCSR[T] {
	if b == nil {
		sparse.Fatalf("webgpu BCSR: no backend context")
	}
	return &BCSR[T]{backend: b, descr: sparse.NewDescriptor()}
}

// Format returns sparse.BCSR.
func (m *BCSR[T]) Format() sparse.Format { return sparse.BCSR }

// Rows returns the scalar row count (nrowb * blockdim).
func (m *BCSR[T]) Rows() int { return m.nrow }

// Cols returns the scalar column count (ncolb * blockdim).
func (m *BCSR[T]) Cols() int { return m.ncol }

// Nnz returns the flattened stored entry count (nnzb * blockdim^2).
func (m *BCSR[T]) Nnz() int { return m.nnz }

// BlockDim returns the block dimension, 0 when unset.
func (m *BCSR[T]) BlockDim() int { return m.blockDim }

// SetBlockDim presets the block dimension used by ConvertFrom.
func (m *BCSR[T]) SetBlockDim(blockDim int) {
	if blockDim <= 1 {
		sparse.Fatalf("webgpu BCSR: SetBlockDim: blockdim %d must be > 1", blockDim)
	}
	m.blockDim = blockDim
}

// BlockDirection returns the scalar layout inside each block.
func (m *BCSR[T]) BlockDirection() sparse.BlockDirection { return m.dir }

// Descr returns the kernel descriptor. Callers may adjust its index base
// before handing the matrix to Apply or a conversion.
func (m *BCSR[T]) Descr() *sparse.Descriptor { return m.descr }

// SetBlockDirection selects the scalar layout inside each block. It is
// passed to the multiply kernel on every call.
func (m *BCSR[T]) SetBlockDirection(dir sparse.BlockDirection) { m.dir = dir }

// Allocate sizes the matrix for nnzb blocks of blockdim x blockdim in an
// nrowb x ncolb block grid, with zero-initialized device buffers. nnzb ==
// 0 leaves the matrix in the empty state.
func (m *BCSR[T]) Allocate(nnzb, nrowb, ncolb, blockDim int) {
	if nnzb < 0 || nrowb < 0 || ncolb < 0 {
		sparse.Fatalf("webgpu BCSR: Allocate: negative shape (%d, %d, %d)", nnzb, nrowb, ncolb)
	}
	if blockDim <= 1 {
		sparse.Fatalf("webgpu BCSR: Allocate: blockdim %d must be > 1", blockDim)
	}

	if m.nnz > 0 {
		m.Clear()
	}

	if nnzb > 0 {
		m.rowOffset = m.backend.allocBuffer(rowOffsetBytes(nrowb))
		m.col = m.backend.allocBuffer(colBytes(nnzb))
		m.val = m.backend.allocBuffer(valueBytes[T](nnzb, blockDim))

		m.nrowb = nrowb
		m.ncolb = ncolb
		m.nnzb = nnzb
		m.blockDim = blockDim

		m.nrow = nrowb * blockDim
		m.ncol = ncolb * blockDim
		m.nnz = nnzb * blockDim * blockDim
	}
}

// Clear releases the device buffers and resets the shape to the empty
// state. Clearing an already-empty matrix is a no-op.
func (m *BCSR[T]) Clear() {
	if m.nnz > 0 {
		releaseBuffer(&m.rowOffset)
		releaseBuffer(&m.col)
		releaseBuffer(&m.val)

		m.nrowb = 0
		m.ncolb = 0
		m.nnzb = 0

		m.nrow = 0
		m.ncol = 0
		m.nnz = 0
	}
}

// SetDataPtr transfers ownership of three externally created device
// buffers into the matrix. All outstanding backend work is drained before
// the swap so no in-flight copy can alias the moved storage.
func (m *BCSR[T]) SetDataPtr(rowOffset, col, val *wgpu.Buffer, nnzb, nrowb, ncolb, blockDim int) {
	if rowOffset == nil || col == nil || val == nil {
		sparse.Fatalf("webgpu BCSR: SetDataPtr: nil buffer")
	}
	if nnzb <= 0 || nrowb <= 0 || ncolb <= 0 {
		sparse.Fatalf("webgpu BCSR: SetDataPtr: non-positive shape (%d, %d, %d)", nnzb, nrowb, ncolb)
	}
	if blockDim <= 1 {
		sparse.Fatalf("webgpu BCSR: SetDataPtr: blockdim %d must be > 1", blockDim)
	}

	m.Clear()

	m.backend.Synchronize()

	m.rowOffset = rowOffset
	m.col = col
	m.val = val

	m.nrowb = nrowb
	m.ncolb = ncolb
	m.nnzb = nnzb
	m.blockDim = blockDim

	m.nrow = nrowb * blockDim
	m.ncol = ncolb * blockDim
	m.nnz = nnzb * blockDim * blockDim
}

// LeaveDataPtr relinquishes ownership of the three device buffers and the
// block dimension to the caller, leaving the matrix empty. Outstanding
// backend work is drained first.
func (m *BCSR[T]) LeaveDataPtr() (rowOffset, col, val *wgpu.Buffer, blockDim int) {
	if m.nrow <= 0 || m.ncol <= 0 || m.nnz <= 0 {
		sparse.Fatalf("webgpu BCSR: LeaveDataPtr: empty matrix")
	}
	if m.blockDim <= 1 {
		sparse.Fatalf("webgpu BCSR: LeaveDataPtr: blockdim %d must be > 1", m.blockDim)
	}

	m.backend.Synchronize()

	rowOffset = m.rowOffset
	col = m.col
	val = m.val
	blockDim = m.blockDim

	m.rowOffset = nil
	m.col = nil
	m.val = nil

	m.nrowb = 0
	m.ncolb = 0
	m.nnzb = 0
	m.blockDim = 0

	m.nrow = 0
	m.ncol = 0
	m.nnz = 0

	return rowOffset, col, val, blockDim
}

// assertSameShapeHost verifies the seven shape fields against a host
// matrix before any bytes move.
func (m *BCSR[T]) assertSameShapeHost(other *host.BCSR[T]) {
	onnzb, onrowb, oncolb, obd := other.BlockShape()
	if m.nnz != other.Nnz() || m.nrow != other.Rows() || m.ncol != other.Cols() ||
		m.nrowb != onrowb || m.ncolb != oncolb || m.nnzb != onnzb || m.blockDim != obd {
		m.Info()
		other.Info()
		sparse.Fatalf("webgpu BCSR: copy shape mismatch")
	}
}

// assertSameShape verifies the seven shape fields against another device
// matrix before any bytes move.
func (m *BCSR[T]) assertSameShape(other *BCSR[T]) {
	if m.nnz != other.nnz || m.nrow != other.nrow || m.ncol != other.ncol ||
		m.nrowb != other.nrowb || m.ncolb != other.ncolb || m.nnzb != other.nnzb ||
		m.blockDim != other.blockDim {
		m.Info()
		other.Info()
		sparse.Fatalf("webgpu BCSR: copy shape mismatch")
	}
}

// CopyFromHost performs a blocking host-to-device copy of the three
// arrays, allocating on first use.
func (m *BCSR[T]) CopyFromHost(src *host.BCSR[T]) {
	m.copyFromHost(src)
	m.backend.Synchronize()
}

// CopyFromHostAsync enqueues the host-to-device copy without fencing.
func (m *BCSR[T]) CopyFromHostAsync(src *host.BCSR[T]) {
	m.copyFromHost(src)
}

func (m *BCSR[T]) copyFromHost(src *host.BCSR[T]) {
	if m.Format() != src.Format() {
		sparse.FatalUnsupported[T]("webgpu BCSR: CopyFromHost", m, src)
	}

	if m.nnz == 0 {
		nnzb, nrowb, ncolb, bd := src.BlockShape()
		m.Allocate(nnzb, nrowb, ncolb, bd)
	}

	m.assertSameShapeHost(src)

	if m.nnz > 0 {
		m.backend.hostToDeviceAsync(m.rowOffset, bytesOf(src.RowOffset()))
		m.backend.hostToDeviceAsync(m.col, bytesOf(src.Col()))
		m.backend.hostToDeviceAsync(m.val, bytesOf(src.Val()))
	}
}

// CopyToHost performs a blocking device-to-host copy of the three arrays,
// allocating the destination on first use.
func (m *BCSR[T]) CopyToHost(dst *host.BCSR[T]) {
	m.copyToHost(dst)
	m.backend.Synchronize()
}

// CopyToHostAsync enqueues the device-to-host copy without fencing; the
// destination arrays are undefined until the next Synchronize.
func (m *BCSR[T]) CopyToHostAsync(dst *host.BCSR[T]) {
	m.copyToHost(dst)
}

func (m *BCSR[T]) copyToHost(dst *host.BCSR[T]) {
	if m.Format() != dst.Format() {
		sparse.FatalUnsupported[T]("webgpu BCSR: CopyToHost", m, dst)
	}

	if dst.Nnz() == 0 {
		dst.Allocate(m.nnzb, m.nrowb, m.ncolb, m.blockDim)
	}

	m.assertSameShapeHost(dst)

	if m.nnz > 0 {
		m.backend.deviceToHostAsync(m.rowOffset, bytesOf(dst.RowOffset()))
		m.backend.deviceToHostAsync(m.col, bytesOf(dst.Col()))
		m.backend.deviceToHostAsync(m.val, bytesOf(dst.Val()))
	}
}

// CopyFrom copies another matrix of the same format into this one. A
// device source is a device-to-device copy; a host source goes through
// CopyFromHost. Any other source type is a fatal pairing error.
func (m *BCSR[T]) CopyFrom(src sparse.Matrix[T]) {
	switch cast := src.(type) {
	case *BCSR[T]:
		m.copyFromDevice(cast)
		m.backend.Synchronize()
	case *host.BCSR[T]:
		m.CopyFromHost(cast)
	default:
		sparse.FatalUnsupported[T]("webgpu BCSR: CopyFrom", m, src)
	}
}

// CopyFromAsync enqueues the copy without fencing.
func (m *BCSR[T]) CopyFromAsync(src sparse.Matrix[T]) {
	switch cast := src.(type) {
	case *BCSR[T]:
		m.copyFromDevice(cast)
	case *host.BCSR[T]:
		m.CopyFromHostAsync(cast)
	default:
		sparse.FatalUnsupported[T]("webgpu BCSR: CopyFromAsync", m, src)
	}
}

func (m *BCSR[T]) copyFromDevice(src *BCSR[T]) {
	if m.Format() != src.Format() {
		sparse.FatalUnsupported[T]("webgpu BCSR: CopyFrom", m, src)
	}

	if m.nnz == 0 {
		m.Allocate(src.nnzb, src.nrowb, src.ncolb, src.blockDim)
	}

	m.assertSameShape(src)

	if m.nnz > 0 {
		m.backend.deviceToDeviceAsync(m.rowOffset, src.rowOffset, rowOffsetBytes(m.nrowb))
		m.backend.deviceToDeviceAsync(m.col, src.col, colBytes(m.nnzb))
		m.backend.deviceToDeviceAsync(m.val, src.val, valueBytes[T](m.nnzb, m.blockDim))
	}
}

// CopyTo copies this matrix into another matrix of the same format.
func (m *BCSR[T]) CopyTo(dst sparse.Matrix[T]) {
	switch cast := dst.(type) {
	case *BCSR[T]:
		cast.CopyFrom(m)
	case *host.BCSR[T]:
		m.CopyToHost(cast)
	default:
		sparse.FatalUnsupported[T]("webgpu BCSR: CopyTo", m, dst)
	}
}

// CopyToAsync enqueues the copy without fencing.
func (m *BCSR[T]) CopyToAsync(dst sparse.Matrix[T]) {
	switch cast := dst.(type) {
	case *BCSR[T]:
		cast.CopyFromAsync(m)
	case *host.BCSR[T]:
		m.CopyToHostAsync(cast)
	default:
		sparse.FatalUnsupported[T]("webgpu BCSR: CopyToAsync", m, dst)
	}
}

// ConvertFrom builds this matrix from a source on the device backend. An
// empty source always succeeds and leaves this matrix empty. A device
// BCSR source is a pure copy. A device CSR source is regrouped into
// blocks of the preset block dimension. Any other pairing fails
// recoverably with this matrix cleared.
func (m *BCSR[T]) ConvertFrom(src sparse.Matrix[T]) bool {
	m.Clear()

	// empty matrix is empty matrix
	if src.Nnz() == 0 {
		return true
	}

	if cast, ok := src.(*BCSR[T]); ok {
		m.CopyFrom(cast)
		return true
	}

	if cast, ok := src.(*CSR[T]); ok {
		return m.convertFromCSR(cast)
	}

	return false
}

// Info logs the matrix state.
func (m *BCSR[T]) Info() {
	zap.L().Info("webgpu BCSR matrix",
		zap.Int("nrow", m.nrow),
		zap.Int("ncol", m.ncol),
		zap.Int("nnz", m.nnz),
		zap.Int("nrowb", m.nrowb),
		zap.Int("ncolb", m.ncolb),
		zap.Int("nnzb", m.nnzb),
		zap.Int("blockdim", m.blockDim),
		zap.Stringer("blockDirection", m.dir),
		zap.Int("valueBytes", sparse.SizeOf[T]()))
}
