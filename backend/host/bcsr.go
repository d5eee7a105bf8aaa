package host

import (
	"go.uber.org/zap"

	"github.com/abhimeda/rocALUTION/sparse"
)

// BCSR is a block-compressed-sparse-row matrix in host memory. It owns
// three arrays: block row pointers (nrowb+1), block column indices (nnzb)
// and flattened block values (nnzb*blockdim^2), plus the block shape and a
// kernel descriptor.
type BCSR[T sparse.Float] struct {
	rowOffset []int32
	col       []int32
	val       []T

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

var _ sparse.Matrix[float64] = (*BCSR[float64])(nil)

// NewBCSR creates an empty host BCSR matrix with a default descriptor
// (zero index base, general type) and row-major block layout.
func NewBCSR[T sparse.Float]() *BCSR[T] {
	return &BCSR[T]{descr: sparse.NewDescriptor()}
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

// SetBlockDim presets the block dimension used by ConvertFrom when
// regrouping an unblocked source. blockdim must be greater than one.
func (m *BCSR[T]) SetBlockDim(blockDim int) {
	if blockDim <= 1 {
		sparse.Fatalf("host BCSR: SetBlockDim: blockdim %d must be > 1", blockDim)
	}
	m.blockDim = blockDim
}

// BlockDirection returns the scalar layout inside each block.
func (m *BCSR[T]) BlockDirection() sparse.BlockDirection { return m.dir }

// SetBlockDirection selects the scalar layout inside each block. It is
// passed to the multiply kernel on every call.
func (m *BCSR[T]) SetBlockDirection(dir sparse.BlockDirection) { m.dir = dir }

// Allocate sizes the matrix for nnzb blocks of blockdim x blockdim in an
// nrowb x ncolb block grid. All three arrays are zero-initialized and the
// derived scalar shape is re-established. nnzb == 0 leaves the matrix in
// the empty state.
func (m *BCSR[T]) Allocate(nnzb, nrowb, ncolb, blockDim int) {
	if nnzb < 0 || nrowb < 0 || ncolb < 0 {
		sparse.Fatalf("host BCSR: Allocate: negative shape (%d, %d, %d)", nnzb, nrowb, ncolb)
	}
	if blockDim <= 1 {
		sparse.Fatalf("host BCSR: Allocate: blockdim %d must be > 1", blockDim)
	}

	if m.nnz > 0 {
		m.Clear()
	}

	if nnzb > 0 {
		m.rowOffset = allocate[int32](nrowb + 1)
		m.col = allocate[int32](nnzb)
		m.val = allocate[T](nnzb * blockDim * blockDim)

		m.nrowb = nrowb
		m.ncolb = ncolb
		m.nnzb = nnzb
		m.blockDim = blockDim

		m.nrow = nrowb * blockDim
		m.ncol = ncolb * blockDim
		m.nnz = nnzb * blockDim * blockDim
	}
}

// Clear releases all storage and resets the shape to the empty state. The
// handle itself stays valid; clearing an already-empty matrix is a no-op.
func (m *BCSR[T]) Clear() {
	if m.nnz > 0 {
		free(&m.rowOffset)
		free(&m.col)
		free(&m.val)

		m.nrowb = 0
		m.ncolb = 0
		m.nnzb = 0

		m.nrow = 0
		m.ncol = 0
		m.nnz = 0
	}
}

// SetDataPtr transfers ownership of three externally built arrays into the
// matrix. The caller must not reuse them afterward. Existing storage is
// released first.
func (m *BCSR[T]) SetDataPtr(rowOffset, col []int32, val []T, nnzb, nrowb, ncolb, blockDim int) {
	if rowOffset == nil || col == nil || val == nil {
		sparse.Fatalf("host BCSR: SetDataPtr: nil array")
	}
	if nnzb <= 0 || nrowb <= 0 || ncolb <= 0 {
		sparse.Fatalf("host BCSR: SetDataPtr: non-positive shape (%d, %d, %d)", nnzb, nrowb, ncolb)
	}
	if blockDim <= 1 {
		sparse.Fatalf("host BCSR: SetDataPtr: blockdim %d must be > 1", blockDim)
	}

	m.Clear()

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

// LeaveDataPtr relinquishes ownership of the three arrays and the block
// dimension to the caller, leaving the matrix empty.
func (m *BCSR[T]) LeaveDataPtr() (rowOffset, col []int32, val []T, blockDim int) {
	if m.nrow <= 0 || m.ncol <= 0 || m.nnz <= 0 {
		sparse.Fatalf("host BCSR: LeaveDataPtr: empty matrix")
	}
	if m.blockDim <= 1 {
		sparse.Fatalf("host BCSR: LeaveDataPtr: blockdim %d must be > 1", m.blockDim)
	}

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

// RowOffset returns the block row pointer array. The matrix keeps ownership.
func (m *BCSR[T]) RowOffset() []int32 { return m.rowOffset }

// Col returns the block column index array. The matrix keeps ownership.
func (m *BCSR[T]) Col() []int32 { return m.col }

// Val returns the flattened block value array. The matrix keeps ownership.
func (m *BCSR[T]) Val() []T { return m.val }

// Descr returns the kernel descriptor. Callers may adjust its index base
// before handing the matrix to Apply or a conversion.
func (m *BCSR[T]) Descr() *sparse.Descriptor { return m.descr }

// BlockShape returns the block shape (nnzb, nrowb, ncolb, blockdim).
func (m *BCSR[T]) BlockShape() (nnzb, nrowb, ncolb, blockDim int) {
	return m.nnzb, m.nrowb, m.ncolb, m.blockDim
}

// Zeros sets every stored value to zero, keeping the sparsity structure.
func (m *BCSR[T]) Zeros() {
	setToZero(m.val)
}

// assertSameShape verifies the seven shape fields of both handles agree.
// A disagreement after first-use allocation is a caller logic error.
func (m *BCSR[T]) assertSameShape(other *BCSR[T]) {
	if m.nnz != other.nnz || m.nrow != other.nrow || m.ncol != other.ncol ||
		m.nrowb != other.nrowb || m.ncolb != other.ncolb || m.nnzb != other.nnzb ||
		m.blockDim != other.blockDim {
		m.Info()
		other.Info()
		sparse.Fatalf("host BCSR: copy shape mismatch")
	}
}

// CopyFrom copies another matrix of the same format on the host backend
// into this one, allocating on first use. Any other source type is a fatal
// pairing error; cross-backend copies are initiated from the device handle.
func (m *BCSR[T]) CopyFrom(src sparse.Matrix[T]) {
	if m.Format() != src.Format() {
		sparse.FatalUnsupported[T]("host BCSR: CopyFrom", m, src)
	}

	cast, ok := src.(*BCSR[T])
	if !ok {
		sparse.FatalUnsupported[T]("host BCSR: CopyFrom", m, src)
	}

	if m.nnz == 0 {
		m.Allocate(cast.nnzb, cast.nrowb, cast.ncolb, cast.blockDim)
	}

	m.assertSameShape(cast)

	if m.nnz > 0 {
		copy(m.rowOffset, cast.rowOffset)
		copy(m.col, cast.col)
		copy(m.val, cast.val)
	}
}

// CopyTo copies this matrix into another host matrix of the same format.
func (m *BCSR[T]) CopyTo(dst sparse.Matrix[T]) {
	if m.Format() != dst.Format() {
		sparse.FatalUnsupported[T]("host BCSR: CopyTo", m, dst)
	}

	cast, ok := dst.(*BCSR[T])
	if !ok {
		sparse.FatalUnsupported[T]("host BCSR: CopyTo", m, dst)
	}

	cast.CopyFrom(m)
}

// CopyFromAsync behaves like CopyFrom. Host memory operations complete
// in-line, so the asynchronous variant carries the same guarantees.
func (m *BCSR[T]) CopyFromAsync(src sparse.Matrix[T]) { m.CopyFrom(src) }

// CopyToAsync behaves like CopyTo.
func (m *BCSR[T]) CopyToAsync(dst sparse.Matrix[T]) { m.CopyTo(dst) }

// ConvertFrom builds this matrix from a source on the host backend. An
// empty source always succeeds and leaves this matrix empty. A BCSR source
// is a pure copy. A CSR source is regrouped into blocks of the preset
// block dimension. Any other pairing fails recoverably with this matrix
// cleared; the caller decides the next fallback.
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
		rowOffset, col, val, nrowb, ncolb, nnzb, ok := csrToBCSR(
			cast.Descr(), cast.Nnz(), cast.Rows(), cast.Cols(),
			cast.RowOffset(), cast.Col(), cast.Val(),
			m.blockDim, m.dir)
		if !ok {
			m.Clear()
			return false
		}

		m.rowOffset = rowOffset
		m.col = col
		m.val = val

		m.nrowb = nrowb
		m.ncolb = ncolb
		m.nnzb = nnzb

		m.nrow = nrowb * m.blockDim
		m.ncol = ncolb * m.blockDim
		m.nnz = nnzb * m.blockDim * m.blockDim

		return true
	}

	return false
}

// Apply computes y := A*x. The operands must be host vectors sized to the
// scalar shape; an empty matrix leaves y untouched.
func (m *BCSR[T]) Apply(in sparse.Vector[T], out sparse.Vector[T]) {
	if m.nnz == 0 {
		return
	}

	castIn, castOut := m.castVectors("Apply", in, out)
	bsrmv(m.descr, m.dir, m.nrowb, m.ncolb, m.nnzb, T(1), m.val, m.rowOffset,
		m.col, m.blockDim, castIn.data, T(0), castOut.data)
}

// ApplyAdd computes y := y + scalar*A*x with the same requirements as
// Apply.
func (m *BCSR[T]) ApplyAdd(in sparse.Vector[T], scalar T, out sparse.Vector[T]) {
	if m.nnz == 0 {
		return
	}

	castIn, castOut := m.castVectors("ApplyAdd", in, out)
	bsrmv(m.descr, m.dir, m.nrowb, m.ncolb, m.nnzb, scalar, m.val, m.rowOffset,
		m.col, m.blockDim, castIn.data, T(1), castOut.data)
}

func (m *BCSR[T]) castVectors(op string, in sparse.Vector[T], out sparse.Vector[T]) (*Vector[T], *Vector[T]) {
	if in.Size() != m.ncol || out.Size() != m.nrow {
		sparse.Fatalf("host BCSR: %s: operand sizes (%d, %d) do not match matrix shape (%d, %d)",
			op, in.Size(), out.Size(), m.nrow, m.ncol)
	}

	castIn, okIn := in.(*Vector[T])
	castOut, okOut := out.(*Vector[T])
	if !okIn || !okOut {
		in.Info()
		out.Info()
		sparse.Fatalf("host BCSR: %s: operands are not host vectors", op)
	}

	return castIn, castOut
}

// Info logs the matrix state.
func (m *BCSR[T]) Info() {
	zap.L().Info("host BCSR matrix",
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
