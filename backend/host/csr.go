package host

import (
	"go.uber.org/zap"

	"github.com/abhimeda/rocALUTION/sparse"
)

// CSR is an unblocked compressed-sparse-row matrix in host memory. In this
// core it exists as a conversion source for BCSR; the full CSR operation
// set lives outside this layer.
type CSR[T sparse.Float] struct {
	rowOffset []int32
	col       []int32
	val       []T

	nrow int
	ncol int
	nnz  int

	descr *sparse.Descriptor
}

var _ sparse.Matrix[float64] = (*CSR[float64])(nil)

// NewCSR creates an empty host CSR matrix.
func NewCSR[T sparse.Float]() *CSR[T] {
	return &CSR[T]{descr: sparse.NewDescriptor()}
}

// Format returns sparse.CSR.
func (m *CSR[T]) Format() sparse.Format { return sparse.CSR }

// Rows returns the scalar row count.
func (m *CSR[T]) Rows() int { return m.nrow }

// Cols returns the scalar column count.
func (m *CSR[T]) Cols() int { return m.ncol }

// Nnz returns the stored nonzero count.
func (m *CSR[T]) Nnz() int { return m.nnz }

// Allocate sizes the matrix for nnz nonzeros in an nrow x ncol shape. All
// arrays are zero-initialized. nnz == 0 leaves the matrix empty.
func (m *CSR[T]) Allocate(nnz, nrow, ncol int) {
	if nnz < 0 || nrow < 0 || ncol < 0 {
		sparse.Fatalf("host CSR: Allocate: negative shape (%d, %d, %d)", nnz, nrow, ncol)
	}

	if m.nnz > 0 {
		m.Clear()
	}

	if nnz > 0 {
		m.rowOffset = allocate[int32](nrow + 1)
		m.col = allocate[int32](nnz)
		m.val = allocate[T](nnz)

		m.nrow = nrow
		m.ncol = ncol
		m.nnz = nnz
	}
}

// Clear releases all storage and resets the shape to empty.
func (m *CSR[T]) Clear() {
	if m.nnz > 0 {
		free(&m.rowOffset)
		free(&m.col)
		free(&m.val)

		m.nrow = 0
		m.ncol = 0
		m.nnz = 0
	}
}

// SetDataPtr transfers ownership of externally built CSR arrays into the
// matrix. The caller must not touch the arrays afterward.
func (m *CSR[T]) SetDataPtr(rowOffset, col []int32, val []T, nnz, nrow, ncol int) {
	if rowOffset == nil || col == nil || val == nil {
		sparse.Fatalf("host CSR: SetDataPtr: nil array")
	}
	if nnz <= 0 || nrow <= 0 || ncol <= 0 {
		sparse.Fatalf("host CSR: SetDataPtr: non-positive shape (%d, %d, %d)", nnz, nrow, ncol)
	}

	m.Clear()

	m.rowOffset = rowOffset
	m.col = col
	m.val = val

	m.nrow = nrow
	m.ncol = ncol
	m.nnz = nnz
}

// LeaveDataPtr relinquishes ownership of the three arrays to the caller
// and leaves the matrix empty.
func (m *CSR[T]) LeaveDataPtr() (rowOffset, col []int32, val []T) {
	if m.nnz <= 0 {
		sparse.Fatalf("host CSR: LeaveDataPtr: empty matrix")
	}

	rowOffset = m.rowOffset
	col = m.col
	val = m.val

	m.rowOffset = nil
	m.col = nil
	m.val = nil

	m.nrow = 0
	m.ncol = 0
	m.nnz = 0

	return rowOffset, col, val
}

// RowOffset returns the row pointer array. The matrix keeps ownership.
func (m *CSR[T]) RowOffset() []int32 { return m.rowOffset }

// Col returns the column index array. The matrix keeps ownership.
func (m *CSR[T]) Col() []int32 { return m.col }

// Val returns the value array. The matrix keeps ownership.
func (m *CSR[T]) Val() []T { return m.val }

// Descr returns the kernel descriptor. Callers may adjust its index base
// before handing the matrix to a conversion.
func (m *CSR[T]) Descr() *sparse.Descriptor { return m.descr }

// Info logs the matrix state.
func (m *CSR[T]) Info() {
	zap.L().Info("host CSR matrix",
		zap.Int("nrow", m.nrow),
		zap.Int("ncol", m.ncol),
		zap.Int("nnz", m.nnz),
		zap.Int("valueBytes", sparse.SizeOf[T]()))
}
