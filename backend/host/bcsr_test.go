package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBCSRAllocateInvariants(t *testing.T) {
	tests := []struct {
		name                   string
		nnzb, nrowb, ncolb, bd int
		nrow, ncol, nnz        int
	}{
		{"single block", 1, 2, 2, 2, 4, 4, 4},
		{"dense blocks", 4, 2, 2, 3, 6, 6, 36},
		{"tall", 3, 5, 1, 2, 10, 2, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewBCSR[float64]()
			m.Allocate(tt.nnzb, tt.nrowb, tt.ncolb, tt.bd)

			assert.Equal(t, tt.nrow, m.Rows())
			assert.Equal(t, tt.ncol, m.Cols())
			assert.Equal(t, tt.nnz, m.Nnz())

			require.Len(t, m.RowOffset(), tt.nrowb+1)
			require.Len(t, m.Col(), tt.nnzb)
			require.Len(t, m.Val(), tt.nnzb*tt.bd*tt.bd)

			for _, v := range m.RowOffset() {
				assert.Zero(t, v)
			}
			for _, v := range m.Col() {
				assert.Zero(t, v)
			}
			for _, v := range m.Val() {
				assert.Zero(t, v)
			}
		})
	}
}

func TestBCSRAllocateEmpty(t *testing.T) {
	m := NewBCSR[float32]()
	m.Allocate(0, 4, 4, 2)

	assert.Zero(t, m.Rows())
	assert.Zero(t, m.Cols())
	assert.Zero(t, m.Nnz())
	assert.Nil(t, m.RowOffset())
}

func TestBCSRAllocatePreconditions(t *testing.T) {
	m := NewBCSR[float32]()

	assert.Panics(t, func() { m.Allocate(-1, 2, 2, 2) })
	assert.Panics(t, func() { m.Allocate(1, 2, 2, 1) })
	assert.Panics(t, func() { m.Allocate(1, 2, 2, 0) })
}

func TestBCSRClearIdempotent(t *testing.T) {
	m := NewBCSR[float32]()

	// Clearing an empty handle never faults.
	m.Clear()
	m.Clear()

	m.Allocate(2, 2, 2, 2)
	m.Clear()
	assert.Zero(t, m.Nnz())
	m.Clear()
	assert.Zero(t, m.Nnz())
}

func TestBCSRSetLeaveDataPtr(t *testing.T) {
	rowOffset := []int32{0, 1, 2}
	col := []int32{0, 1}
	val := []float64{1, 2, 3, 4, 5, 6, 7, 8}

	m := NewBCSR[float64]()
	m.SetDataPtr(rowOffset, col, val, 2, 2, 2, 2)

	assert.Equal(t, 4, m.Rows())
	assert.Equal(t, 4, m.Cols())
	assert.Equal(t, 8, m.Nnz())

	gotRowOffset, gotCol, gotVal, gotBD := m.LeaveDataPtr()

	// The exact arrays come back, and the handle is empty.
	assert.Equal(t, &rowOffset[0], &gotRowOffset[0])
	assert.Equal(t, &col[0], &gotCol[0])
	assert.Equal(t, &val[0], &gotVal[0])
	assert.Equal(t, 2, gotBD)

	assert.Zero(t, m.Rows())
	assert.Zero(t, m.Cols())
	assert.Zero(t, m.Nnz())
	assert.Zero(t, m.BlockDim())
}

func TestBCSRSetDataPtrPreconditions(t *testing.T) {
	m := NewBCSR[float32]()

	assert.Panics(t, func() {
		m.SetDataPtr(nil, []int32{0}, []float32{1, 2, 3, 4}, 1, 1, 1, 2)
	})
	assert.Panics(t, func() {
		m.SetDataPtr([]int32{0, 1}, []int32{0}, []float32{1}, 1, 1, 1, 1)
	})
}

func TestBCSRLeaveDataPtrEmptyPanics(t *testing.T) {
	m := NewBCSR[float32]()
	assert.Panics(t, func() { m.LeaveDataPtr() })
}

func TestBCSRCopyFromAllocatesEmptyDestination(t *testing.T) {
	src := NewBCSR[float32]()
	src.Allocate(2, 2, 2, 2)
	copy(src.RowOffset(), []int32{0, 1, 2})
	copy(src.Col(), []int32{0, 1})
	for i := range src.Val() {
		src.Val()[i] = float32(i)
	}

	dst := NewBCSR[float32]()
	dst.CopyFrom(src)

	assert.Equal(t, src.RowOffset(), dst.RowOffset())
	assert.Equal(t, src.Col(), dst.Col())
	assert.Equal(t, src.Val(), dst.Val())
}

func TestBCSRCopyShapeMismatchPanics(t *testing.T) {
	src := NewBCSR[float32]()
	src.Allocate(2, 2, 2, 2)

	// Destination already holds incompatible nonzero storage: the shape
	// check must trigger before any bytes move.
	dst := NewBCSR[float32]()
	dst.Allocate(1, 3, 3, 2)
	for i := range dst.Val() {
		dst.Val()[i] = 42
	}

	assert.Panics(t, func() { dst.CopyFrom(src) })

	// Nothing was copied.
	for _, v := range dst.Val() {
		assert.Equal(t, float32(42), v)
	}
}

func TestBCSRCopyFormatMismatchPanics(t *testing.T) {
	csr := NewCSR[float32]()
	csr.Allocate(4, 4, 4)

	dst := NewBCSR[float32]()
	assert.Panics(t, func() { dst.CopyFrom(csr) })
}

func TestBCSRApplyIdentityBlock(t *testing.T) {
	// A single 2x2 identity block at block position (0,0) of a 2x2 block
	// grid: applying [3,4,0,0] yields [3,4,0,0].
	m := NewBCSR[float32]()
	m.Allocate(1, 2, 2, 2)
	copy(m.RowOffset(), []int32{0, 1, 1})
	copy(m.Col(), []int32{0})
	copy(m.Val(), []float32{1, 0, 0, 1})

	x := NewVector[float32]()
	x.CopyFromData([]float32{3, 4, 0, 0})
	y := NewVector[float32]()
	y.Allocate(4)

	m.Apply(x, y)

	assert.Equal(t, []float32{3, 4, 0, 0}, y.Data())
}

func TestBCSRApplyEmptyIsNoOp(t *testing.T) {
	m := NewBCSR[float64]()

	x := NewVector[float64]()
	x.Allocate(0)
	y := NewVector[float64]()
	y.CopyFromData([]float64{7, 8})

	m.Apply(x, y)
	assert.Equal(t, []float64{7, 8}, y.Data())

	m.ApplyAdd(x, 3.5, y)
	assert.Equal(t, []float64{7, 8}, y.Data())
}

func TestBCSRApplyAdd(t *testing.T) {
	m := NewBCSR[float64]()
	m.Allocate(1, 1, 1, 2)
	copy(m.RowOffset(), []int32{0, 1})
	copy(m.Col(), []int32{0})
	copy(m.Val(), []float64{1, 2, 3, 4})

	x := NewVector[float64]()
	x.CopyFromData([]float64{1, 1})
	y := NewVector[float64]()
	y.CopyFromData([]float64{10, 20})

	// y += 2 * A * x, A*x = [3, 7]
	m.ApplyAdd(x, 2, y)

	assert.InDelta(t, 16, y.Data()[0], 1e-12)
	assert.InDelta(t, 34, y.Data()[1], 1e-12)
}

func TestBCSRApplySizeMismatchPanics(t *testing.T) {
	m := NewBCSR[float32]()
	m.Allocate(1, 2, 2, 2)

	x := NewVector[float32]()
	x.Allocate(3)
	y := NewVector[float32]()
	y.Allocate(4)

	assert.Panics(t, func() { m.Apply(x, y) })
}

func TestBCSRConvertFromEmptySucceeds(t *testing.T) {
	src := NewCSR[float64]()

	dst := NewBCSR[float64]()
	require.True(t, dst.ConvertFrom(src))
	assert.Zero(t, dst.Nnz())
}

func TestBCSRConvertFromSameTypeIsCopy(t *testing.T) {
	src := NewBCSR[float32]()
	src.Allocate(1, 1, 1, 2)
	copy(src.Val(), []float32{1, 2, 3, 4})

	dst := NewBCSR[float32]()
	require.True(t, dst.ConvertFrom(src))
	assert.Equal(t, src.Val(), dst.Val())
}

func TestBCSRConvertFromWithoutBlockDimFails(t *testing.T) {
	src := NewCSR[float32]()
	src.SetDataPtr([]int32{0, 1}, []int32{0}, []float32{5}, 1, 1, 1)

	// No preset block dimension: recoverable failure, destination cleared.
	dst := NewBCSR[float32]()
	assert.False(t, dst.ConvertFrom(src))
	assert.Zero(t, dst.Nnz())
}

func TestCSRSetLeaveDataPtr(t *testing.T) {
	rowOffset := []int32{0, 1, 2}
	col := []int32{0, 1}
	val := []float32{1, 2}

	m := NewCSR[float32]()
	m.SetDataPtr(rowOffset, col, val, 2, 2, 2)
	assert.Equal(t, 2, m.Nnz())

	gotRowOffset, gotCol, gotVal := m.LeaveDataPtr()
	assert.Equal(t, &rowOffset[0], &gotRowOffset[0])
	assert.Equal(t, &col[0], &gotCol[0])
	assert.Equal(t, &val[0], &gotVal[0])
	assert.Zero(t, m.Nnz())
}

func TestBCSRZerosKeepsStructure(t *testing.T) {
	m := NewBCSR[float64]()
	m.Allocate(1, 2, 2, 2)
	copy(m.RowOffset(), []int32{0, 1, 1})
	copy(m.Col(), []int32{0})
	copy(m.Val(), []float64{1, 2, 3, 4})

	m.Zeros()

	assert.Equal(t, []int32{0, 1, 1}, m.RowOffset())
	assert.Equal(t, []int32{0}, m.Col())
	assert.Equal(t, []float64{0, 0, 0, 0}, m.Val())
	assert.Equal(t, 4, m.Nnz())
}
