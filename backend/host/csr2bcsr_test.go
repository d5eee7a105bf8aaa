package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhimeda/rocALUTION/sparse"
)

// identityCSR builds an n x n identity matrix in CSR form.
func identityCSR(n int) *CSR[float64] {
	rowOffset := make([]int32, n+1)
	col := make([]int32, n)
	val := make([]float64, n)
	for i := 0; i < n; i++ {
		rowOffset[i+1] = int32(i + 1)
		col[i] = int32(i)
		val[i] = 1
	}

	m := NewCSR[float64]()
	m.SetDataPtr(rowOffset, col, val, n, n, n)
	return m
}

func TestConvertIdentityCSRToBCSR(t *testing.T) {
	// A 4x4 identity with blockdim 2 regroups into one diagonal block per
	// block row: nrowb = ncolb = nnzb = 2, each block the 2x2 identity.
	src := identityCSR(4)

	dst := NewBCSR[float64]()
	dst.SetBlockDim(2)
	require.True(t, dst.ConvertFrom(src))

	nnzb, nrowb, ncolb, bd := dst.BlockShape()
	assert.Equal(t, 2, nnzb)
	assert.Equal(t, 2, nrowb)
	assert.Equal(t, 2, ncolb)
	assert.Equal(t, 2, bd)

	assert.Equal(t, 4, dst.Rows())
	assert.Equal(t, 4, dst.Cols())
	assert.Equal(t, 8, dst.Nnz())

	assert.Equal(t, []int32{0, 1, 2}, dst.RowOffset())
	assert.Equal(t, []int32{0, 1}, dst.Col())
	assert.Equal(t, []float64{1, 0, 0, 1, 1, 0, 0, 1}, dst.Val())
}

func TestConvertCSRToBCSRColumnMajorBlocks(t *testing.T) {
	// One 2x2 block [1 2; 3 4] stored column-major flattens to 1,3,2,4.
	rowOffset := []int32{0, 2, 4}
	col := []int32{0, 1, 0, 1}
	val := []float64{1, 2, 3, 4}

	src := NewCSR[float64]()
	src.SetDataPtr(rowOffset, col, val, 4, 2, 2)

	dst := NewBCSR[float64]()
	dst.SetBlockDim(2)
	dst.SetBlockDirection(sparse.BlockColumnMajor)
	require.True(t, dst.ConvertFrom(src))

	assert.Equal(t, []float64{1, 3, 2, 4}, dst.Val())
}

func TestConvertCSRToBCSRPadsPartialBlocks(t *testing.T) {
	// A 3x3 identity with blockdim 2 needs a 2x2 block grid; the trailing
	// partial block is zero-padded.
	src := identityCSR(3)

	dst := NewBCSR[float64]()
	dst.SetBlockDim(2)
	require.True(t, dst.ConvertFrom(src))

	nnzb, nrowb, ncolb, _ := dst.BlockShape()
	assert.Equal(t, 2, nrowb)
	assert.Equal(t, 2, ncolb)
	assert.Equal(t, 2, nnzb)

	// Block (1,1) holds only the scalar (2,2) entry.
	assert.Equal(t, []float64{1, 0, 0, 1, 1, 0, 0, 0}, dst.Val())
}

func TestConvertRoundTripThroughApply(t *testing.T) {
	// The converted matrix must act like the original: compare CSR input
	// applied by hand against the BCSR Apply result.
	rowOffset := []int32{0, 2, 3, 5, 6}
	col := []int32{0, 1, 1, 2, 3, 3}
	val := []float64{2, -1, 4, 1, 3, 5}

	src := NewCSR[float64]()
	src.SetDataPtr(rowOffset, col, val, 6, 4, 4)

	dst := NewBCSR[float64]()
	dst.SetBlockDim(2)
	require.True(t, dst.ConvertFrom(src))

	x := NewVector[float64]()
	x.CopyFromData([]float64{1, 2, 3, 4})
	y := NewVector[float64]()
	y.Allocate(4)

	dst.Apply(x, y)

	// Row-by-row reference: [2*1-1*2, 4*2, 1*3+3*4, 5*4].
	want := []float64{0, 8, 15, 20}
	for i := range want {
		assert.InDelta(t, want[i], y.Data()[i], 1e-12)
	}
}

func TestConvertOneBasedCSRToBCSR(t *testing.T) {
	// A one-based 4x4 identity regroups into the same zero-based block
	// arrays as its zero-based twin; the source descriptor carries the
	// base.
	n := 4
	rowOffset := make([]int32, n+1)
	col := make([]int32, n)
	val := make([]float64, n)
	rowOffset[0] = 1
	for i := 0; i < n; i++ {
		rowOffset[i+1] = int32(i + 2)
		col[i] = int32(i + 1)
		val[i] = 1
	}

	src := NewCSR[float64]()
	src.SetDataPtr(rowOffset, col, val, n, n, n)
	src.Descr().Base = sparse.IndexBaseOne

	dst := NewBCSR[float64]()
	dst.SetBlockDim(2)
	require.True(t, dst.ConvertFrom(src))

	assert.Equal(t, []int32{0, 1, 2}, dst.RowOffset())
	assert.Equal(t, []int32{0, 1}, dst.Col())
	assert.Equal(t, []float64{1, 0, 0, 1, 1, 0, 0, 1}, dst.Val())
}

func TestConvertRejectsNonGeneralType(t *testing.T) {
	src := identityCSR(4)
	src.Descr().Type = sparse.MatrixTypeSymmetric

	dst := NewBCSR[float64]()
	dst.SetBlockDim(2)
	assert.False(t, dst.ConvertFrom(src))
	assert.Zero(t, dst.Nnz())
}
