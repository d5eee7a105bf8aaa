package webgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhimeda/rocALUTION/backend/host"
	"github.com/abhimeda/rocALUTION/sparse"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	backend, err := New()
	if err != nil {
		t.Skip("WebGPU not available on this system")
	}
	t.Cleanup(backend.Release)
	return backend
}

// identityBlockHost builds the host matrix used across the transfer
// tests: one 2x2 identity block at block position (0,0) of a 2x2 grid.
func identityBlockHost() *host.BCSR[float32] {
	m := host.NewBCSR[float32]()
	m.Allocate(1, 2, 2, 2)
	copy(m.RowOffset(), []int32{0, 1, 1})
	copy(m.Col(), []int32{0})
	copy(m.Val(), []float32{1, 0, 0, 1})
	return m
}

func TestBCSRNoBackendPanics(t *testing.T) {
	assert.Panics(t, func() { NewBCSR[float32](nil) })
	assert.Panics(t, func() { NewVector[float32](nil) })
	assert.Panics(t, func() { NewCSR[float32](nil) })
}

func TestBCSRHostDeviceRoundTrip(t *testing.T) {
	backend := newTestBackend(t)

	src := identityBlockHost()

	dev := NewBCSR[float32](backend)
	dev.CopyFromHost(src)

	assert.Equal(t, src.Rows(), dev.Rows())
	assert.Equal(t, src.Cols(), dev.Cols())
	assert.Equal(t, src.Nnz(), dev.Nnz())

	// Device-to-device copy, then back to a fresh host handle.
	dev2 := NewBCSR[float32](backend)
	dev2.CopyFrom(dev)

	back := host.NewBCSR[float32]()
	dev2.CopyToHost(back)

	assert.Equal(t, src.RowOffset(), back.RowOffset())
	assert.Equal(t, src.Col(), back.Col())
	assert.Equal(t, src.Val(), back.Val())

	dev2.Clear()
	dev.Clear()
}

func TestBCSRAsyncRoundTrip(t *testing.T) {
	backend := newTestBackend(t)

	src := identityBlockHost()

	dev := NewBCSR[float32](backend)
	dev.CopyFromHostAsync(src)

	back := host.NewBCSR[float32]()
	dev.CopyToHostAsync(back)

	// The destination is only defined after an explicit synchronization
	// point.
	backend.Synchronize()

	assert.Equal(t, src.RowOffset(), back.RowOffset())
	assert.Equal(t, src.Col(), back.Col())
	assert.Equal(t, src.Val(), back.Val())

	dev.Clear()
}

func TestBCSRSetLeaveDataPtrDevice(t *testing.T) {
	backend := newTestBackend(t)

	dev := NewBCSR[float32](backend)
	dev.CopyFromHost(identityBlockHost())

	rowOffset, col, val, blockDim := dev.LeaveDataPtr()
	require.NotNil(t, rowOffset)
	require.NotNil(t, col)
	require.NotNil(t, val)
	assert.Equal(t, 2, blockDim)
	assert.Zero(t, dev.Nnz())

	dev.SetDataPtr(rowOffset, col, val, 1, 2, 2, blockDim)
	assert.Equal(t, 4, dev.Nnz())

	back := host.NewBCSR[float32]()
	dev.CopyToHost(back)
	assert.Equal(t, []float32{1, 0, 0, 1}, back.Val())

	dev.Clear()
}

func TestBCSRApplyOnDevice(t *testing.T) {
	backend := newTestBackend(t)

	dev := NewBCSR[float32](backend)
	dev.CopyFromHost(identityBlockHost())

	hx := host.NewVector[float32]()
	hx.CopyFromData([]float32{3, 4, 0, 0})

	x := NewVector[float32](backend)
	x.CopyFromHost(hx)
	y := NewVector[float32](backend)
	y.Allocate(4)

	dev.Apply(x, y)

	hy := host.NewVector[float32]()
	y.CopyToHost(hy)
	assert.Equal(t, []float32{3, 4, 0, 0}, hy.Data())

	y.Clear()
	x.Clear()
	dev.Clear()
}

func TestBCSRApplyAddOnDevice(t *testing.T) {
	backend := newTestBackend(t)

	dev := NewBCSR[float32](backend)
	dev.CopyFromHost(identityBlockHost())

	hx := host.NewVector[float32]()
	hx.CopyFromData([]float32{1, 2, 0, 0})
	hy := host.NewVector[float32]()
	hy.CopyFromData([]float32{10, 10, 10, 10})

	x := NewVector[float32](backend)
	x.CopyFromHost(hx)
	y := NewVector[float32](backend)
	y.CopyFromHost(hy)

	dev.ApplyAdd(x, 2, y)

	back := host.NewVector[float32]()
	y.CopyToHost(back)
	assert.Equal(t, []float32{12, 14, 10, 10}, back.Data())

	y.Clear()
	x.Clear()
	dev.Clear()
}

func TestBCSRConvertFromDeviceCSR(t *testing.T) {
	backend := newTestBackend(t)

	// 4x4 identity in CSR on the device.
	hostCSR := host.NewCSR[float32]()
	hostCSR.SetDataPtr(
		[]int32{0, 1, 2, 3, 4},
		[]int32{0, 1, 2, 3},
		[]float32{1, 1, 1, 1},
		4, 4, 4)

	devCSR := NewCSR[float32](backend)
	devCSR.CopyFromHost(hostCSR)

	dev := NewBCSR[float32](backend)
	dev.SetBlockDim(2)
	require.True(t, dev.ConvertFrom(devCSR))

	back := host.NewBCSR[float32]()
	dev.CopyToHost(back)

	nnzb, nrowb, ncolb, bd := back.BlockShape()
	assert.Equal(t, 2, nnzb)
	assert.Equal(t, 2, nrowb)
	assert.Equal(t, 2, ncolb)
	assert.Equal(t, 2, bd)
	assert.Equal(t, []float32{1, 0, 0, 1, 1, 0, 0, 1}, back.Val())

	dev.Clear()
	devCSR.Clear()
}

func TestBCSRConvertFromEmptyDeviceSource(t *testing.T) {
	backend := newTestBackend(t)

	devCSR := NewCSR[float32](backend)

	dev := NewBCSR[float32](backend)
	require.True(t, dev.ConvertFrom(devCSR))
	assert.Zero(t, dev.Nnz())
}

func TestBCSRFloat64TransferOnDevice(t *testing.T) {
	backend := newTestBackend(t)

	// float64 transfer must round-trip bit-exactly even though the device
	// kernel cannot consume it.
	src := host.NewBCSR[float64]()
	src.Allocate(1, 1, 1, 2)
	copy(src.RowOffset(), []int32{0, 1})
	copy(src.Col(), []int32{0})
	copy(src.Val(), []float64{1.5, -2.25, 3.125, 4.0625})

	dev := NewBCSR[float64](backend)
	dev.CopyFromHost(src)

	back := host.NewBCSR[float64]()
	dev.CopyToHost(back)
	assert.Equal(t, src.Val(), back.Val())

	dev.Clear()
}

func TestBCSRApplyOneBasedOnDevice(t *testing.T) {
	backend := newTestBackend(t)

	// The identity block stored one-based must multiply like its
	// zero-based twin; the descriptor base rides along into the kernel.
	src := host.NewBCSR[float32]()
	src.Allocate(1, 2, 2, 2)
	copy(src.RowOffset(), []int32{1, 2, 2})
	copy(src.Col(), []int32{1})
	copy(src.Val(), []float32{1, 0, 0, 1})

	dev := NewBCSR[float32](backend)
	dev.Descr().Base = sparse.IndexBaseOne
	dev.CopyFromHost(src)

	x := NewVector[float32](backend)
	hx := host.NewVector[float32]()
	hx.CopyFromData([]float32{3, 4, 0, 0})
	x.CopyFromHost(hx)

	y := NewVector[float32](backend)
	y.Allocate(4)

	dev.Apply(x, y)

	hy := host.NewVector[float32]()
	y.CopyToHost(hy)
	assert.Equal(t, []float32{3, 4, 0, 0}, hy.Data())
}
