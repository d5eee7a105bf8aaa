package webgpu

import (
	"encoding/binary"
	"math"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/abhimeda/rocALUTION/sparse"
)

// Apply computes y := A*x on the device. The operands must be device
// vectors sized to the scalar shape; an empty matrix leaves y untouched.
func (m *BCSR[T]) Apply(in sparse.Vector[T], out sparse.Vector[T]) {
	if m.nnz == 0 {
		return
	}

	castIn, castOut := m.castVectors("Apply", in, out)
	m.runBsrmv(1.0, 0.0, castIn, castOut)
}

// ApplyAdd computes y := y + scalar*A*x with the same requirements as
// Apply.
func (m *BCSR[T]) ApplyAdd(in sparse.Vector[T], scalar T, out sparse.Vector[T]) {
	if m.nnz == 0 {
		return
	}

	castIn, castOut := m.castVectors("ApplyAdd", in, out)
	m.runBsrmv(float32(scalar), 1.0, castIn, castOut)
}

func (m *BCSR[T]) castVectors(op string, in sparse.Vector[T], out sparse.Vector[T]) (*Vector[T], *Vector[T]) {
	if in.Size() != m.ncol || out.Size() != m.nrow {
		sparse.Fatalf("webgpu BCSR: %s: operand sizes (%d, %d) do not match matrix shape (%d, %d)",
			op, in.Size(), out.Size(), m.nrow, m.ncol)
	}

	castIn, okIn := in.(*Vector[T])
	castOut, okOut := out.(*Vector[T])
	if !okIn || !okOut {
		in.Info()
		out.Info()
		sparse.Fatalf("webgpu BCSR: %s: operands are not webgpu vectors", op)
	}

	return castIn, castOut
}

// runBsrmv dispatches the WGSL bsrmv kernel. The shader works in f32; a
// float64 matrix cannot be applied on this backend and fails fast.
func (m *BCSR[T]) runBsrmv(alpha, beta float32, x, y *Vector[T]) {
	if sparse.SizeOf[T]() != 4 {
		sparse.Fatalf("webgpu BCSR: bsrmv: float64 values are not supported on WebGPU")
	}
	if m.descr.Type != sparse.MatrixTypeGeneral {
		sparse.Fatalf("webgpu BCSR: bsrmv: matrix type %d is not supported", m.descr.Type)
	}

	base := uint32(0)
	if m.descr.Base == sparse.IndexBaseOne {
		base = 1
	}

	b := m.backend

	shader := b.compileShader("bsrmv", bsrmvShader)
	pipeline := b.getOrCreatePipeline("bsrmv", shader)

	// Uniform params: nrowb, blockdim, dir, base, alpha, beta.
	params := make([]byte, 32)
	binary.LittleEndian.PutUint32(params[0:4], uint32(m.nrowb))
	binary.LittleEndian.PutUint32(params[4:8], uint32(m.blockDim))
	binary.LittleEndian.PutUint32(params[8:12], uint32(m.dir))
	binary.LittleEndian.PutUint32(params[12:16], base)
	binary.LittleEndian.PutUint32(params[16:20], math.Float32bits(alpha))
	binary.LittleEndian.PutUint32(params[20:24], math.Float32bits(beta))
	bufferParams := b.createUniformBuffer(params)
	defer bufferParams.Release()

	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := b.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, m.val, 0, valueBytes[T](m.nnzb, m.blockDim)),
		wgpu.BufferBindingEntry(1, m.rowOffset, 0, rowOffsetBytes(m.nrowb)),
		wgpu.BufferBindingEntry(2, m.col, 0, colBytes(m.nnzb)),
		wgpu.BufferBindingEntry(3, x.buf, 0, uint64(x.size*sparse.SizeOf[T]())),
		wgpu.BufferBindingEntry(4, y.buf, 0, uint64(y.size*sparse.SizeOf[T]())),
		wgpu.BufferBindingEntry(5, bufferParams, 0, 32),
	})
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)

	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)

	workgroups := uint32((m.nrow + workgroupSize - 1) / workgroupSize)
	computePass.DispatchWorkgroups(workgroups, 1, 1)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	b.Synchronize()
}
