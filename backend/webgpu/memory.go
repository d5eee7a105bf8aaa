package webgpu

import (
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/abhimeda/rocALUTION/sparse"
)

// allocBuffer creates a zero-initialized storage buffer of the given byte
// size. WebGPU zero-fills buffers at creation, so no explicit clear pass
// is needed.
func (b *Backend) allocBuffer(size uint64) *wgpu.Buffer {
	return b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
}

// createBuffer creates a storage buffer initialized with the given data,
// uploaded through a mapped-at-creation write.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// createUniformBuffer creates a uniform buffer with 16-byte alignment.
func (b *Backend) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15

	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// releaseBuffer frees a device buffer, tolerating nil.
func releaseBuffer(buf **wgpu.Buffer) {
	if *buf != nil {
		(*buf).Release()
		*buf = nil
	}
}

// bytesOf reinterprets a typed slice as its backing bytes without copying.
func bytesOf[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var v T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(v)))
}

// rowOffsetBytes is the byte size of a block row pointer array.
func rowOffsetBytes(nrowb int) uint64 {
	return uint64((nrowb + 1) * 4)
}

// colBytes is the byte size of a block column index array.
func colBytes(nnzb int) uint64 {
	return uint64(nnzb * 4)
}

// valueBytes is the byte size of a flattened block value array. It derives
// from the matrix value type, never from the index element size: sizing
// the value copy by the 4-byte index type silently truncates float64
// transfers to half their payload.
func valueBytes[T sparse.Float](nnzb, blockDim int) uint64 {
	return uint64(nnzb * blockDim * blockDim * sparse.SizeOf[T]())
}
