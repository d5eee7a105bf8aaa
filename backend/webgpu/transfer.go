package webgpu

import (
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/abhimeda/rocALUTION/sparse"
)

// pendingRead is an asynchronous device-to-host copy whose staging buffer
// has been filled on the queue but not yet mapped. Synchronize drains the
// list, mapping each staging buffer and scattering its contents into the
// destination host array.
type pendingRead struct {
	staging *wgpu.Buffer
	size    uint64
	dst     []byte
}

// hostToDeviceAsync enqueues a host-to-device copy. The data is captured
// in a staging buffer immediately, so the caller may reuse the source
// slice; visibility on the device requires a later Synchronize.
func (b *Backend) hostToDeviceAsync(dst *wgpu.Buffer, data []byte) {
	if len(data) == 0 {
		return
	}

	staging := b.createBuffer(data, wgpu.BufferUsageCopySrc)
	defer staging.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(staging, 0, dst, 0, uint64(len(data)))
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)
}

// hostToDevice performs a blocking host-to-device copy.
func (b *Backend) hostToDevice(dst *wgpu.Buffer, data []byte) {
	b.hostToDeviceAsync(dst, data)
	b.Synchronize()
}

// deviceToHostAsync enqueues a device-to-host copy into dst. The contents
// of dst are undefined until the next Synchronize.
func (b *Backend) deviceToHostAsync(src *wgpu.Buffer, dst []byte) {
	if len(dst) == 0 {
		return
	}
	size := uint64(len(dst))

	staging := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)

	b.pendingMu.Lock()
	b.pending = append(b.pending, pendingRead{staging: staging, size: size, dst: dst})
	b.pendingMu.Unlock()
}

// deviceToHost performs a blocking device-to-host copy into dst.
func (b *Backend) deviceToHost(src *wgpu.Buffer, dst []byte) {
	b.deviceToHostAsync(src, dst)
	b.Synchronize()
}

// deviceToDeviceAsync enqueues a device-to-device copy.
func (b *Backend) deviceToDeviceAsync(dst, src *wgpu.Buffer, size uint64) {
	if size == 0 {
		return
	}

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, dst, 0, size)
	cmdBuffer := encoder.Finish(nil)
	b.queue.Submit(cmdBuffer)
}

// deviceToDevice performs a blocking device-to-device copy.
func (b *Backend) deviceToDevice(dst, src *wgpu.Buffer, size uint64) {
	b.deviceToDeviceAsync(dst, src, size)
	b.Synchronize()
}

// Synchronize blocks until all submitted work has completed and drains
// pending asynchronous readbacks into their host destinations. Every
// synchronous transfer and compute call funnels through here, which is
// what gives those calls their completion guarantee.
func (b *Backend) Synchronize() {
	b.pendingMu.Lock()
	pending := b.pending
	b.pending = nil
	b.pendingMu.Unlock()

	for _, p := range pending {
		b.mapInto(p.staging, p.size, p.dst)
		p.staging.Release()
	}

	if len(pending) == 0 {
		// Nothing to read back: force completion by fencing a 4-byte
		// readback through the dedicated fence buffer.
		fence := make([]byte, 4)
		staging := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
			Size:  4,
		})

		encoder := b.device.CreateCommandEncoder(nil)
		encoder.CopyBufferToBuffer(b.fence, 0, staging, 0, 4)
		cmdBuffer := encoder.Finish(nil)
		b.queue.Submit(cmdBuffer)

		b.mapInto(staging, 4, fence)
		staging.Release()
	}
}

// mapInto maps a staging buffer for reading and copies it into dst.
// Mapping waits for the queue to reach the copy that filled the buffer.
func (b *Backend) mapInto(staging *wgpu.Buffer, size uint64, dst []byte) {
	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		sparse.Fatalf("webgpu: failed to map staging buffer: %v", err)
	}

	mappedPtr := staging.GetMappedRange(0, size)
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(dst, mappedSlice)

	staging.Unmap()
}
