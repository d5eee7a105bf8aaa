package webgpu

import (
	"github.com/abhimeda/rocALUTION/backend/host"
)

// convertFromCSR regroups a device CSR matrix into this BCSR matrix using
// the preset block dimension. WebGPU has no vendor sparse conversion
// routine, so the regrouping stages through host memory: download the CSR
// arrays, run the host conversion kernel, upload the resulting block
// layout. Failure leaves the matrix cleared and returns false.
func (m *BCSR[T]) convertFromCSR(src *CSR[T]) bool {
	if m.blockDim <= 1 {
		m.Clear()
		return false
	}

	hostCSR := host.NewCSR[T]()
	*hostCSR.Descr() = *src.Descr()
	src.CopyToHost(hostCSR)

	hostBCSR := host.NewBCSR[T]()
	hostBCSR.SetBlockDim(m.blockDim)
	hostBCSR.SetBlockDirection(m.dir)

	if !hostBCSR.ConvertFrom(hostCSR) {
		m.Clear()
		return false
	}

	m.CopyFromHost(hostBCSR)
	return true
}
