// Package sparse defines the shared data model for block-sparse matrices:
// storage formats, block layout conventions, matrix descriptors, and the
// polymorphic Matrix/Vector contracts implemented by each compute backend.
//
// The package is a leaf: it carries no backend state and no kernels. The
// host backend (backend/host) and the WebGPU backend (backend/webgpu) both
// build on the types defined here.
package sparse
