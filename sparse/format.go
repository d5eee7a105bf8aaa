package sparse

import "unsafe"

// Float is the set of value types a sparse matrix can store.
type Float interface {
	~float32 | ~float64
}

// SizeOf returns the byte size of the value type T.
// Transfer paths must size the value array with this, never with the
// index element size.
func SizeOf[T Float]() int {
	var v T
	return int(unsafe.Sizeof(v))
}

// Format identifies a sparse storage format.
type Format int

// Supported sparse matrix storage formats. Only CSR and BCSR carry
// behavior in this core; the rest exist for diagnostics.
const (
	CSR Format = iota
	BCSR
	COO
	DIA
	ELL
)

// String returns a human-readable format name.
func (f Format) String() string {
	switch f {
	case CSR:
		return "CSR"
	case BCSR:
		return "BCSR"
	case COO:
		return "COO"
	case DIA:
		return "DIA"
	case ELL:
		return "ELL"
	default:
		return "Unknown"
	}
}

// BlockDirection selects the scalar layout inside each dense block of a
// BCSR matrix. It is carried explicitly on every kernel call; there is no
// process-wide toggle.
type BlockDirection int

const (
	// BlockRowMajor stores each block row by row.
	BlockRowMajor BlockDirection = iota
	// BlockColumnMajor stores each block column by column.
	BlockColumnMajor
)

// String returns a human-readable direction name.
func (d BlockDirection) String() string {
	switch d {
	case BlockRowMajor:
		return "row-major"
	case BlockColumnMajor:
		return "column-major"
	default:
		return "Unknown"
	}
}

// IndexBase is the index base of the stored row pointer and column arrays.
// Fixed to zero for the lifetime of a matrix.
type IndexBase int

const (
	// IndexBaseZero means indices start at 0.
	IndexBaseZero IndexBase = iota
	// IndexBaseOne means indices start at 1. Not produced by this core.
	IndexBaseOne
)

// MatrixType classifies the matrix for the compute kernel.
type MatrixType int

const (
	// MatrixTypeGeneral is an unstructured matrix.
	MatrixTypeGeneral MatrixType = iota
	// MatrixTypeSymmetric is a symmetric matrix. Not produced by this core.
	MatrixTypeSymmetric
)

// Descriptor is the opaque metadata the compute kernels need to interpret
// the stored arrays. Each matrix handle owns exactly one descriptor,
// created with the handle and released with it.
type Descriptor struct {
	Base IndexBase
	Type MatrixType
}

// NewDescriptor returns a descriptor with the defaults used throughout
// this core: zero index base, general matrix type.
func NewDescriptor() *Descriptor {
	return &Descriptor{
		Base: IndexBaseZero,
		Type: MatrixTypeGeneral,
	}
}
