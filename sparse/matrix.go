package sparse

// Matrix is the polymorphic contract shared by every backend's sparse
// matrix handle. Cross-backend operations (CopyFrom, CopyTo, ConvertFrom)
// take a Matrix and discriminate on the concrete type at call time; the
// concrete handles expose the full storage contract (Allocate, Clear,
// SetDataPtr, LeaveDataPtr, Apply, ApplyAdd).
type Matrix[T Float] interface {
	// Format returns the storage format tag of the handle.
	Format() Format

	// Rows, Cols and Nnz return the scalar shape. For a blocked format
	// these are derived from the block shape and always satisfy
	// nrow = nrowb*blockdim, ncol = ncolb*blockdim, nnz = nnzb*blockdim^2.
	Rows() int
	Cols() int
	Nnz() int

	// Info emits a diagnostic dump of the handle's state. It is called on
	// both operands before any fatal type-mismatch abort.
	Info()
}

// Vector is the polymorphic contract for backend vectors. Apply and
// ApplyAdd require operands of the owning backend's concrete vector type;
// anything else is a programming error.
type Vector[T Float] interface {
	// Size returns the number of elements.
	Size() int

	// Info emits a diagnostic dump of the vector's state.
	Info()
}
