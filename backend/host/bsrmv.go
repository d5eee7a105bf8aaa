package host

import "github.com/abhimeda/rocALUTION/sparse"

// bsrmv computes y = alpha*A*x + beta*y for a BCSR matrix. dir selects how
// the flattened value array is interpreted inside each blockDim x blockDim
// block and must match the layout the matrix was built with. The
// descriptor supplies the index base of the row pointer and column arrays;
// only the general matrix type is supported.
func bsrmv[T sparse.Float](
	descr *sparse.Descriptor,
	dir sparse.BlockDirection,
	nrowb, ncolb, nnzb int,
	alpha T,
	val []T,
	rowOffset, col []int32,
	blockDim int,
	x []T,
	beta T,
	y []T,
) {
	if descr.Type != sparse.MatrixTypeGeneral {
		sparse.Fatalf("host bsrmv: matrix type %d is not supported", descr.Type)
	}

	base := int32(0)
	if descr.Base == sparse.IndexBaseOne {
		base = 1
	}

	bd := blockDim

	for rowb := 0; rowb < nrowb; rowb++ {
		for bi := 0; bi < bd; bi++ {
			var sum T

			for ptr := rowOffset[rowb] - base; ptr < rowOffset[rowb+1]-base; ptr++ {
				colb := int(col[ptr] - base)
				block := val[int(ptr)*bd*bd : (int(ptr)+1)*bd*bd]

				for bj := 0; bj < bd; bj++ {
					var v T
					if dir == sparse.BlockRowMajor {
						v = block[bi*bd+bj]
					} else {
						v = block[bj*bd+bi]
					}
					sum += v * x[colb*bd+bj]
				}
			}

			r := rowb*bd + bi
			y[r] = alpha*sum + beta*y[r]
		}
	}
}
