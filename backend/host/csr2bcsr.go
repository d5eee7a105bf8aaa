package host

import "github.com/abhimeda/rocALUTION/sparse"

// csrToBCSR regroups an unblocked CSR matrix into BCSR with the given
// block dimension. The source descriptor supplies the index base of the
// input arrays; the produced block arrays are zero-based. Scalar rows and
// columns that do not divide evenly are padded into a final partial block;
// padded entries stay zero. Returns ok == false when the block dimension,
// the matrix type or the input arrays are not usable, leaving the caller
// to fail recoverably.
func csrToBCSR[T sparse.Float](
	descr *sparse.Descriptor,
	nnz, nrow, ncol int,
	rowOffset, col []int32,
	val []T,
	blockDim int,
	dir sparse.BlockDirection,
) (bRowOffset, bCol []int32, bVal []T, nrowb, ncolb, nnzb int, ok bool) {
	if blockDim <= 1 || nnz <= 0 || descr.Type != sparse.MatrixTypeGeneral {
		return nil, nil, nil, 0, 0, 0, false
	}

	base := int32(0)
	if descr.Base == sparse.IndexBaseOne {
		base = 1
	}

	bd := blockDim
	nrowb = (nrow + bd - 1) / bd
	ncolb = (ncol + bd - 1) / bd

	// Pass 1: count the distinct block columns of every block row.
	bRowOffset = allocate[int32](nrowb + 1)
	seen := allocate[int32](ncolb)
	for i := range seen {
		seen[i] = -1
	}

	for rowb := 0; rowb < nrowb; rowb++ {
		rowBegin := rowb * bd
		rowEnd := min(rowBegin+bd, nrow)

		for r := rowBegin; r < rowEnd; r++ {
			for ptr := rowOffset[r] - base; ptr < rowOffset[r+1]-base; ptr++ {
				colb := int(col[ptr]-base) / bd
				if seen[colb] != int32(rowb) {
					seen[colb] = int32(rowb)
					bRowOffset[rowb+1]++
				}
			}
		}
	}

	for i := 0; i < nrowb; i++ {
		bRowOffset[i+1] += bRowOffset[i]
	}
	nnzb = int(bRowOffset[nrowb])

	// Pass 2: fill block column indices and scatter scalar values into the
	// flattened block storage, honoring the requested block layout.
	bCol = allocate[int32](nnzb)
	bVal = allocate[T](nnzb * bd * bd)

	// blockAt maps a block column to its slot within the current block row.
	blockAt := allocate[int32](ncolb)
	for i := range blockAt {
		blockAt[i] = -1
	}

	for rowb := 0; rowb < nrowb; rowb++ {
		next := bRowOffset[rowb]
		rowBegin := rowb * bd
		rowEnd := min(rowBegin+bd, nrow)

		for r := rowBegin; r < rowEnd; r++ {
			bi := r - rowBegin

			for ptr := rowOffset[r] - base; ptr < rowOffset[r+1]-base; ptr++ {
				colb := int(col[ptr]-base) / bd
				bj := int(col[ptr]-base) % bd

				slot := blockAt[colb]
				if slot < 0 || slot < bRowOffset[rowb] || bCol[slot] != int32(colb) {
					slot = next
					blockAt[colb] = slot
					bCol[slot] = int32(colb)
					next++
				}

				base := int(slot) * bd * bd
				if dir == sparse.BlockRowMajor {
					bVal[base+bi*bd+bj] = val[ptr]
				} else {
					bVal[base+bj*bd+bi] = val[ptr]
				}
			}
		}

		if next != bRowOffset[rowb+1] {
			// Counting and filling disagree; the input arrays are malformed.
			return nil, nil, nil, 0, 0, 0, false
		}
	}

	return bRowOffset, bCol, bVal, nrowb, ncolb, nnzb, true
}
