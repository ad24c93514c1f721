package shape

import "golang.org/x/exp/constraints"

// Gemm contracts this (left) and other (right) over the axes helper
// describes, producing a norm estimate for every output tile. With K
// (helper.NumContractRanks()) == 0 it takes the direct
// elementwise-outer-product special case instead.
//
// This reference implementation assumes helper reports the conventional
// block layout — left stored as [outer axes..., inner/contracted
// axes...] and right stored as [inner/contracted axes..., outer axes...]
// — which is exactly what StaticGemmHelper describes; a GemmHelper
// backed by a different physical axis ordering would need to present its
// operand tensors pre-arranged to match.
func (s *SparseShape[T]) Gemm(other *SparseShape[T], alpha T, helper GemmHelper, p *Permutation) (*SparseShape[T], error) {
	if err := s.checkNonEmpty("Gemm"); err != nil {
		return nil, err
	}
	if err := other.checkNonEmpty("Gemm"); err != nil {
		return nil, err
	}

	leftRange := s.tileNorms.Range()
	rightRange := other.tileNorms.Range()
	if helper.LeftRank() != len(leftRange) || helper.RightRank() != len(rightRange) {
		return nil, shapeErrorf("Gemm", ErrRangeMismatch)
	}

	a := absT(alpha)

	var result *SparseShape[T]
	var err error
	if helper.NumContractRanks() == 0 {
		result, err = s.gemmOuterProduct(other, a)
	} else {
		result, err = s.gemmContract(other, a, helper, leftRange, rightRange)
	}
	if err != nil {
		return nil, err
	}

	if p != nil {
		return result.Perm(*p)
	}
	return result, nil
}

// gemmOuterProduct is the K=0 special case: a direct elementwise outer
// product of the two operands' norms, scaled by alpha.
func (s *SparseShape[T]) gemmOuterProduct(other *SparseShape[T], alpha T) (*SparseShape[T], error) {
	combined := combineOuter(s.tileNorms, other.tileNorms)
	scaled := combined.unary(func(v T) T { return hardZero(alpha * v) })

	sizeVectors := make([][]T, 0, len(s.sizeVectors)+len(other.sizeVectors))
	sizeVectors = append(sizeVectors, s.sizeVectors...)
	sizeVectors = append(sizeVectors, other.sizeVectors...)

	return NewShape[T](scaled, sizeVectors)
}

// gemmContract is the general K>0 path: flatten to (M,K)/(K,N), pre-scale
// by the inner (contracted-axis) size vectors, numeric matrix-multiply,
// hard-zero, and re-assemble.
func (s *SparseShape[T]) gemmContract(other *SparseShape[T], alpha T, helper GemmHelper, leftRange, rightRange []int) (*SparseShape[T], error) {
	m, n, k := helper.ComputeMatrixSizes(leftRange, rightRange)
	if m*k != s.tileNorms.Size() || k*n != other.tileNorms.Size() {
		return nil, shapeErrorf("Gemm", ErrRangeMismatch)
	}

	leftInner := s.sizeVectors[helper.LeftInnerBegin():helper.LeftInnerEnd()]
	kSizes := buildOuterProduct(leftInner, noopVec[T]).Data()
	if len(kSizes) != k {
		return nil, shapeErrorf("Gemm", ErrRangeMismatch)
	}

	leftFlat := s.tileNorms.Data()
	rightFlat := other.tileNorms.Data()

	leftScaled := make([]T, len(leftFlat))
	for i := 0; i < m; i++ {
		for kk := 0; kk < k; kk++ {
			leftScaled[i*k+kk] = leftFlat[i*k+kk] * kSizes[kk]
		}
	}
	rightScaled := make([]T, len(rightFlat))
	for kk := 0; kk < k; kk++ {
		for j := 0; j < n; j++ {
			rightScaled[kk*n+j] = rightFlat[kk*n+j] * kSizes[kk]
		}
	}

	resultData := matMul(leftScaled, rightScaled, m, n, k, alpha)
	for i, v := range resultData {
		resultData[i] = hardZero(v)
	}

	resultRange := helper.MakeResultRange(leftRange, rightRange)
	resultTensor, err := NewTileTensorFromData[T](resultRange, resultData)
	if err != nil {
		return nil, err
	}

	resultSizeVectors := make([][]T, 0, helper.ResultRank())
	resultSizeVectors = append(resultSizeVectors, s.sizeVectors[helper.LeftOuterBegin():helper.LeftOuterEnd()]...)
	resultSizeVectors = append(resultSizeVectors, other.sizeVectors[helper.RightOuterBegin():helper.RightOuterEnd()]...)

	return NewShape[T](resultTensor, resultSizeVectors)
}

// matMul computes alpha * (a·b) for row-major a (m×k) and b (k×n).
func matMul[T constraints.Float](a, b []T, m, n, k int, alpha T) []T {
	out := make([]T, m*n)
	for i := 0; i < m; i++ {
		for kk := 0; kk < k; kk++ {
			aik := a[i*k+kk]
			if aik == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				out[i*n+j] += aik * b[kk*n+j]
			}
		}
	}
	for i := range out {
		out[i] *= alpha
	}
	return out
}
