package shape

// Mult returns the entrywise product of tile norms, corrected back by the
// per-tile product of sizes: pointwise tile multiplication returns a tile
// whose norm no longer scales the way a single operand's does, so the raw
// entrywise product must be rescaled before it is a valid norm estimate
// again. Equivalent to MultScaledPerm(other, 1, nil).
func (s *SparseShape[T]) Mult(other *SparseShape[T]) (*SparseShape[T], error) {
	return s.MultScaledPerm(other, 1, nil)
}

// MultScaled is Mult with an additional scale factor alpha.
func (s *SparseShape[T]) MultScaled(other *SparseShape[T], alpha T) (*SparseShape[T], error) {
	return s.MultScaledPerm(other, alpha, nil)
}

// MultScaledPerm is the fully general entrywise-product operation:
// optional scale alpha and optional result permutation p.
func (s *SparseShape[T]) MultScaledPerm(other *SparseShape[T], alpha T, p *Permutation) (*SparseShape[T], error) {
	if err := s.checkNonEmpty("MultScaledPerm"); err != nil {
		return nil, err
	}
	if err := other.checkNonEmpty("MultScaledPerm"); err != nil {
		return nil, err
	}
	if !s.sameRangeAs(other) {
		return nil, shapeErrorf("MultScaledPerm", ErrRangeMismatch)
	}

	a := absT(alpha)
	product, err := s.tileNorms.binary(other.tileNorms, func(x, y T) T { return x * y })
	if err != nil {
		return nil, err
	}

	sizeProducts := buildOuterProduct(s.sizeVectors, noopVec[T])
	rescaled, err := product.binary(sizeProducts, func(x, size T) T { return hardZero(a * x * size) })
	if err != nil {
		return nil, err
	}

	result := &SparseShape[T]{tileNorms: rescaled, sizeVectors: s.sizeVectors}
	if p != nil {
		return result.Perm(*p)
	}
	return result, nil
}
