package shape

import (
	"golang.org/x/exp/constraints"
)

// SparseShape is a dense tensor of per-tile Frobenius norms, normalized
// by tile size, plus the per-dimension tile-size vectors needed to
// de-normalize on demand. Values are immutable after construction; every
// operation below returns a new SparseShape.
type SparseShape[T constraints.Float] struct {
	tileNorms   *TileTensor[T] // always stored normalized
	sizeVectors [][]T          // sizeVectors[d][i] = length of tile i along dimension d
}

// NewShape constructs a SparseShape from tileNorms and sizeVectors.
//
// By default tileNorms is assumed already normalized (the fast path used
// internally). Pass WithRawNorms to normalize a freshly-computed raw norm
// tensor instead, or WithCollective to additionally all-reduce-sum it
// across the process group first.
func NewShape[T constraints.Float](tileNorms *TileTensor[T], sizeVectors [][]T, opts ...Option[T]) (*SparseShape[T], error) {
	if tileNorms == nil {
		return nil, shapeErrorf("NewShape", ErrEmptyShape)
	}
	if len(sizeVectors) != tileNorms.Rank() {
		return nil, shapeErrorf("NewShape", ErrRangeMismatch)
	}
	dims := tileNorms.Range()
	for d, vec := range sizeVectors {
		if len(vec) != dims[d] {
			return nil, shapeErrorf("NewShape", ErrRangeMismatch)
		}
		for _, n := range vec {
			if n <= 0 {
				return nil, shapeErrorf("NewShape", ErrRangeMismatch)
			}
		}
	}

	cfg := &shapeConfig[T]{}
	for _, o := range opts {
		o(cfg)
	}

	norms := tileNorms
	if cfg.collective != nil {
		buf := norms.Data()
		if err := cfg.collective.Sum(buf); err != nil {
			return nil, shapeErrorf("NewShape", ErrCollectiveFailed)
		}
		var err error
		norms, err = NewTileTensorFromData[T](norms.Range(), buf)
		if err != nil {
			return nil, err
		}
	}

	if cfg.raw {
		sizeProducts := buildOuterProduct(sizeVectors, vecTransform[T](noopVec[T]))
		var err error
		norms, err = norms.binary(sizeProducts, func(raw, size T) T { return raw / size })
		if err != nil {
			return nil, err
		}
	}

	for _, v := range norms.Data() {
		if v < 0 {
			return nil, shapeErrorf("NewShape", ErrNegativeNorm)
		}
	}

	svCopy := make([][]T, len(sizeVectors))
	for d, vec := range sizeVectors {
		cp := make([]T, len(vec))
		copy(cp, vec)
		svCopy[d] = cp
	}

	return &SparseShape[T]{tileNorms: norms, sizeVectors: svCopy}, nil
}

// Empty reports whether the shape holds zero tiles.
func (s *SparseShape[T]) Empty() bool {
	return s == nil || s.tileNorms == nil || s.tileNorms.Empty()
}

func (s *SparseShape[T]) checkNonEmpty(method string) error {
	if s.Empty() {
		return shapeErrorf(method, ErrEmptyShape)
	}
	return nil
}

// Rank returns the shape's dimensionality.
func (s *SparseShape[T]) Rank() int { return s.tileNorms.Rank() }

// hardZero clips v to 0 if it falls below the current process-scoped
// threshold.
func hardZero[T constraints.Float](v T) T {
	if belowThreshold(v) {
		return 0
	}
	return v
}

func absT[T constraints.Float](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

// Perm returns a new shape with tile_norms permuted by p and
// size_vectors permuted in lock-step: result[p[d]] = this[d].
func (s *SparseShape[T]) Perm(p Permutation) (*SparseShape[T], error) {
	if err := s.checkNonEmpty("Perm"); err != nil {
		return nil, err
	}
	if p.Dim() != s.Rank() {
		return nil, shapeErrorf("Perm", ErrRangeMismatch)
	}

	newNorms, err := s.tileNorms.permute(p)
	if err != nil {
		return nil, err
	}

	newSizeVectors := make([][]T, len(s.sizeVectors))
	for d, vec := range s.sizeVectors {
		newSizeVectors[p.At(d)] = vec
	}

	return &SparseShape[T]{tileNorms: newNorms, sizeVectors: newSizeVectors}, nil
}

// Scale multiplies all norms by |alpha|, hard-zeroing entries that fall
// below the current threshold.
func (s *SparseShape[T]) Scale(alpha T) (*SparseShape[T], error) {
	if err := s.checkNonEmpty("Scale"); err != nil {
		return nil, err
	}

	a := absT(alpha)
	newNorms := s.tileNorms.unary(func(v T) T { return hardZero(v * a) })

	return &SparseShape[T]{tileNorms: newNorms, sizeVectors: s.sizeVectors}, nil
}

// ScalePerm is the fused scale-then-permute operation.
func (s *SparseShape[T]) ScalePerm(alpha T, p Permutation) (*SparseShape[T], error) {
	scaled, err := s.Scale(alpha)
	if err != nil {
		return nil, err
	}
	return scaled.Perm(p)
}

func (s *SparseShape[T]) sameRangeAs(other *SparseShape[T]) bool {
	return other != nil && s.tileNorms.sameRange(other.tileNorms)
}

// Add returns the entrywise sum of norms — a conservative upper bound on
// the true norm of the sum (triangle inequality), so the "might be
// non-zero" property is preserved even though this is not the exact norm.
func (s *SparseShape[T]) Add(other *SparseShape[T]) (*SparseShape[T], error) {
	return s.AddScaled(other, 1)
}

// AddScaled returns the entrywise sum of this and alpha*other.
func (s *SparseShape[T]) AddScaled(other *SparseShape[T], alpha T) (*SparseShape[T], error) {
	if err := s.checkNonEmpty("AddScaled"); err != nil {
		return nil, err
	}
	if err := other.checkNonEmpty("AddScaled"); err != nil {
		return nil, err
	}
	if !s.sameRangeAs(other) {
		return nil, shapeErrorf("AddScaled", ErrRangeMismatch)
	}

	a := absT(alpha)
	newNorms, err := s.tileNorms.binary(other.tileNorms, func(x, y T) T { return hardZero(x + a*y) })
	if err != nil {
		return nil, err
	}

	return &SparseShape[T]{tileNorms: newNorms, sizeVectors: s.sizeVectors}, nil
}

// AddScaledPerm is the fused add(other, alpha)-then-permute operation.
func (s *SparseShape[T]) AddScaledPerm(other *SparseShape[T], alpha T, p Permutation) (*SparseShape[T], error) {
	sum, err := s.AddScaled(other, alpha)
	if err != nil {
		return nil, err
	}
	return sum.Perm(p)
}

// AddConst adds an elementwise constant v to the underlying (denormalized)
// tensor: in normalized space this contributes |v|/√(∏N) per tile, since
// the Frobenius norm of a constant v over an N-element tile is v·√N.
// Implemented via the outer-product scaffold with invSqrtVec.
func (s *SparseShape[T]) AddConst(v T) (*SparseShape[T], error) {
	if err := s.checkNonEmpty("AddConst"); err != nil {
		return nil, err
	}

	av := absT(v)
	invSqrt := buildOuterProduct(s.sizeVectors, vecTransform[T](invSqrtVec[T]))

	newNorms, err := s.tileNorms.binary(invSqrt, func(norm, contribution T) T {
		return hardZero(norm + av*contribution)
	})
	if err != nil {
		return nil, err
	}

	return &SparseShape[T]{tileNorms: newNorms, sizeVectors: s.sizeVectors}, nil
}

// Subt is defined as Add: subtraction can only add magnitude
// uncertainty, so using Add is the conservative shape upper bound — an
// intentional over-approximation rather than a true difference.
func (s *SparseShape[T]) Subt(other *SparseShape[T]) (*SparseShape[T], error) {
	return s.Add(other)
}

// IsZero reports whether the norm at the given multi-index has been
// hard-zeroed.
func (s *SparseShape[T]) IsZero(idx []int) (bool, error) {
	if err := s.checkNonEmpty("IsZero"); err != nil {
		return false, err
	}
	v, err := s.tileNorms.At(idx)
	if err != nil {
		return false, shapeErrorf("IsZero", err)
	}
	return v == 0, nil
}

// ZeroTileCount returns the number of tiles whose norm is exactly zero.
func (s *SparseShape[T]) ZeroTileCount() int {
	if s.Empty() {
		return 0
	}
	n := 0
	for _, v := range s.tileNorms.data {
		if v == 0 {
			n++
		}
	}
	return n
}

// ZeroFraction returns ZeroTileCount() / total tile count, as a float64.
func (s *SparseShape[T]) ZeroFraction() float64 {
	if s.Empty() {
		return 0
	}
	return float64(s.ZeroTileCount()) / float64(s.tileNorms.Size())
}

// Data returns a copy of the flattened, normalized tile-norm tensor.
func (s *SparseShape[T]) Data() []T {
	if s.Empty() {
		return nil
	}
	return s.tileNorms.Data()
}

// Validate checks rng (a per-dimension tile-count range) against the
// shape's own range, returning ErrRangeMismatch on any difference.
func (s *SparseShape[T]) Validate(rng []int) error {
	if err := s.checkNonEmpty("Validate"); err != nil {
		return err
	}
	own := s.tileNorms.Range()
	if len(rng) != len(own) {
		return shapeErrorf("Validate", ErrRangeMismatch)
	}
	for d := range rng {
		if rng[d] != own[d] {
			return shapeErrorf("Validate", ErrRangeMismatch)
		}
	}
	return nil
}
