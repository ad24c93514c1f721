package shape

// Permutation is a bijection p on {0, ..., dim-1}, applied both to a
// shape's tile-norm tensor (Perm) and to its size vectors in lock-step.
type Permutation struct {
	p []int
}

// NewPermutation validates p is a bijection on {0, ..., len(p)-1} and
// returns it wrapped as a Permutation.
func NewPermutation(p []int) (Permutation, error) {
	seen := make([]bool, len(p))
	for _, d := range p {
		if d < 0 || d >= len(p) || seen[d] {
			return Permutation{}, shapeErrorf("NewPermutation", ErrRangeMismatch)
		}
		seen[d] = true
	}

	cp := make([]int, len(p))
	copy(cp, p)
	return Permutation{p: cp}, nil
}

// Identity returns the dim-length identity permutation.
func Identity(dim int) Permutation {
	p := make([]int, dim)
	for i := range p {
		p[i] = i
	}
	return Permutation{p: p}
}

// Dim returns the permutation's rank.
func (p Permutation) Dim() int { return len(p.p) }

// At returns p[d] — the destination dimension of source dimension d.
func (p Permutation) At(d int) int { return p.p[d] }

// Inverse returns p⁻¹, such that p.Inverse().At(p.At(d)) == d for all d:
// permuting by p and then by p.Inverse() is a round trip back to the
// original ordering.
func (p Permutation) Inverse() Permutation {
	inv := make([]int, len(p.p))
	for d, pd := range p.p {
		inv[pd] = d
	}
	return Permutation{p: inv}
}
