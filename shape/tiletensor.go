package shape

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// TileTensor is a dense norm tensor of arbitrary rank: a flat,
// row-major-equivalent buffer addressed through a precomputed stride
// table, storing one per-tile norm value of type T per multi-index. It
// covers exactly the operations the sparse-shape algebra needs —
// elementwise unary/binary, permute, clone, range/size/data queries.
type TileTensor[T constraints.Float] struct {
	shape   []int
	strides []int
	data    []T
}

// NewTileTensor allocates a zero-valued TileTensor with the given
// per-dimension tile counts. Every dimension must be > 0.
func NewTileTensor[T constraints.Float](shapeDims []int) (*TileTensor[T], error) {
	for _, d := range shapeDims {
		if d <= 0 {
			return nil, shapeErrorf("NewTileTensor", ErrRangeMismatch)
		}
	}

	sh := make([]int, len(shapeDims))
	copy(sh, shapeDims)

	return &TileTensor[T]{
		shape:   sh,
		strides: rowMajorStrides(sh),
		data:    make([]T, product(sh)),
	}, nil
}

// NewTileTensorFromData wraps a pre-computed flat, row-major buffer — the
// fast path used internally once a norm tensor has already been
// assembled. data is taken by reference, not copied.
func NewTileTensorFromData[T constraints.Float](shapeDims []int, data []T) (*TileTensor[T], error) {
	n := product(shapeDims)
	if len(data) != n {
		return nil, shapeErrorf("NewTileTensorFromData", ErrRangeMismatch)
	}

	sh := make([]int, len(shapeDims))
	copy(sh, shapeDims)

	return &TileTensor[T]{shape: sh, strides: rowMajorStrides(sh), data: data}, nil
}

func rowMajorStrides(shapeDims []int) []int {
	strides := make([]int, len(shapeDims))
	acc := 1
	for d := len(shapeDims) - 1; d >= 0; d-- {
		strides[d] = acc
		acc *= shapeDims[d]
	}
	return strides
}

func product(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// Rank returns the tensor's number of dimensions.
func (t *TileTensor[T]) Rank() int { return len(t.shape) }

// Range returns the per-dimension tile counts. The returned slice is a
// copy; callers may not mutate the tensor through it.
func (t *TileTensor[T]) Range() []int {
	cp := make([]int, len(t.shape))
	copy(cp, t.shape)
	return cp
}

// Size returns the total number of tiles.
func (t *TileTensor[T]) Size() int { return len(t.data) }

// Empty reports whether the tensor holds zero tiles.
func (t *TileTensor[T]) Empty() bool { return len(t.data) == 0 }

// Data returns the tensor's flat backing storage. The returned slice is a
// copy, matching SparseShape's "immutable after construction" contract.
func (t *TileTensor[T]) Data() []T {
	cp := make([]T, len(t.data))
	copy(cp, t.data)
	return cp
}

func (t *TileTensor[T]) flatIndex(idx []int) (int, error) {
	if len(idx) != len(t.shape) {
		return 0, fmt.Errorf("tiletensor: index rank %d != tensor rank %d: %w", len(idx), len(t.shape), ErrRangeMismatch)
	}

	flat := 0
	for d, i := range idx {
		if i < 0 || i >= t.shape[d] {
			return 0, fmt.Errorf("tiletensor: index %d out of range [0,%d): %w", i, t.shape[d], ErrRangeMismatch)
		}
		flat += i * t.strides[d]
	}
	return flat, nil
}

// At returns the norm at the given multi-index.
func (t *TileTensor[T]) At(idx []int) (T, error) {
	flat, err := t.flatIndex(idx)
	if err != nil {
		var zero T
		return zero, err
	}
	return t.data[flat], nil
}

// Clone returns a deep copy of the tensor.
func (t *TileTensor[T]) Clone() *TileTensor[T] {
	data := make([]T, len(t.data))
	copy(data, t.data)
	return &TileTensor[T]{shape: t.shape, strides: t.strides, data: data}
}

// sameRange reports whether t and other share identical per-dimension
// tile counts.
func (t *TileTensor[T]) sameRange(other *TileTensor[T]) bool {
	if len(t.shape) != len(other.shape) {
		return false
	}
	for d := range t.shape {
		if t.shape[d] != other.shape[d] {
			return false
		}
	}
	return true
}

// unary returns a new tensor with f applied entrywise via a fast flat-
// loop kernel.
func (t *TileTensor[T]) unary(f func(T) T) *TileTensor[T] {
	data := make([]T, len(t.data))
	for i, v := range t.data {
		data[i] = f(v)
	}
	return &TileTensor[T]{shape: t.shape, strides: t.strides, data: data}
}

// binary returns a new tensor with f applied entrywise across t and
// other, which must share t's range.
func (t *TileTensor[T]) binary(other *TileTensor[T], f func(a, b T) T) (*TileTensor[T], error) {
	if !t.sameRange(other) {
		return nil, shapeErrorf("binary", ErrRangeMismatch)
	}

	data := make([]T, len(t.data))
	for i := range t.data {
		data[i] = f(t.data[i], other.data[i])
	}
	return &TileTensor[T]{shape: t.shape, strides: t.strides, data: data}, nil
}

// permute returns a new tensor with axes reordered according to p:
// result[p[d]] = this[d].
func (t *TileTensor[T]) permute(p Permutation) (*TileTensor[T], error) {
	if p.Dim() != len(t.shape) {
		return nil, shapeErrorf("permute", ErrRangeMismatch)
	}

	newShape := make([]int, len(t.shape))
	for d, n := range t.shape {
		newShape[p.At(d)] = n
	}

	out, err := NewTileTensor[T](newShape)
	if err != nil {
		return nil, err
	}

	idx := make([]int, len(t.shape))
	newIdx := make([]int, len(t.shape))
	var walk func(d int) error
	walk = func(d int) error {
		if d == len(t.shape) {
			v, err := t.At(idx)
			if err != nil {
				return err
			}
			flat, err := out.flatIndex(newIdx)
			if err != nil {
				return err
			}
			out.data[flat] = v
			return nil
		}
		for i := 0; i < t.shape[d]; i++ {
			idx[d] = i
			newIdx[p.At(d)] = i
			if err := walk(d + 1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(0); err != nil {
		return nil, err
	}

	return out, nil
}
