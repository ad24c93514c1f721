package shape

import (
	"golang.org/x/exp/constraints"

	"github.com/katalvlaran/blocksparse/future"
)

// shapeConfig collects NewShape's optional knobs, gathered via the
// functional-options pattern: unexported fields, validated WithX
// constructors, a single gather point.
type shapeConfig[T constraints.Float] struct {
	raw        bool
	collective future.AllReduceSum[T]
}

// Option configures NewShape.
type Option[T constraints.Float] func(*shapeConfig[T])

// WithRawNorms tells NewShape that tileNorms is an un-normalized, raw
// norm tensor rather than an already-normalized tensor — it will be
// divided by the per-tile product of sizes before storage.
func WithRawNorms[T constraints.Float]() Option[T] {
	return func(c *shapeConfig[T]) { c.raw = true }
}

// WithCollective additionally all-reduce-sums tileNorms across the
// process group (via collective) before normalizing. Implies
// WithRawNorms.
func WithCollective[T constraints.Float](collective future.AllReduceSum[T]) Option[T] {
	return func(c *shapeConfig[T]) {
		c.collective = collective
		c.raw = true
	}
}
