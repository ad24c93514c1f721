// SPDX-License-Identifier: MIT

package shape

import (
	"errors"
	"fmt"
)

// NOTE ON NAMING & PREFIXING
// --------------------------
// Every message is prefixed with "shape: ..." for consistency. Callers
// MUST match via errors.Is; these sentinels may be wrapped with additional
// context at call boundaries via shapeErrorf.

// ErrPreconditionViolated is the umbrella precondition-failure sentinel.
// The more specific sentinels below wrap it so errors.Is(err,
// ErrPreconditionViolated) is true for any of them.
var ErrPreconditionViolated = errors.New("shape: precondition violated")

var (
	// ErrEmptyShape is returned by any operation invoked on a shape for
	// which Empty() is true.
	ErrEmptyShape = fmt.Errorf("shape: operation on empty shape: %w", ErrPreconditionViolated)

	// ErrRangeMismatch is returned when two shapes' tiled ranges (rank
	// or per-dimension tile counts) are incompatible for the requested
	// operation.
	ErrRangeMismatch = fmt.Errorf("shape: range mismatch: %w", ErrPreconditionViolated)

	// ErrNegativeNorm is returned when a norm tensor carries a negative
	// entry. (A non-positive size-vector entry is reported as
	// ErrRangeMismatch.)
	ErrNegativeNorm = fmt.Errorf("shape: negative norm: %w", ErrPreconditionViolated)

	// ErrInvalidThreshold is returned by SetThreshold for a non-positive
	// value.
	ErrInvalidThreshold = fmt.Errorf("shape: invalid threshold: %w", ErrPreconditionViolated)

	// ErrCollectiveFailed is returned by the collective constructor when
	// the injected AllReduceSum fails.
	ErrCollectiveFailed = errors.New("shape: collective all-reduce failed")
)

// shapeErrorf wraps err with method/call-site context, keeping err (and
// transitively ErrPreconditionViolated, where applicable) matchable via
// errors.Is.
func shapeErrorf(method string, err error) error {
	return fmt.Errorf("shape.%s: %w", method, err)
}
