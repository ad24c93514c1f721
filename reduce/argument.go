package reduce

import (
	"sync"
	"sync/atomic"

	"github.com/katalvlaran/blocksparse/future"
)

// Pair bundles the two futures a pair-argument reduction consumes.
// Reduce contracts working in pair-argument mode see A instantiated to
// Pair[L, Rt].
type Pair[L, Rt any] struct {
	Left  L
	Right Rt
}

// readyNotifier is satisfied by *ReduceTask[A, R]; it is the narrow
// back-reference ReduceArgument holds to its owning task — an interface
// rather than an untyped back-pointer, since an argument's lifetime is
// always bounded by a single reduction step and never escapes past it.
type readyNotifier[A any] interface {
	ready(a *ReduceArgument[A])
}

// ReduceArgument is a one-shot wrapper around one future (single-argument
// mode) or a pair of futures (pair-argument mode) whose combined
// readiness hands the argument off to its owning ReduceTask.
//
// Invariant: a ReduceArgument is destroyed exactly once, immediately
// after the value it carries has been consumed by a reduction step — see
// Destroy.
type ReduceArgument[A any] struct {
	parent readyNotifier[A]

	pending int32 // atomic; starts at 1 (single mode) or 2 (pair mode)

	mu    sync.Mutex
	value A
	err   error

	onDestroy func()
	destroyed atomic.Bool
}

// NewArgument wraps a single Future[A] in single-argument mode.
// onDestroy, if non-nil, fires exactly once from Destroy and is the hook
// upstream schedulers use to release the tile memory that fed fut.
func NewArgument[A any](parent readyNotifier[A], fut future.Future[A], onDestroy func()) *ReduceArgument[A] {
	a := &ReduceArgument[A]{parent: parent, pending: 1, onDestroy: onDestroy}

	fut.RegisterCallback(func(v A, err error) {
		a.mu.Lock()
		a.value, a.err = v, err
		a.mu.Unlock()

		if atomic.AddInt32(&a.pending, -1) == 0 {
			a.parent.ready(a)
		}
	})

	return a
}

// NewPairArgument wraps a pair of futures (Future[L], Future[Rt]) in
// pair-argument mode. The argument becomes ready only once both
// underlying futures have settled; the first observed error from either
// future wins.
func NewPairArgument[L, Rt any](parent readyNotifier[Pair[L, Rt]], left future.Future[L], right future.Future[Rt], onDestroy func()) *ReduceArgument[Pair[L, Rt]] {
	a := &ReduceArgument[Pair[L, Rt]]{parent: parent, pending: 2, onDestroy: onDestroy}

	markDone := func() {
		if atomic.AddInt32(&a.pending, -1) == 0 {
			a.parent.ready(a)
		}
	}

	left.RegisterCallback(func(v L, err error) {
		a.mu.Lock()
		a.value.Left = v
		if err != nil && a.err == nil {
			a.err = err
		}
		a.mu.Unlock()
		markDone()
	})
	right.RegisterCallback(func(v Rt, err error) {
		a.mu.Lock()
		a.value.Right = v
		if err != nil && a.err == nil {
			a.err = err
		}
		a.mu.Unlock()
		markDone()
	})

	return a
}

// Arg returns the argument's settled value and any error its underlying
// future(s) resolved to. It is only valid to call once the argument has
// signalled readiness to its parent.
func (a *ReduceArgument[A]) Arg() (A, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.value, a.err
}

// Destroy fires the optional completion callback and releases the
// argument's storage. It MUST be called exactly once, immediately after
// the argument's value has been consumed by a reduction step — calling
// it again returns ErrAlreadyDestroyed without firing the callback twice.
func (a *ReduceArgument[A]) Destroy() error {
	if !a.destroyed.CompareAndSwap(false, true) {
		return ErrAlreadyDestroyed
	}

	if a.onDestroy != nil {
		a.onDestroy()
	}

	a.mu.Lock()
	var zero A
	a.value = zero
	a.mu.Unlock()

	return nil
}
