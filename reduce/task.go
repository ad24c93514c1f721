package reduce

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/katalvlaran/blocksparse/future"
)

// ReduceTask orchestrates the reduction of N arguments, added in any
// order and becoming ready in any (nondeterministic) order, into a single
// future-valued result under a commutative-monoid operator.
//
// A ReduceTask never blocks a worker thread: every reduction step is a
// closure submitted to the TaskQueue at PriorityHigh, so an argument
// becoming ready on an arbitrary goroutine only ever enqueues work.
type ReduceTask[A, R any] struct {
	op    Op[A, R]
	queue future.TaskQueue

	// slotMu guards the (readyResult, readyArg) pair — the task's only
	// lock. It is never held while op is invoked.
	slotMu      sync.Mutex
	readyResult *R
	readyArg    *ReduceArgument[A]

	// outstanding counts arguments added-but-not-yet-consumed, plus 1
	// for the "not yet submitted" sentinel.
	outstanding int32 // atomic

	// addMu guards submitted and added together; it is taken by Add,
	// Submit and Count, and by ready()'s park branch (via
	// isSoleArgument), never by drain or while op runs.
	addMu     sync.Mutex
	submitted bool
	added     int32

	resultFuture future.Future[R]
	completionCB func(R, error)

	poisoned  atomic.Bool
	poisonMu  sync.Mutex
	poisonErr error
}

// NewReduceTask constructs an unsubmitted ReduceTask around op, using
// queue to run its internal reduction and terminal steps.
func NewReduceTask[A, R any](op Op[A, R], queue future.TaskQueue) *ReduceTask[A, R] {
	return &ReduceTask[A, R]{
		op:           op,
		queue:        queue,
		outstanding:  1,
		resultFuture: future.NewLocalFuture[R](),
	}
}

// OnComplete registers cb to fire once the final result is set. It must
// be called before Submit; it returns the receiver so it can be chained
// onto NewReduceTask.
func (t *ReduceTask[A, R]) OnComplete(cb func(R, error)) *ReduceTask[A, R] {
	t.completionCB = cb
	return t
}

// Count returns the number of arguments added so far.
func (t *ReduceTask[A, R]) Count() int {
	t.addMu.Lock()
	defer t.addMu.Unlock()

	return int(t.added)
}

// Add registers another argument built from fut, incrementing
// outstanding. It is not permitted after Submit.
func (t *ReduceTask[A, R]) Add(fut future.Future[A], onDestroy func()) error {
	return t.addArgument(func() *ReduceArgument[A] {
		return NewArgument[A](t, fut, onDestroy)
	})
}

// AddPair registers a pair-argument-mode argument built from two futures.
// It is a package-level function, not a method, because Go methods
// cannot introduce additional type parameters beyond the receiver's.
func AddPair[L, Rt, R any](t *ReduceTask[Pair[L, Rt], R], left future.Future[L], right future.Future[Rt], onDestroy func()) error {
	return t.addArgument(func() *ReduceArgument[Pair[L, Rt]] {
		return NewPairArgument[L, Rt](t, left, right, onDestroy)
	})
}

func (t *ReduceTask[A, R]) addArgument(mk func() *ReduceArgument[A]) error {
	t.addMu.Lock()
	if t.submitted {
		t.addMu.Unlock()
		return ErrAddAfterSubmit
	}
	atomic.AddInt32(&t.outstanding, 1)
	t.added++
	t.addMu.Unlock()

	mk() // registers the underlying future callback(s); ready() drives the rest
	return nil
}

// Submit finalizes the task: no further Add/AddPair calls are permitted.
// It returns the future the caller awaits for the reduced (and
// Finalize-d) result.
//
// If zero arguments were ever added, the terminal step is submitted at
// once and finalizes and sets the identity. If exactly one argument was added, it is folded against
// the identity the moment it becomes ready, rather than waiting forever
// for a partner that — by construction, since Submit forbids further
// adds — can never arrive; see ready's isSoleArgument branch.
func (t *ReduceTask[A, R]) Submit() (future.Future[R], error) {
	t.addMu.Lock()
	if t.submitted {
		t.addMu.Unlock()
		return nil, ErrAlreadySubmitted
	}
	t.submitted = true
	n := t.added
	t.addMu.Unlock()

	t.decrementOutstanding()

	if n == 1 {
		// The sole argument may already have settled and parked itself
		// before submitted flipped true (ready() conservatively parks
		// rather than assume it is alone while more Add calls remain
		// possible). Claim it now if so; if it hasn't settled yet,
		// ready's isSoleArgument check will fold it directly once it does.
		t.slotMu.Lock()
		parked := t.readyArg
		t.readyArg = nil
		t.slotMu.Unlock()

		if parked != nil {
			t.submitHigh(func() { t.reduceResultWithArg(t.op.Identity(), parked) })
		}
	}

	return t.resultFuture, nil
}

// ready is the scheduling entry point: it is invoked (from an arbitrary
// goroutine) whenever an argument's underlying future(s) settle.
func (t *ReduceTask[A, R]) ready(a *ReduceArgument[A]) {
	t.slotMu.Lock()
	if t.isPoisoned() {
		t.slotMu.Unlock()
		t.destroyAndDecrement(a)
		return
	}
	switch {
	case t.readyResult != nil:
		result := *t.readyResult
		t.readyResult = nil
		t.slotMu.Unlock()
		t.submitHigh(func() { t.reduceResultWithArg(result, a) })

	case t.readyArg != nil:
		b := t.readyArg
		t.readyArg = nil
		t.slotMu.Unlock()
		t.submitHigh(func() { t.reducePair(b, a) })

	default:
		if t.isSoleArgument() {
			t.slotMu.Unlock()
			t.submitHigh(func() { t.reduceResultWithArg(t.op.Identity(), a) })
			return
		}
		t.readyArg = a
		t.slotMu.Unlock()
	}
}

// isSoleArgument reports whether exactly one argument was ever (and will
// ever be) added to this task — true only once Submit has run, since
// more Add calls remain possible until then.
func (t *ReduceTask[A, R]) isSoleArgument() bool {
	t.addMu.Lock()
	defer t.addMu.Unlock()

	return t.submitted && t.added == 1
}

// submitHigh enqueues fn at PriorityHigh, poisoning the task if the queue
// itself rejects the submission — a rejected submission has no retry
// path, so it is treated as a fatal failure of the task.
func (t *ReduceTask[A, R]) submitHigh(fn func()) {
	if err := t.queue.Submit(fn, future.PriorityHigh); err != nil {
		t.poison(err)
	}
}

// reduceResultWithArg is the "set/unset" scheduling action: op(result,
// a.Arg()), then drain.
func (t *ReduceTask[A, R]) reduceResultWithArg(result R, a *ReduceArgument[A]) {
	defer t.destroyAndDecrement(a)

	if t.isPoisoned() {
		return
	}

	v, err := a.Arg()
	if err != nil {
		t.poison(err)
		return
	}

	result, err = t.op.Reduce(result, v)
	if err != nil {
		t.poison(err)
		return
	}

	t.drain(result)
}

// reducePair is the "unset/set" scheduling action: a fresh identity is
// folded with both b and a in one ReduceFused call, then drain.
func (t *ReduceTask[A, R]) reducePair(b, a *ReduceArgument[A]) {
	defer t.destroyAndDecrement(b)
	defer t.destroyAndDecrement(a)

	if t.isPoisoned() {
		return
	}

	bv, berr := b.Arg()
	av, aerr := a.Arg()
	if berr != nil {
		t.poison(berr)
		return
	}
	if aerr != nil {
		t.poison(aerr)
		return
	}

	result, err := t.op.ReduceFused(t.op.Identity(), bv, av)
	if err != nil {
		t.poison(err)
		return
	}

	t.drain(result)
}

// drain repeatedly pairs result against whatever is ready, eagerly
// consuming work rather than waiting for its own scheduling quantum —
// this is what keeps a reducer from ever sitting idle waiting for one
// specific sibling while others are already available.
func (t *ReduceTask[A, R]) drain(result R) {
	for {
		if t.isPoisoned() {
			return
		}

		t.slotMu.Lock()
		if t.readyArg != nil {
			taken := t.readyArg
			t.readyArg = nil
			t.slotMu.Unlock()

			v, verr := taken.Arg()
			var err error
			if verr != nil {
				err = verr
			} else {
				result, err = t.op.Reduce(result, v)
			}
			t.destroyAndDecrement(taken)
			if err != nil {
				t.poison(err)
				return
			}
			continue
		}

		if t.readyResult != nil {
			taken := t.readyResult
			t.readyResult = nil
			t.slotMu.Unlock()

			var err error
			result, err = t.op.Combine(result, *taken)
			if err != nil {
				t.poison(err)
				return
			}
			continue
		}

		// Nothing ready: park result and let the next ready() call —
		// or the terminal step, if outstanding has already hit zero —
		// pick it up.
		t.readyResult = &result
		t.slotMu.Unlock()
		return
	}
}

// destroyAndDecrement destroys a (exactly once) and decrements
// outstanding, triggering the terminal step if it reaches zero.
func (t *ReduceTask[A, R]) destroyAndDecrement(a *ReduceArgument[A]) {
	_ = a.Destroy()
	t.decrementOutstanding()
}

// decrementOutstanding decrements outstanding and, if it reaches zero,
// submits the terminal step to the queue.
func (t *ReduceTask[A, R]) decrementOutstanding() {
	if atomic.AddInt32(&t.outstanding, -1) == 0 {
		t.submitHigh(t.terminal)
	}
}

// terminal is the task's closing step: the sole survivor (or, if zero
// arguments were ever added, the identity) is finalized and set on
// resultFuture, then completionCB fires.
func (t *ReduceTask[A, R]) terminal() {
	t.slotMu.Lock()
	result := t.readyResult
	t.readyResult = nil
	t.slotMu.Unlock()

	if t.isPoisoned() {
		var zero R
		err := t.poisonErrValue()
		_ = t.resultFuture.Set(zero, err)
		if t.completionCB != nil {
			t.completionCB(zero, err)
		}
		return
	}

	base := t.op.Identity()
	if result != nil {
		base = *result
	}

	final, err := t.op.Finalize(base)
	if err != nil {
		t.poison(err)
		err = t.poisonErrValue()
	}

	_ = t.resultFuture.Set(final, err)
	if t.completionCB != nil {
		t.completionCB(final, err)
	}
}

// poison marks the task permanently failed and flushes whatever is
// currently parked in the ready slots: a parked argument has no future
// partner coming once nothing will ever drain it again, so it must be
// destroyed and counted down here rather than left stuck. Combined with
// ready's own isPoisoned check (taken under the same slotMu), this covers
// both orderings — an argument parking before poisoning is caught by this
// flush, one arriving after is caught by ready itself.
func (t *ReduceTask[A, R]) poison(err error) {
	if !t.poisoned.CompareAndSwap(false, true) {
		return
	}
	t.poisonMu.Lock()
	t.poisonErr = err
	t.poisonMu.Unlock()

	t.slotMu.Lock()
	parked := t.readyArg
	t.readyArg = nil
	t.readyResult = nil
	t.slotMu.Unlock()

	if parked != nil {
		t.destroyAndDecrement(parked)
	}
}

func (t *ReduceTask[A, R]) isPoisoned() bool {
	return t.poisoned.Load()
}

func (t *ReduceTask[A, R]) poisonErrValue() error {
	t.poisonMu.Lock()
	defer t.poisonMu.Unlock()

	if t.poisonErr != nil {
		return fmt.Errorf("%w: %v", ErrPoisoned, t.poisonErr)
	}
	return ErrPoisoned
}
