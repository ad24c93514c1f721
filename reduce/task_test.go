package reduce_test

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/blocksparse/future"
	"github.com/katalvlaran/blocksparse/reduce"
)

// sumOp is a commutative-monoid-with-seed Op over plain float64 values —
// the single-argument-mode reference used throughout this file.
type sumOp struct{}

func (sumOp) Identity() float64                                 { return 0 }
func (sumOp) Combine(result, other float64) (float64, error)     { return result + other, nil }
func (sumOp) Reduce(result float64, a float64) (float64, error)  { return result + a, nil }
func (sumOp) Finalize(result float64) (float64, error)           { return result, nil }
func (sumOp) ReduceFused(result, a1, a2 float64) (float64, error) {
	return result + a1 + a2, nil
}

// dotOp reduces Pair[float64, float64] arguments into their dot product —
// the pair-argument-mode reference.
type dotOp struct{}

func (dotOp) Identity() float64 { return 0 }
func (dotOp) Combine(result, other float64) (float64, error) {
	return result + other, nil
}
func (dotOp) Reduce(result float64, a reduce.Pair[float64, float64]) (float64, error) {
	return result + a.Left*a.Right, nil
}
func (dotOp) ReduceFused(result float64, a1, a2 reduce.Pair[float64, float64]) (float64, error) {
	return result + a1.Left*a1.Right + a2.Left*a2.Right, nil
}
func (dotOp) Finalize(result float64) (float64, error) { return result, nil }

// failingOp's Reduce always errors, to exercise poisoning.
type failingOp struct{ sumOp }

func (failingOp) Reduce(result float64, a float64) (float64, error) {
	return 0, errors.New("boom")
}

// await blocks until f settles, via RegisterCallback rather than polling.
func await[T any](t *testing.T, f future.Future[T]) (T, error) {
	t.Helper()

	ch := make(chan struct{})
	var v T
	var err error
	f.RegisterCallback(func(val T, e error) {
		v, err = val, e
		close(ch)
	})

	select {
	case <-ch:
		return v, err
	case <-time.After(5 * time.Second):
		t.Fatal("future did not settle within timeout")
		return v, err
	}
}

func newTestQueue(t *testing.T) *future.LocalQueue {
	t.Helper()
	q := future.NewLocalQueue(4)
	t.Cleanup(q.Close)
	return q
}

func TestReduceTask_ZeroArguments(t *testing.T) {
	q := newTestQueue(t)
	task := reduce.NewReduceTask[float64, float64](sumOp{}, q)

	f, err := task.Submit()
	require.NoError(t, err)

	got, err := await(t, f)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestReduceTask_OneArgument_SettledBeforeSubmit(t *testing.T) {
	q := newTestQueue(t)
	task := reduce.NewReduceTask[float64, float64](sumOp{}, q)

	arg := future.Resolved[float64](7, nil)
	require.NoError(t, task.Add(arg, nil))

	f, err := task.Submit()
	require.NoError(t, err)

	got, err := await(t, f)
	require.NoError(t, err)
	assert.Equal(t, 7.0, got)
}

func TestReduceTask_OneArgument_SettledAfterSubmit(t *testing.T) {
	q := newTestQueue(t)
	task := reduce.NewReduceTask[float64, float64](sumOp{}, q)

	arg := future.NewLocalFuture[float64]()
	require.NoError(t, task.Add(arg, nil))

	f, err := task.Submit()
	require.NoError(t, err)

	require.NoError(t, arg.Set(11, nil))

	got, err := await(t, f)
	require.NoError(t, err)
	assert.Equal(t, 11.0, got)
}

// TestReduceTask_SixValues_AnyArrivalOrder mirrors a deterministic-sum
// reduction over 6 already-settled values, added in several different
// orders, all of which must produce the same total.
func TestReduceTask_SixValues_AnyArrivalOrder(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}
	want := 21.0

	orders := [][]int{
		{0, 1, 2, 3, 4, 5},
		{5, 4, 3, 2, 1, 0},
		{2, 0, 4, 1, 5, 3},
	}

	for _, order := range orders {
		q := newTestQueue(t)
		task := reduce.NewReduceTask[float64, float64](sumOp{}, q)

		for _, idx := range order {
			require.NoError(t, task.Add(future.Resolved[float64](values[idx], nil), nil))
		}

		f, err := task.Submit()
		require.NoError(t, err)

		got, err := await(t, f)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

// TestReduceTask_StreamingArrival adds 10 unresolved futures, submits
// immediately, then settles half synchronously and the rest from another
// goroutine — exercising the scheduling table under genuinely async
// readiness rather than already-settled arguments.
func TestReduceTask_StreamingArrival(t *testing.T) {
	q := newTestQueue(t)
	task := reduce.NewReduceTask[float64, float64](sumOp{}, q)

	futs := make([]*future.LocalFuture[float64], 10)
	for i := range futs {
		futs[i] = future.NewLocalFuture[float64]()
		require.NoError(t, task.Add(futs[i], nil))
	}

	resultFut, err := task.Submit()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, futs[i].Set(float64(i+1), nil))
	}

	var wg sync.WaitGroup
	wg.Add(5)
	for i := 5; i < 10; i++ {
		i := i
		go func() {
			defer wg.Done()
			require.NoError(t, futs[i].Set(float64(i+1), nil))
		}()
	}
	wg.Wait()

	got, err := await(t, resultFut)
	require.NoError(t, err)
	assert.Equal(t, 55.0, got) // 1+2+...+10
}

func TestReduceTask_PairArgumentMode_DotProduct(t *testing.T) {
	q := newTestQueue(t)
	task := reduce.NewReduceTask[reduce.Pair[float64, float64], float64](dotOp{}, q)

	lefts := []float64{1, 2, 3}
	rights := []float64{4, 5, 6}
	for i := range lefts {
		require.NoError(t, reduce.AddPair[float64, float64, float64](
			task,
			future.Resolved[float64](lefts[i], nil),
			future.Resolved[float64](rights[i], nil),
			nil,
		))
	}

	f, err := task.Submit()
	require.NoError(t, err)

	got, err := await(t, f)
	require.NoError(t, err)
	assert.Equal(t, 1*4+2*5+3*6, int(math.Round(got)))
}

func TestReduceTask_AddAfterSubmit(t *testing.T) {
	q := newTestQueue(t)
	task := reduce.NewReduceTask[float64, float64](sumOp{}, q)

	_, err := task.Submit()
	require.NoError(t, err)

	err = task.Add(future.Resolved[float64](1, nil), nil)
	assert.ErrorIs(t, err, reduce.ErrAddAfterSubmit)
}

func TestReduceTask_SubmitTwice(t *testing.T) {
	q := newTestQueue(t)
	task := reduce.NewReduceTask[float64, float64](sumOp{}, q)

	_, err := task.Submit()
	require.NoError(t, err)

	_, err = task.Submit()
	assert.ErrorIs(t, err, reduce.ErrAlreadySubmitted)
}

func TestReduceTask_UpstreamFailure_PoisonsResult(t *testing.T) {
	q := newTestQueue(t)
	task := reduce.NewReduceTask[float64, float64](sumOp{}, q)

	require.NoError(t, task.Add(future.Resolved[float64](1, nil), nil))
	require.NoError(t, task.Add(future.Resolved[float64](0, errors.New("sensor offline")), nil))

	f, err := task.Submit()
	require.NoError(t, err)

	_, err = await(t, f)
	require.Error(t, err)
	assert.ErrorIs(t, err, reduce.ErrPoisoned)
}

func TestReduceTask_OperatorFailure_PoisonsResult(t *testing.T) {
	q := newTestQueue(t)
	task := reduce.NewReduceTask[float64, float64](failingOp{}, q)

	require.NoError(t, task.Add(future.Resolved[float64](1, nil), nil))

	f, err := task.Submit()
	require.NoError(t, err)

	_, err = await(t, f)
	assert.ErrorIs(t, err, reduce.ErrPoisoned)
}

// TestReduceTask_PoisonDuringReduction_DoesNotOrphanLaterArgument covers a
// three-argument trace where the poisoning pair isn't the last one to
// arrive: a1 settles first and parks; a2 settles with an error and pairs
// with a1, poisoning the task; a3 settles afterward and must not get stuck
// parked forever with nothing left to drain it.
func TestReduceTask_PoisonDuringReduction_DoesNotOrphanLaterArgument(t *testing.T) {
	q := newTestQueue(t)
	task := reduce.NewReduceTask[float64, float64](sumOp{}, q)

	require.NoError(t, task.Add(future.Resolved[float64](1, nil), nil))
	require.NoError(t, task.Add(future.Resolved[float64](0, errors.New("sensor offline")), nil))
	require.NoError(t, task.Add(future.Resolved[float64](3, nil), nil))

	f, err := task.Submit()
	require.NoError(t, err)

	_, err = await(t, f)
	require.Error(t, err)
	assert.ErrorIs(t, err, reduce.ErrPoisoned)
}

func TestReduceTask_OnDestroy_FiresPerArgument(t *testing.T) {
	q := newTestQueue(t)
	task := reduce.NewReduceTask[float64, float64](sumOp{}, q)

	var mu sync.Mutex
	fired := 0
	onDestroy := func() {
		mu.Lock()
		fired++
		mu.Unlock()
	}

	for _, v := range []float64{1, 2, 3, 4} {
		require.NoError(t, task.Add(future.Resolved[float64](v, nil), onDestroy))
	}

	f, err := task.Submit()
	require.NoError(t, err)

	_, err = await(t, f)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 4, fired)
}

func TestReduceTask_CompletionCallback(t *testing.T) {
	q := newTestQueue(t)
	task := reduce.NewReduceTask[float64, float64](sumOp{}, q)

	done := make(chan float64, 1)
	task.OnComplete(func(v float64, err error) {
		require.NoError(t, err)
		done <- v
	})

	require.NoError(t, task.Add(future.Resolved[float64](2, nil), nil))
	require.NoError(t, task.Add(future.Resolved[float64](3, nil), nil))

	_, err := task.Submit()
	require.NoError(t, err)

	select {
	case v := <-done:
		assert.Equal(t, 5.0, v)
	case <-time.After(5 * time.Second):
		t.Fatal("completion callback never fired")
	}
}

func TestReduceTask_Count(t *testing.T) {
	q := newTestQueue(t)
	task := reduce.NewReduceTask[float64, float64](sumOp{}, q)

	for i := 0; i < 3; i++ {
		require.NoError(t, task.Add(future.NewLocalFuture[float64](), nil))
	}
	assert.Equal(t, 3, task.Count())
}
