// Package reduce_test verifies ReduceTask's scheduling under genuinely
// concurrent argument readiness.
package reduce_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/blocksparse/future"
	"github.com/katalvlaran/blocksparse/reduce"
)

// TestConcurrentAdd_AllSettledConcurrently fans out num goroutines, each
// adding one argument and settling it immediately; the reduced sum must
// account for every one regardless of interleaving.
func TestConcurrentAdd_AllSettledConcurrently(t *testing.T) {
	q := future.NewLocalQueue(8)
	defer q.Close()

	task := reduce.NewReduceTask[float64, float64](sumOp{}, q)
	const num = 200

	var wg sync.WaitGroup
	wg.Add(num)
	for i := 0; i < num; i++ {
		go func(id int) {
			defer wg.Done()
			require.NoError(t, task.Add(future.Resolved[float64](1, nil), nil))
		}(i)
	}
	wg.Wait()

	f, err := task.Submit()
	require.NoError(t, err)

	got, err := await(t, f)
	require.NoError(t, err)
	require.Equal(t, float64(num), got)
}

// TestConcurrentAdd_SettleAfterSubmit adds unsettled arguments from
// concurrent goroutines, submits once they are all added, then settles
// every underlying future concurrently from a second wave of goroutines.
func TestConcurrentAdd_SettleAfterSubmit(t *testing.T) {
	q := future.NewLocalQueue(8)
	defer q.Close()

	task := reduce.NewReduceTask[float64, float64](sumOp{}, q)
	const num = 200

	futs := make([]*future.LocalFuture[float64], num)
	var wg sync.WaitGroup
	wg.Add(num)
	for i := 0; i < num; i++ {
		futs[i] = future.NewLocalFuture[float64]()
		go func(id int) {
			defer wg.Done()
			require.NoError(t, task.Add(futs[id], nil))
		}(i)
	}
	wg.Wait()

	resultFut, err := task.Submit()
	require.NoError(t, err)

	wg.Add(num)
	for i := 0; i < num; i++ {
		go func(id int) {
			defer wg.Done()
			require.NoError(t, futs[id].Set(1, nil))
		}(i)
	}
	wg.Wait()

	got, err := await(t, resultFut)
	require.NoError(t, err)
	require.Equal(t, float64(num), got)
}
