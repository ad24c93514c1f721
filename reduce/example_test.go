package reduce_test

import (
	"fmt"

	"github.com/katalvlaran/blocksparse/future"
	"github.com/katalvlaran/blocksparse/reduce"
)

// ExampleReduceTask sums four already-settled values regardless of the
// order they were added in.
func ExampleReduceTask() {
	q := future.NewLocalQueue(2)
	defer q.Close()

	task := reduce.NewReduceTask[float64, float64](sumOp{}, q)
	for _, v := range []float64{10, 20, 30, 40} {
		_ = task.Add(future.Resolved[float64](v, nil), nil)
	}

	resultFut, _ := task.Submit()

	done := make(chan struct{})
	var total float64
	resultFut.RegisterCallback(func(v float64, err error) {
		total = v
		close(done)
	})
	<-done

	fmt.Println(total)
	// Output:
	// 100
}
