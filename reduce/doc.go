// Package reduce implements the asynchronous, nondeterministic-order
// commutative reduction engine: ReduceTask collects N arguments — each a
// future value, or a pair of futures in pair-argument mode — and folds
// them with a user-supplied commutative-monoid Op into a single future
// result, without ever blocking the goroutine an argument happens to
// settle on.
package reduce
