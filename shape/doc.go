// Package shape implements the sparse-shape algebra: a dense tensor of
// per-tile Frobenius norms, normalized by tile size, closed under
// permutation, scaling, entrywise addition, entrywise multiplication and
// contraction (gemm). Operations that need per-tile size products use a
// divide-and-conquer outer-product scaffold: only the per-dimension size
// vectors are stored, and their outer product is built when an operation
// applies it to norms.
//
// Values of SparseShape are immutable after construction; every operation
// returns a new shape rather than mutating the receiver.
package shape
