// Package blocksparse ties together the three packages that make up the
// block-sparse tensor engine's scheduling core:
//
//	future/ — one-shot futures and the priority task queue that drains
//	          them without ever blocking a worker goroutine
//	reduce/ — an async commutative-reduce task built on future, folding
//	          an unbounded, concurrently-arriving stream of arguments
//	          down to a single settled result
//	shape/  — a sparse-shape algebra: per-tile Frobenius norms tracked
//	          alongside their tile-size vectors, with scale/add/mult/GEMM
//	          operations and hard-zero thresholding
//
// Each subpackage is independently usable; reduce depends on future, and
// shape depends on future only for the AllReduceSum interface its
// collective constructor option takes. This package exists only to host the module's
// root-level documentation — application code imports the subpackages
// directly.
package blocksparse
