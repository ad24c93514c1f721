package reduce

// Op is the commutative-monoid-with-seed contract a ReduceTask's reduction
// operator must satisfy. A is the type of one consumed argument value — a
// bare value V in single-argument mode, or a Pair[L, Rt] in pair-argument
// mode. R is the accumulator/result type.
//
// Each call shape the reduction scheduler needs is a distinct named
// method, never dispatched by argument count or type:
//
//	op()                       -> Identity
//	op(result, other_result)   -> Combine
//	op(result, arg)            -> Reduce
//	op(result, arg1, arg2)     -> ReduceFused
//	op(temp)                   -> Finalize
//
// Implementations MUST be commutative and associative in the sense that,
// for any interleaving of Combine/Reduce/ReduceFused calls over the same
// multiset of added arguments, the final (pre-Finalize) accumulator is
// identical up to floating-point rounding. Identity() must be a left-and-
// right identity for Combine/Reduce/ReduceFused.
type Op[A, R any] interface {
	// Identity returns a fresh empty/seed result — op().
	Identity() R

	// Combine merges two partially-reduced results — op(result,
	// other_result) — used by the drain loop when two ready
	// accumulators meet instead of an accumulator and a raw argument.
	Combine(result, other R) (R, error)

	// Reduce folds one argument into result — op(result, arg).
	Reduce(result R, a A) (R, error)

	// ReduceFused folds two ready arguments into a caller-supplied fresh
	// result in one step — op(result, arg1, arg2) — used when two
	// arguments become ready with no partial result yet to claim; the
	// caller always passes Identity() as result.
	ReduceFused(result R, a1, a2 A) (R, error)

	// Finalize applies a one-time post-processing pass to the fully
	// reduced result — op(temp) — e.g. permuting the final tile.
	Finalize(result R) (R, error)
}
