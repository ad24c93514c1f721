package reduce

import "errors"

// NOTE ON NAMING & PREFIXING
// --------------------------
// Every message is prefixed with "reduce: ..." for consistency. Callers
// MUST match via errors.Is; these sentinels may be wrapped with additional
// context at call boundaries.

var (
	// ErrAddAfterSubmit is returned by Add/AddPair once Submit has been
	// called on the task.
	ErrAddAfterSubmit = errors.New("reduce: add after submit")

	// ErrAlreadySubmitted is returned by Submit when called more than
	// once on the same task.
	ErrAlreadySubmitted = errors.New("reduce: already submitted")

	// ErrAlreadyDestroyed is returned by Destroy when called more than
	// once on the same argument: an argument never survives beyond the
	// single reduction step that consumes it.
	ErrAlreadyDestroyed = errors.New("reduce: argument already destroyed")

	// ErrPoisoned is the error a resultFuture settles with once an
	// upstream future or the operator itself has failed; already-
	// scheduled reducers short-circuit as soon as they observe it.
	ErrPoisoned = errors.New("reduce: poisoned by an upstream failure")
)
