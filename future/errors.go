package future

import "errors"

// NOTE ON NAMING & PREFIXING
// --------------------------
// Every message is prefixed with "future: ..." for consistency and to allow
// easy grepping across logs. Callers should match via errors.Is, never by
// string comparison.

var (
	// ErrAlreadySet is returned by Set when the future has already settled.
	// A Future transitions exactly once; a second Set is a programmer error.
	ErrAlreadySet = errors.New("future: already set")

	// ErrQueueClosed is returned by Submit once the owning queue has been
	// closed; no further closures are accepted.
	ErrQueueClosed = errors.New("future: queue closed")

	// ErrNotReady is returned by Get when called on a pending future.
	// Callers must Probe or register a callback first.
	ErrNotReady = errors.New("future: not ready")
)
