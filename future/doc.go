// Package future provides the asynchronous substrate consumed by the rest
// of blocksparse: a one-shot Future[T] cell with callback registration, a
// priority-aware TaskQueue for submitting closures to worker goroutines, and
// an AllReduceSum[T] collective.
//
// In the system this package models, these primitives are normally supplied
// by a distributed runtime (a remote-reference mechanism, a shared task
// queue, a process group). Package future defines the interfaces that
// runtime must satisfy, plus a goroutine-pool-backed reference
// implementation (LocalFuture, LocalQueue, NopAllReduce) so reduce and
// shape are usable and testable standalone.
package future
