// Package queue implements a bounded single-producer/multi-consumer FIFO
// used to pipeline object keys and download results between pipeline
// stages, with backpressure so memory use doesn't scale with bucket size.
package queue

import "context"

// ClosableQueue is a bounded FIFO channel wrapper carrying values of type T.
//
// Closure uses Go's native close-with-drain channel semantics: after
// Close, pending items already in the channel are still delivered by Get
// in order, and once drained Get reports ok=false. This is the in-band
// closure sentinel spec.md describes, expressed with the primitive the
// language already gives us rather than a hand-rolled token.
//
// Single-producer/multi-consumer: exactly one goroutine should call Put
// and Close; any number of goroutines may call Get concurrently.
type ClosableQueue[T any] struct {
	ch chan T
}

// New creates a ClosableQueue with the given capacity.
func New[T any](capacity int) *ClosableQueue[T] {
	return &ClosableQueue[T]{ch: make(chan T, capacity)}
}

// Put enqueues an item, blocking until capacity is available or ctx is
// done. If ctx is done before the item is enqueued, Put returns ctx.Err()
// without enqueueing.
//
// Put on a queue that has already been closed is a programming error: the
// underlying channel send panics, which is the correct behavior for a
// fault that must surface loudly rather than be silently dropped.
func (q *ClosableQueue[T]) Put(ctx context.Context, item T) error {
	select {
	case q.ch <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get dequeues the next item, blocking until one is available, the queue
// is closed and drained, or ctx is done.
//
// ok is false exactly when the queue has been closed and fully drained;
// this is the "Closed" signal from spec.md's ClosableQueue contract.
func (q *ClosableQueue[T]) Get(ctx context.Context) (item T, ok bool, err error) {
	select {
	case item, ok = <-q.ch:
		return item, ok, nil
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}

// Close closes the queue. Must be called at most once, by the single
// producer, after its last Put. Calling Close more than once panics,
// matching the "exactly one producer calls close()" invariant.
func (q *ClosableQueue[T]) Close() {
	close(q.ch)
}
