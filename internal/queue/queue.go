// Package queue provides the unbounded FIFO used for the dispatcher's
// control and output streams.
package queue

import "sync"

// Queue is a thread-safe FIFO with blocking dequeue.
//
// The queue is unbounded so producers never block on a slow consumer.
// Any number of goroutines may Enqueue; exactly one goroutine is expected
// to consume. Close marks the end of the stream: pending elements are still
// delivered, after which Dequeue reports exhaustion.
//
// The queue uses a channel for signaling so a consumer can wait on it
// alongside other channels in a select.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	signal chan struct{} // Signals availability (buffered, size 1)
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		items:  make([]T, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an element to the back of the queue.
// Returns false if the queue is closed; the element is not stored.
func (q *Queue[T]) Enqueue(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append(q.items, v)

	// Non-blocking: a buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// Dequeue removes and returns the front element.
// Blocks until an element is available or the queue is closed.
// Returns false if the queue is closed and empty.
func (q *Queue[T]) Dequeue() (T, bool) {
	return q.DequeueOrDone(nil)
}

// DequeueOrDone is like Dequeue but also returns (zero, false) as soon as
// done is closed and the queue is empty. A nil done never fires.
func (q *Queue[T]) DequeueOrDone(done <-chan struct{}) (T, bool) {
	for {
		if v, ok := q.TryDequeue(); ok {
			return v, true
		}

		q.mu.Lock()
		exhausted := q.closed && len(q.items) == 0
		q.mu.Unlock()
		if exhausted {
			var zero T
			return zero, false
		}

		select {
		case <-q.signal:
		case <-done:
			var zero T
			return zero, false
		}
	}
}

// TryDequeue attempts to dequeue without blocking.
// Returns false if the queue is empty.
func (q *Queue[T]) TryDequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}

	v := q.items[0]

	// Clear the slot so the backing array does not retain the element.
	q.items[0] = zero

	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}

	return v, true
}

// Wait returns a channel that signals when elements may be available.
// The channel is closed once the queue is closed.
func (q *Queue[T]) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close signals that no more elements will be enqueued.
// Wakes any blocked consumer by closing the signal channel.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}

// Drain removes and returns every queued element without blocking.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]T, len(q.items))
	copy(out, q.items)
	clear(q.items)
	q.items = q.items[:0]
	return out
}
