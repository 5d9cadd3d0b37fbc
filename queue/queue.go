// Package queue provides the bounded, thread-safe FIFO message queue at the
// heart of every active component.
//
// Producers (output ports of other components, command sources) may enqueue
// concurrently; exactly one consumer — the owning component's dispatch loop —
// drains it. Enqueue on a full queue fails with errors.ErrQueueFull: the
// caller treats that as backpressure, not a fatal condition, and may retry or
// drop with a logged event depending on policy.
//
// Statistics are always collected. Prometheus metrics export is optional via
// the WithMetrics functional option.
package queue

import (
	"sync"

	"github.com/c360/activekit/errors"
	"github.com/c360/activekit/metric"
)

// Queue is a bounded FIFO buffer of pending invocations. It is safe for
// concurrent producers; the single-consumer discipline is the caller's
// contract, not enforced here.
type Queue[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	size     int
	head     int // next write position
	tail     int // next read position
	closed   bool

	stats   *Statistics
	metrics *metric.Metrics
	owner   string
}

// Option configures queue behavior using the functional options pattern.
type Option[T any] func(*Queue[T])

// WithMetrics exports queue depth and drop counts to the given core metrics,
// labeled with the owning component's name. If metrics is nil the option is
// ignored.
func WithMetrics[T any](metrics *metric.Metrics, owner string) Option[T] {
	return func(q *Queue[T]) {
		if metrics != nil && owner != "" {
			q.metrics = metrics
			q.owner = owner
		}
	}
}

// New creates a bounded queue with the given capacity. A capacity below 1 is
// clamped to 1.
func New[T any](capacity int, options ...Option[T]) *Queue[T] {
	if capacity <= 0 {
		capacity = 1
	}

	q := &Queue[T]{
		items:    make([]T, capacity),
		capacity: capacity,
		stats:    NewStatistics(),
	}

	for _, opt := range options {
		if opt != nil {
			opt(q)
		}
	}

	return q
}

// Enqueue appends an item in arrival order. A full queue rejects the item
// with a transient errors.ErrQueueFull so the producer sees backpressure
// instead of silent loss.
func (q *Queue[T]) Enqueue(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errors.WrapInvalid(errors.ErrQueueClosed, "Queue", "Enqueue", "closed check")
	}

	if q.size == q.capacity {
		q.stats.Drop()
		if q.metrics != nil {
			q.metrics.RecordQueueDrop(q.owner)
		}
		return errors.WrapTransient(errors.ErrQueueFull, "Queue", "Enqueue", "capacity check")
	}

	q.items[q.head] = item
	q.head = (q.head + 1) % q.capacity
	q.size++

	q.stats.Enqueue()
	q.stats.UpdateDepth(int64(q.size))
	if q.metrics != nil {
		q.metrics.RecordQueueDepth(q.owner, q.size)
	}

	return nil
}

// Dequeue removes and returns the oldest item.
func (q *Queue[T]) Dequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.size == 0 {
		return zero, false
	}

	item := q.items[q.tail]
	q.items[q.tail] = zero // clear for GC
	q.tail = (q.tail + 1) % q.capacity
	q.size--

	q.stats.Dequeue(1)
	q.stats.UpdateDepth(int64(q.size))
	if q.metrics != nil {
		q.metrics.RecordQueueDepth(q.owner, q.size)
	}

	return item, true
}

// DequeueAll atomically drains every item present at call time, in FIFO
// arrival order. Items enqueued after the drain begins are untouched; this is
// the bounded drain the dispatch loop relies on.
func (q *Queue[T]) DequeueAll() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size == 0 {
		return nil
	}

	result := make([]T, q.size)
	var zero T
	for i := range result {
		result[i] = q.items[q.tail]
		q.items[q.tail] = zero
		q.tail = (q.tail + 1) % q.capacity
	}

	drained := q.size
	q.size = 0
	q.stats.Dequeue(int64(drained))
	q.stats.UpdateDepth(0)
	if q.metrics != nil {
		q.metrics.RecordQueueDepth(q.owner, 0)
	}

	return result
}

// Depth returns the current number of pending items.
func (q *Queue[T]) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Capacity returns the maximum number of items the queue can hold.
func (q *Queue[T]) Capacity() int {
	return q.capacity // immutable, no lock needed
}

// IsEmpty returns true if no items are pending.
func (q *Queue[T]) IsEmpty() bool {
	return q.Depth() == 0
}

// Clear discards all pending items. Used only at component teardown.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	for i := 0; i < q.capacity; i++ {
		q.items[i] = zero
	}
	q.head = 0
	q.tail = 0
	q.size = 0

	q.stats.UpdateDepth(0)
	if q.metrics != nil {
		q.metrics.RecordQueueDepth(q.owner, 0)
	}
}

// Close rejects further enqueues. Pending items remain drainable.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// Stats returns queue statistics (always available for observability).
func (q *Queue[T]) Stats() *Statistics {
	return q.stats
}
