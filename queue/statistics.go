package queue

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks queue activity. Counters use atomics; the depth tracking
// is protected by a mutex so the high-water mark stays consistent.
type Statistics struct {
	enqueues int64
	dequeues int64
	drops    int64

	mu        sync.RWMutex
	startTime time.Time
	depth     int64
	maxDepth  int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Enqueue records one accepted enqueue.
func (s *Statistics) Enqueue() {
	atomic.AddInt64(&s.enqueues, 1)
}

// Dequeue records n items leaving the queue.
func (s *Statistics) Dequeue(n int64) {
	atomic.AddInt64(&s.dequeues, n)
}

// Drop records an enqueue rejected by a full queue.
func (s *Statistics) Drop() {
	atomic.AddInt64(&s.drops, 1)
}

// UpdateDepth updates the current depth and the high-water mark.
func (s *Statistics) UpdateDepth(depth int64) {
	s.mu.Lock()
	s.depth = depth
	if depth > s.maxDepth {
		s.maxDepth = depth
	}
	s.mu.Unlock()
}

// Enqueues returns the total number of accepted enqueues.
func (s *Statistics) Enqueues() int64 {
	return atomic.LoadInt64(&s.enqueues)
}

// Dequeues returns the total number of dequeued items.
func (s *Statistics) Dequeues() int64 {
	return atomic.LoadInt64(&s.dequeues)
}

// Drops returns the total number of rejected enqueues.
func (s *Statistics) Drops() int64 {
	return atomic.LoadInt64(&s.drops)
}

// Depth returns the last recorded depth.
func (s *Statistics) Depth() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.depth
}

// MaxDepth returns the high-water mark since creation.
func (s *Statistics) MaxDepth() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxDepth
}

// Uptime returns the time since the statistics tracker was created.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}
