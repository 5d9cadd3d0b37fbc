package queue

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/activekit/errors"
)

func TestQueueBasicOperations(t *testing.T) {
	q := New[string](3)

	// Initial state
	assert.Equal(t, 0, q.Depth())
	assert.Equal(t, 3, q.Capacity())
	assert.True(t, q.IsEmpty())

	require.NoError(t, q.Enqueue("first"))
	require.NoError(t, q.Enqueue("second"))
	assert.Equal(t, 2, q.Depth())
	assert.False(t, q.IsEmpty())

	// FIFO order
	item, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "first", item)

	item, ok = q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, "second", item)

	_, ok = q.Dequeue()
	assert.False(t, ok, "dequeue on empty queue should fail")
}

func TestQueueFullRejectsWithBackpressure(t *testing.T) {
	q := New[int](2)

	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))

	err := q.Enqueue(3)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrQueueFull)
	assert.True(t, errors.IsTransient(err), "queue full must be classified transient")

	// Rejected item must not displace pending work
	assert.Equal(t, 2, q.Depth())
	item, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, 1, item)

	// Space freed, enqueue succeeds again
	require.NoError(t, q.Enqueue(3))
	assert.Equal(t, int64(1), q.Stats().Drops())
}

func TestQueueCapacityClamped(t *testing.T) {
	q := New[int](0)
	assert.Equal(t, 1, q.Capacity())

	q = New[int](-5)
	assert.Equal(t, 1, q.Capacity())
}

func TestQueueWrapAround(t *testing.T) {
	q := New[int](3)

	// Cycle through the ring several times to exercise head/tail wrapping
	for cycle := 0; cycle < 5; cycle++ {
		for i := 0; i < 3; i++ {
			require.NoError(t, q.Enqueue(cycle*10+i))
		}
		for i := 0; i < 3; i++ {
			item, ok := q.Dequeue()
			require.True(t, ok)
			assert.Equal(t, cycle*10+i, item)
		}
	}
}

func TestQueueDequeueAll(t *testing.T) {
	q := New[int](8)

	for i := 1; i <= 5; i++ {
		require.NoError(t, q.Enqueue(i))
	}

	items := q.DequeueAll()
	assert.Equal(t, []int{1, 2, 3, 4, 5}, items)
	assert.Equal(t, 0, q.Depth())

	// Empty drain returns nil
	assert.Nil(t, q.DequeueAll())
}

func TestQueueDequeueAllIsBounded(t *testing.T) {
	q := New[int](8)

	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	require.NoError(t, q.Enqueue(3))

	// Drain, then enqueue more: anything arriving after the drain snapshot
	// must wait for the next pass.
	items := q.DequeueAll()
	require.Len(t, items, 3)

	require.NoError(t, q.Enqueue(4))
	assert.Equal(t, 1, q.Depth())

	items = q.DequeueAll()
	assert.Equal(t, []int{4}, items)
}

func TestQueueClosedRejectsEnqueue(t *testing.T) {
	q := New[int](2)
	require.NoError(t, q.Enqueue(1))

	q.Close()

	err := q.Enqueue(2)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrQueueClosed)

	// Pending items remain drainable after close
	item, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, 1, item)
}

func TestQueueClear(t *testing.T) {
	q := New[int](4)
	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))

	q.Clear()
	assert.Equal(t, 0, q.Depth())
	assert.True(t, q.IsEmpty())

	// Queue is reusable after clear
	require.NoError(t, q.Enqueue(3))
	item, ok := q.Dequeue()
	require.True(t, ok)
	assert.Equal(t, 3, item)
}

func TestQueueConcurrentProducers(t *testing.T) {
	const producers = 8
	const perProducer = 100

	q := New[string](producers * perProducer)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = q.Enqueue(fmt.Sprintf("p%d-%d", p, i))
			}
		}(p)
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, q.Depth())

	// Per-producer order must survive interleaving
	lastSeen := make(map[int]int)
	for _, item := range q.DequeueAll() {
		var p, i int
		_, err := fmt.Sscanf(item, "p%d-%d", &p, &i)
		require.NoError(t, err)
		if last, seen := lastSeen[p]; seen {
			assert.Greater(t, i, last, "producer %d order violated", p)
		}
		lastSeen[p] = i
	}
}

func TestQueueStatistics(t *testing.T) {
	q := New[int](2)

	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	_ = q.Enqueue(3) // dropped

	q.DequeueAll()

	stats := q.Stats()
	assert.Equal(t, int64(2), stats.Enqueues())
	assert.Equal(t, int64(2), stats.Dequeues())
	assert.Equal(t, int64(1), stats.Drops())
	assert.Equal(t, int64(2), stats.MaxDepth())
	assert.Equal(t, int64(0), stats.Depth())
	assert.GreaterOrEqual(t, stats.Uptime(), time.Duration(0))
}
