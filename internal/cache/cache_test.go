// internal/cache/cache_test.go
package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/cockpit-bridge/internal/export"
	"github.com/tamzrod/cockpit-bridge/internal/filter"
	"github.com/tamzrod/cockpit-bridge/internal/queue"
)

func newCache(t *testing.T, capacity int, policy queue.Policy, addrs ...uint16) (*Cache, *queue.Queue, *filter.Filter) {
	t.Helper()
	f, err := filter.New(addrs)
	require.NoError(t, err)
	q, err := queue.New(capacity, f.Len(), policy)
	require.NoError(t, err)
	return New(f, q), q, f
}

func drainValues(c *Cache, q *queue.Queue) []export.AddressValueEvent {
	var out []export.AddressValueEvent
	for {
		slot, ok := q.Dequeue()
		if !ok {
			return out
		}
		if ev, ok := c.Take(slot); ok {
			out = append(out, ev)
		}
	}
}

func TestObserve_RepeatDoesNotMarkDirty(t *testing.T) {
	c, q, f := newCache(t, 4, queue.DropNewest, 0x1000)

	assert.True(t, c.Observe(0x1000, 5))
	slot, _ := f.Lookup(0x1000)
	assert.True(t, c.Entry(slot).Dirty)

	_, _ = c.Take(slot)
	_, _ = q.Dequeue()

	assert.False(t, c.Observe(0x1000, 5))
	assert.False(t, c.Entry(slot).Dirty)
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, uint64(1), c.Stats().Suppressed)
}

func TestObserve_FirstWriteOfZeroIsAChange(t *testing.T) {
	c, q, _ := newCache(t, 4, queue.DropNewest, 0x1000)

	assert.True(t, c.Observe(0x1000, 0))
	assert.Equal(t, 1, q.Len())
}

func TestObserve_CoalescesToLatest(t *testing.T) {
	c, q, _ := newCache(t, 4, queue.DropNewest, 0x1000)

	for v := uint16(1); v <= 10; v++ {
		c.Observe(0x1000, v)
	}

	assert.Equal(t, 1, q.Len())
	assert.Equal(t, []export.AddressValueEvent{{Address: 0x1000, Value: 10}}, drainValues(c, q))
}

func TestObserve_UntrackedNeverMutates(t *testing.T) {
	c, q, _ := newCache(t, 4, queue.DropNewest, 0x1000)

	assert.False(t, c.Observe(0x2000, 1))
	assert.Equal(t, 0, q.Len())
	assert.False(t, c.Entry(0).Valid)
	assert.Equal(t, uint64(1), c.Stats().Untracked)
}

func TestObserve_ExampleScenario(t *testing.T) {
	c, q, _ := newCache(t, 4, queue.DropNewest, 0x1000, 0x1002)

	c.Observe(0x1000, 5)
	c.Observe(0x1002, 9)
	c.Observe(0x1000, 5)
	c.Observe(0x1000, 7)

	assert.ElementsMatch(t, []export.AddressValueEvent{
		{Address: 0x1002, Value: 9},
		{Address: 0x1000, Value: 7},
	}, drainValues(c, q))
}

func TestSweep_RecoversAfterDropNewest(t *testing.T) {
	c, q, _ := newCache(t, 1, queue.DropNewest, 0x1000, 0x1002)

	c.Observe(0x1000, 1)
	c.Observe(0x1002, 2) // rejected, stays dirty
	require.Equal(t, 1, q.Len())

	first := drainValues(c, q)
	assert.Equal(t, []export.AddressValueEvent{{Address: 0x1000, Value: 1}}, first)

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, []export.AddressValueEvent{{Address: 0x1002, Value: 2}}, drainValues(c, q))
	assert.Equal(t, 0, c.Sweep())
}

func TestSweep_RecoversAfterEvictOldest(t *testing.T) {
	c, q, _ := newCache(t, 1, queue.EvictOldest, 0x1000, 0x1002)

	c.Observe(0x1000, 1)
	c.Observe(0x1002, 2) // evicts 0x1000

	assert.Equal(t, []export.AddressValueEvent{{Address: 0x1002, Value: 2}}, drainValues(c, q))
	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, []export.AddressValueEvent{{Address: 0x1000, Value: 1}}, drainValues(c, q))
}

func TestSweep_DoesNotEvict(t *testing.T) {
	c, q, _ := newCache(t, 1, queue.EvictOldest, 0x1000, 0x1002)

	c.Observe(0x1000, 1)
	c.Observe(0x1002, 2)
	assert.Equal(t, 0, c.Sweep())
	assert.Equal(t, uint64(1), q.Stats().Evicted)
}

func TestRequeue_AfterFailedTransmit(t *testing.T) {
	c, q, _ := newCache(t, 4, queue.DropNewest, 0x1000)

	c.Observe(0x1000, 3)
	slot, _ := q.Dequeue()
	ev, ok := c.Take(slot)
	require.True(t, ok)
	assert.Equal(t, uint16(3), ev.Value)

	c.Requeue(slot)
	assert.Equal(t, []export.AddressValueEvent{{Address: 0x1000, Value: 3}}, drainValues(c, q))
}

func TestRequeue_IgnoresNeverWritten(t *testing.T) {
	c, q, _ := newCache(t, 4, queue.DropNewest, 0x1000)
	c.Requeue(0)
	assert.Equal(t, 0, q.Len())
}
