// internal/queue/queue.go
package queue

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// Policy decides what happens when a new slot arrives at a full queue.
type Policy uint8

const (
	// DropNewest rejects the arriving slot. Pending order is never disturbed.
	DropNewest Policy = iota

	// EvictOldest removes the oldest pending slot to make room.
	EvictOldest
)

// String returns the configuration name of the policy.
func (p Policy) String() string {
	switch p {
	case DropNewest:
		return "drop-newest"
	case EvictOldest:
		return "evict-oldest"
	default:
		return "unknown"
	}
}

// ParsePolicy maps a configuration string to a Policy. Empty means DropNewest.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "drop-newest":
		return DropNewest, nil
	case "evict-oldest":
		return EvictOldest, nil
	default:
		return 0, fmt.Errorf("queue: unknown overflow policy %q", s)
	}
}

// Stats is a point-in-time copy of queue counters.
type Stats struct {
	Len       int
	Enqueued  uint64
	Dequeued  uint64
	Coalesced uint64 // enqueue of an already pending slot
	Overflows uint64 // arrivals at a full queue, either policy
	Evicted   uint64 // pending slots removed by EvictOldest
}

// Queue is a bounded FIFO of distinct slot indices.
// A slot is pending at most once; memory is allocated only in New.
type Queue struct {
	mu     sync.Mutex
	policy Policy

	ring   []int
	head   int
	n      int
	queued []bool

	length    atomic.Int64
	enqueued  atomic.Uint64
	dequeued  atomic.Uint64
	coalesced atomic.Uint64
	overflows atomic.Uint64
	evicted   atomic.Uint64
}

// New creates a queue holding at most capacity slots out of slots possible.
func New(capacity, slots int, policy Policy) (*Queue, error) {
	if capacity <= 0 {
		return nil, errors.New("queue: capacity must be > 0")
	}
	if slots <= 0 {
		return nil, errors.New("queue: slot count must be > 0")
	}
	if policy != DropNewest && policy != EvictOldest {
		return nil, errors.New("queue: invalid overflow policy")
	}
	return &Queue{
		policy: policy,
		ring:   make([]int, capacity),
		queued: make([]bool, slots),
	}, nil
}

// Enqueue makes slot pending. Re-enqueuing a pending slot is a no-op.
// It returns false only when DropNewest rejected the slot.
func (q *Queue) Enqueue(slot int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.queued[slot] {
		q.coalesced.Add(1)
		return true
	}

	if q.n == len(q.ring) {
		q.overflows.Add(1)
		if q.policy == DropNewest {
			return false
		}
		old := q.popLocked()
		q.queued[old] = false
		q.evicted.Add(1)
	}

	q.ring[(q.head+q.n)%len(q.ring)] = slot
	q.n++
	q.queued[slot] = true
	q.enqueued.Add(1)
	q.length.Store(int64(q.n))
	return true
}

// Dequeue removes the oldest pending slot.
func (q *Queue) Dequeue() (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.n == 0 {
		return 0, false
	}
	slot := q.popLocked()
	q.queued[slot] = false
	q.dequeued.Add(1)
	q.length.Store(int64(q.n))
	return slot, true
}

func (q *Queue) popLocked() int {
	slot := q.ring[q.head]
	q.head = (q.head + 1) % len(q.ring)
	q.n--
	return slot
}

// Pending reports whether slot is currently queued.
func (q *Queue) Pending(slot int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.queued[slot]
}

// Len is the number of pending slots.
func (q *Queue) Len() int {
	return int(q.length.Load())
}

// Cap is the fixed capacity.
func (q *Queue) Cap() int { return len(q.ring) }

// Full reports whether the next distinct arrival would overflow.
func (q *Queue) Full() bool { return q.Len() == q.Cap() }

// Policy returns the overflow policy.
func (q *Queue) Policy() Policy { return q.policy }

// Stats returns a snapshot of the counters. Safe for concurrent use.
func (q *Queue) Stats() Stats {
	return Stats{
		Len:       q.Len(),
		Enqueued:  q.enqueued.Load(),
		Dequeued:  q.dequeued.Load(),
		Coalesced: q.coalesced.Load(),
		Overflows: q.overflows.Load(),
		Evicted:   q.evicted.Load(),
	}
}
