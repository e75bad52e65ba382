// internal/writer/transmitter.go
package writer

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/tamzrod/cockpit-bridge/internal/cache"
	"github.com/tamzrod/cockpit-bridge/internal/export"
	"github.com/tamzrod/cockpit-bridge/internal/queue"
)

// Broadcaster is the exact bus contract the transmitter uses.
// Broadcast returns how many stream bytes were written before any error.
type Broadcaster interface {
	Broadcast(stream []byte) (int, error)
}

// Transmitter drains the broadcast queue, encodes the pending updates and
// writes them to the bus. Values are read from the cache at drain time.
// All buffers are sized once in NewTransmitter.
type Transmitter struct {
	q     *queue.Queue
	c     *cache.Cache
	enc   *export.Encoder
	out   Broadcaster
	batch int

	slots   []int
	updates []export.AddressValueEvent
	wire    []byte
}

// NewTransmitter creates a transmitter flushing at most batch entries per call.
func NewTransmitter(q *queue.Queue, c *cache.Cache, enc *export.Encoder, out Broadcaster, batch int) (*Transmitter, error) {
	if q == nil || c == nil || enc == nil || out == nil {
		return nil, errors.New("writer: queue, cache, encoder and bus are required")
	}
	if batch <= 0 {
		return nil, errors.New("writer: batch must be > 0")
	}
	return &Transmitter{
		q:       q,
		c:       c,
		enc:     enc,
		out:     out,
		batch:   batch,
		slots:   make([]int, 0, batch),
		updates: make([]export.AddressValueEvent, 0, batch),
		wire:    make([]byte, 0, export.MaxEncodedLen(batch)),
	}, nil
}

// Pending is the number of queued addresses.
func (t *Transmitter) Pending() int { return t.q.Len() }

// Flush sends up to max queued updates in one bus write and returns how
// many were taken. On a write failure only the updates that did not go out
// are marked dirty and queued again, and the error is returned. Flush does
// not retry.
func (t *Transmitter) Flush(max int) (int, error) {
	if max <= 0 || max > t.batch {
		max = t.batch
	}

	t.slots = t.slots[:0]
	for len(t.slots) < max {
		slot, ok := t.q.Dequeue()
		if !ok {
			break
		}
		t.slots = append(t.slots, slot)
	}

	// wire order is address order; keep slots aligned with it
	slices.SortFunc(t.slots, func(a, b int) int {
		return cmp.Compare(t.c.Entry(a).Address, t.c.Entry(b).Address)
	})

	t.updates = t.updates[:0]
	taken := t.slots[:0]
	for _, slot := range t.slots {
		ev, ok := t.c.Take(slot)
		if !ok {
			continue
		}
		taken = append(taken, slot)
		t.updates = append(t.updates, ev)
	}
	t.slots = taken
	if len(t.updates) == 0 {
		return 0, nil
	}

	t.wire = t.enc.Encode(t.wire[:0], t.updates)
	sent, err := t.out.Broadcast(t.wire)
	if err != nil {
		done := export.WordsSent(t.wire, sent)
		for _, slot := range t.slots[done:] {
			t.c.Requeue(slot)
		}
		return len(t.slots), fmt.Errorf("writer: broadcast %d of %d updates: %w", done, len(t.slots), err)
	}

	// room was freed; pick up entries an overflow left behind
	t.c.Sweep()
	return len(t.slots), nil
}
