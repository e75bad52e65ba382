// internal/cache/cache.go
package cache

import (
	"sync/atomic"

	"github.com/tamzrod/cockpit-bridge/internal/export"
	"github.com/tamzrod/cockpit-bridge/internal/filter"
)

// Enqueuer is the exact queue contract the cache signals into.
type Enqueuer interface {
	Enqueue(slot int) bool
	Pending(slot int) bool
	Full() bool
}

// Entry is the last known state of one tracked address.
// Valid is false until the first write is observed.
type Entry struct {
	Address uint16
	Value   uint16
	Valid   bool
	Dirty   bool
}

// Stats is a point-in-time copy of cache counters.
type Stats struct {
	Changes    uint64 // writes that changed a value
	Suppressed uint64 // writes repeating the stored value
	Untracked  uint64 // writes dropped by the filter
}

// Cache holds exactly one entry per tracked address, created once in New.
// Entries are never added or removed afterwards.
type Cache struct {
	filter  *filter.Filter
	entries []Entry
	q       Enqueuer

	changes    atomic.Uint64
	suppressed atomic.Uint64
}

// New creates one entry per filter slot.
func New(f *filter.Filter, q Enqueuer) *Cache {
	c := &Cache{
		filter:  f,
		entries: make([]Entry, f.Len()),
		q:       q,
	}
	for slot := range c.entries {
		c.entries[slot].Address = f.Address(slot)
	}
	return c
}

// Observe records a write. Untracked addresses are dropped without touching
// any entry. It reports whether the write changed the stored value.
func (c *Cache) Observe(addr, value uint16) bool {
	slot, ok := c.filter.Lookup(addr)
	if !ok {
		return false
	}
	return c.ObserveSlot(slot, value)
}

// ObserveSlot is Observe for an already resolved slot.
func (c *Cache) ObserveSlot(slot int, value uint16) bool {
	e := &c.entries[slot]
	if e.Valid && e.Value == value {
		c.suppressed.Add(1)
		return false
	}

	e.Value = value
	e.Valid = true
	e.Dirty = true
	c.changes.Add(1)
	c.q.Enqueue(slot)
	return true
}

// Take reads the current value of slot for transmission and clears dirty.
// ok is false when the slot has nothing new to send.
func (c *Cache) Take(slot int) (export.AddressValueEvent, bool) {
	e := &c.entries[slot]
	if !e.Dirty {
		return export.AddressValueEvent{}, false
	}
	e.Dirty = false
	return export.AddressValueEvent{Address: e.Address, Value: e.Value}, true
}

// Requeue marks slot dirty again after a failed transmission.
func (c *Cache) Requeue(slot int) {
	e := &c.entries[slot]
	if !e.Valid {
		return
	}
	e.Dirty = true
	c.q.Enqueue(slot)
}

// Sweep re-enqueues dirty entries that are not pending, which happens after
// an overflow rejected or evicted them. It only fills free queue space and
// never evicts. It returns how many were accepted.
func (c *Cache) Sweep() int {
	n := 0
	for slot := range c.entries {
		if c.q.Full() {
			break
		}
		if !c.entries[slot].Dirty || c.q.Pending(slot) {
			continue
		}
		c.q.Enqueue(slot)
		n++
	}
	return n
}

// Entry returns a copy of the entry for slot.
func (c *Cache) Entry(slot int) Entry { return c.entries[slot] }

// Len is the number of entries.
func (c *Cache) Len() int { return len(c.entries) }

// Stats returns a snapshot of the counters. Safe for concurrent use.
func (c *Cache) Stats() Stats {
	return Stats{
		Changes:    c.changes.Load(),
		Suppressed: c.suppressed.Load(),
		Untracked:  c.filter.Dropped(),
	}
}
