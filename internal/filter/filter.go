// internal/filter/filter.go
package filter

import (
	"errors"
	"sync/atomic"
)

// Filter answers whether an export address is needed on this bus segment.
// The address table is fixed at construction and never changes.
// Each tracked address owns a dense slot index shared with the cache and queue.
type Filter struct {
	slots     map[uint16]int
	addresses []uint16

	dropped atomic.Uint64
}

// New builds the lookup table once. Duplicate addresses collapse to one slot.
func New(addresses []uint16) (*Filter, error) {
	if len(addresses) == 0 {
		return nil, errors.New("filter: at least one output address required")
	}

	f := &Filter{
		slots:     make(map[uint16]int, len(addresses)),
		addresses: make([]uint16, 0, len(addresses)),
	}
	for _, a := range addresses {
		if _, exists := f.slots[a]; exists {
			continue
		}
		f.slots[a] = len(f.addresses)
		f.addresses = append(f.addresses, a)
	}
	return f, nil
}

// Lookup returns the slot for addr. Untracked addresses are counted as dropped.
func (f *Filter) Lookup(addr uint16) (int, bool) {
	slot, ok := f.slots[addr]
	if !ok {
		f.dropped.Add(1)
	}
	return slot, ok
}

// Tracked reports whether addr is in the table. No side effects.
func (f *Filter) Tracked(addr uint16) bool {
	_, ok := f.slots[addr]
	return ok
}

// Len is the number of tracked addresses.
func (f *Filter) Len() int { return len(f.addresses) }

// Address returns the address owning slot.
func (f *Filter) Address(slot int) uint16 { return f.addresses[slot] }

// Dropped is the number of lookups for untracked addresses.
func (f *Filter) Dropped() uint64 { return f.dropped.Load() }
