// internal/export/decoder.go
package export

import (
	"errors"
	"sync/atomic"
)

// decoderState is the position inside one record.
type decoderState uint8

const (
	stateAwaitingSync decoderState = iota
	stateAddressLow
	stateAddressHigh
	stateCount
	statePayload
)

// String returns the state name.
func (s decoderState) String() string {
	switch s {
	case stateAwaitingSync:
		return "AWAITING_SYNC"
	case stateAddressLow:
		return "ADDRESS_LOW"
	case stateAddressHigh:
		return "ADDRESS_HIGH"
	case stateCount:
		return "COUNT"
	case statePayload:
		return "PAYLOAD"
	default:
		return "UNKNOWN"
	}
}

// DecoderStats is a point-in-time copy of decoder counters.
type DecoderStats struct {
	Records uint64 // complete records
	Words   uint64 // emitted address/value writes
	Resyncs uint64 // protocol violations that forced a rescan
}

// Decoder turns an export byte stream into address/value writes.
// It keeps its state across Feed calls, so chunks may split a record anywhere.
// Decoder is owned by one goroutine; only Stats may be read concurrently.
type Decoder struct {
	maxPayload int

	state     decoderState
	syncSeen  int
	address   uint16
	remaining int
	lowByte   byte
	haveLow   bool

	records atomic.Uint64
	words   atomic.Uint64
	resyncs atomic.Uint64
}

// NewDecoder creates a decoder that rejects payloads larger than maxPayload bytes.
func NewDecoder(maxPayload int) (*Decoder, error) {
	if maxPayload == 0 {
		maxPayload = DefaultMaxPayload
	}
	if maxPayload < 2 || maxPayload > HardMaxPayload {
		return nil, errors.New("export: max payload must be within 2..254")
	}
	if maxPayload%2 != 0 {
		return nil, errors.New("export: max payload must be even")
	}
	return &Decoder{maxPayload: maxPayload}, nil
}

// Reset drops any partial record and waits for the next sync marker.
func (d *Decoder) Reset() {
	d.state = stateAwaitingSync
	d.syncSeen = 0
	d.remaining = 0
	d.haveLow = false
}

// Feed consumes chunk and calls emit once per decoded word.
// Feed never blocks and never fails: malformed input only bumps the resync counter.
func (d *Decoder) Feed(chunk []byte, emit func(AddressValueEvent)) {
	for _, b := range chunk {
		d.step(b, emit)
	}
}

// FeedByte is Feed for a single byte.
func (d *Decoder) FeedByte(b byte, emit func(AddressValueEvent)) {
	d.step(b, emit)
}

func (d *Decoder) step(b byte, emit func(AddressValueEvent)) {
	switch d.state {
	case stateAwaitingSync:
		if b != SyncByte {
			d.syncSeen = 0
			return
		}
		d.syncSeen++
		if d.syncSeen == SyncLen {
			d.syncSeen = 0
			d.state = stateAddressLow
		}

	case stateAddressLow:
		// Addresses are word aligned, so an odd low byte is either a longer
		// sync run or garbage.
		if b == SyncByte {
			return
		}
		if b&1 != 0 {
			d.violation(b, emit)
			return
		}
		d.address = uint16(b)
		d.state = stateAddressHigh

	case stateAddressHigh:
		d.address |= uint16(b) << 8
		d.state = stateCount

	case stateCount:
		n := int(b)
		if n == 0 || n%2 != 0 || n > d.maxPayload {
			d.violation(b, emit)
			return
		}
		d.remaining = n
		d.haveLow = false
		d.state = statePayload

	case statePayload:
		d.remaining--
		if !d.haveLow {
			d.lowByte = b
			d.haveLow = true
		} else {
			d.haveLow = false
			if emit != nil {
				emit(AddressValueEvent{Address: d.address, Value: uint16(d.lowByte) | uint16(b)<<8})
			}
			d.words.Add(1)
			d.address += WordStride
		}
		if d.remaining == 0 {
			d.records.Add(1)
			d.state = stateAwaitingSync
		}
	}
}

// violation resets the machine and rescans the offending byte, which may
// already be the first byte of the next marker.
func (d *Decoder) violation(b byte, emit func(AddressValueEvent)) {
	d.resyncs.Add(1)
	d.Reset()
	d.step(b, emit)
}

// Stats returns a snapshot of the decoder counters. Safe for concurrent use.
func (d *Decoder) Stats() DecoderStats {
	return DecoderStats{
		Records: d.records.Load(),
		Words:   d.words.Load(),
		Resyncs: d.resyncs.Load(),
	}
}
