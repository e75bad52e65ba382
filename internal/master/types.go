// internal/master/types.go
package master

import (
	"context"
	"time"
)

// InputEvent is a de-duplicated input change reported by one slave.
// It is handed to the sink by value; the master keeps no reference.
type InputEvent struct {
	Slave   uint8
	Control string
	Value   string
}

// Sink is the external input pipeline.
type Sink interface {
	Deliver(ev InputEvent) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev InputEvent) error

// Deliver calls f(ev).
func (f SinkFunc) Deliver(ev InputEvent) error { return f(ev) }

// Transmitter drains the broadcast queue onto the bus.
type Transmitter interface {
	Pending() int
	Flush(max int) (int, error)
}

// Poller performs one bounded poll exchange with a slave.
// An empty result means the slave had nothing to report.
type Poller interface {
	Poll(ctx context.Context, addr uint8, timeout time.Duration) ([]byte, error)
}

// TickResult says what one scheduling tick did.
type TickResult uint8

const (
	TickIdle TickResult = iota // nothing queued, no slaves configured
	TickBroadcast
	TickBroadcastFailed
	TickPolled
	TickTimeout
	TickMalformed
)

// String returns the result name.
func (r TickResult) String() string {
	switch r {
	case TickIdle:
		return "IDLE"
	case TickBroadcast:
		return "BROADCAST"
	case TickBroadcastFailed:
		return "BROADCAST_FAILED"
	case TickPolled:
		return "POLLED"
	case TickTimeout:
		return "TIMEOUT"
	case TickMalformed:
		return "MALFORMED"
	default:
		return "UNKNOWN"
	}
}

// SlaveStats is a point-in-time copy of one slave's counters.
type SlaveStats struct {
	Addr       uint8
	Online     bool
	Polls      uint64
	Timeouts   uint64
	Malformed  uint64
	Events     uint64 // forwarded input events
	Suppressed uint64 // repeats filtered by last-seen state
}

// Stats is a point-in-time copy of master counters.
type Stats struct {
	Broadcasts       uint64
	BroadcastErrors  uint64
	BroadcastEntries uint64
	SinkErrors       uint64
	StateOverflows   uint64
	Slaves           []SlaveStats
}
