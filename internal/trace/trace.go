// internal/trace/trace.go
package trace

import (
	"time"
)

// Recorder receives bridge trace events.
// Implementations must be safe for concurrent use and must not block.
type Recorder interface {
	Record(ev Event)
}

// Noop discards all events. Usable as a zero value.
type Noop struct{}

// Record discards the event.
func (Noop) Record(Event) {}

var _ Recorder = Noop{}

// Kind classifies a trace event.
type Kind uint8

const (
	KindWrite     Kind = 0 // tracked export write that changed a value
	KindBroadcast Kind = 1 // updates flushed onto the bus
	KindInput     Kind = 2 // input event forwarded from a slave
	KindPollFail  Kind = 3 // poll timed out or response was malformed
	KindRelay     Kind = 4 // bytes pumped in relay mode
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindWrite:
		return "WRITE"
	case KindBroadcast:
		return "BROADCAST"
	case KindInput:
		return "INPUT"
	case KindPollFail:
		return "POLL_FAIL"
	case KindRelay:
		return "RELAY"
	default:
		return "UNKNOWN"
	}
}

// Event is one trace record. CBOR encoding uses integer keys.
type Event struct {
	Timestamp time.Time `cbor:"1,keyasint"`
	Session   string    `cbor:"2,keyasint"`
	Kind      Kind      `cbor:"3,keyasint"`

	Address uint16 `cbor:"4,keyasint,omitempty"`
	Value   uint16 `cbor:"5,keyasint,omitempty"`
	Count   int    `cbor:"6,keyasint,omitempty"`

	Slave   uint8  `cbor:"7,keyasint,omitempty"`
	Control string `cbor:"8,keyasint,omitempty"`
	Input   string `cbor:"9,keyasint,omitempty"`
	Error   string `cbor:"10,keyasint,omitempty"`
}
