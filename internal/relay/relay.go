// internal/relay/relay.go
package relay

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"

	"github.com/tamzrod/cockpit-bridge/internal/ring"
	"github.com/tamzrod/cockpit-bridge/internal/trace"
)

// scratchLen bounds one relay copy.
const scratchLen = 256

// Stats is a point-in-time copy of relay counters.
type Stats struct {
	UpstreamToBus uint64 // bytes
	BusToUpstream uint64 // bytes
	Errors        uint64
}

// Bridge pumps bytes verbatim in both directions: upstream ring to the bus
// writer and bus ring to the upstream writer. It never looks at content.
// Used by the bridge loop only.
type Bridge struct {
	upRx  *ring.Buffer
	busTx io.Writer
	busRx *ring.Buffer
	upTx  io.Writer
	rec   trace.Recorder

	scratch [scratchLen]byte

	upToBus atomic.Uint64
	busToUp atomic.Uint64
	errs    atomic.Uint64
}

// New wires both directions. rec may be nil.
func New(upRx *ring.Buffer, busTx io.Writer, busRx *ring.Buffer, upTx io.Writer, rec trace.Recorder) (*Bridge, error) {
	if upRx == nil || busTx == nil || busRx == nil || upTx == nil {
		return nil, errors.New("relay: both directions must be wired")
	}
	if rec == nil {
		rec = trace.Noop{}
	}
	return &Bridge{upRx: upRx, busTx: busTx, busRx: busRx, upTx: upTx, rec: rec}, nil
}

// Step moves everything currently buffered in both directions and returns
// the number of bytes moved. A write error stops that direction for this
// step; bytes already popped for the failed write are lost.
func (b *Bridge) Step() (int, error) {
	up, errUp := b.drain(b.upRx, b.busTx, &b.upToBus)
	if errUp != nil {
		errUp = fmt.Errorf("relay: upstream->bus: %w", errUp)
	}
	down, errDown := b.drain(b.busRx, b.upTx, &b.busToUp)
	if errDown != nil {
		errDown = fmt.Errorf("relay: bus->upstream: %w", errDown)
	}
	return up + down, errors.Join(errUp, errDown)
}

func (b *Bridge) drain(src *ring.Buffer, dst io.Writer, moved *atomic.Uint64) (int, error) {
	total := 0
	for {
		n := src.Pop(b.scratch[:])
		if n == 0 {
			return total, nil
		}
		if _, err := dst.Write(b.scratch[:n]); err != nil {
			b.errs.Add(1)
			log.Printf("relay write failed (bytes=%d): %v", n, err)
			b.rec.Record(trace.Event{Kind: trace.KindRelay, Count: n, Error: err.Error()})
			return total, err
		}
		total += n
		moved.Add(uint64(n))
	}
}

// Stats returns the counters. Safe for concurrent use.
func (b *Bridge) Stats() Stats {
	return Stats{
		UpstreamToBus: b.upToBus.Load(),
		BusToUpstream: b.busToUp.Load(),
		Errors:        b.errs.Load(),
	}
}
