// internal/bus/port.go
package bus

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tamzrod/cockpit-bridge/internal/ring"
)

// Port is the master side of the bus: frames go out through w, response
// bytes come back through rx, which a receive pump fills.
// Port is used by the bridge loop only.
type Port struct {
	w            io.Writer
	rx           *ring.Buffer
	writeTimeout time.Duration

	parser  ResponseParser
	scratch [32]byte
	frame   []byte
}

// NewPort wires a transport writer and its receive buffer.
func NewPort(w io.Writer, rx *ring.Buffer, writeTimeout time.Duration) *Port {
	return &Port{
		w:            w,
		rx:           rx,
		writeTimeout: writeTimeout,
		frame:        make([]byte, 0, 3+MaxPayload+1),
	}
}

// writeDeadliner is implemented by socket transports.
type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Broadcast sends stream to every panel, split into as many export frames as
// needed. Panels feed frame payloads to their decoder in order, so a split
// may fall anywhere inside a record. It returns how many stream bytes went
// out in frames that were written completely.
func (p *Port) Broadcast(stream []byte) (int, error) {
	sent := 0
	for sent < len(stream) {
		n := len(stream) - sent
		if n > MaxPayload {
			n = MaxPayload
		}
		frame, err := AppendFrame(p.frame[:0], BroadcastAddr, TypeExport, stream[sent:sent+n])
		if err != nil {
			return sent, err
		}
		if err := p.write(frame); err != nil {
			return sent, fmt.Errorf("bus: broadcast: %w", err)
		}
		sent += n
	}
	return sent, nil
}

// Poll asks slave addr for input and waits up to timeout for the answer.
// Stale bytes left from earlier exchanges are discarded first.
// An empty, non-nil result means the slave had nothing to report.
func (p *Port) Poll(ctx context.Context, addr uint8, timeout time.Duration) ([]byte, error) {
	frame, err := AppendPoll(p.frame[:0], addr)
	if err != nil {
		return nil, err
	}

	p.rx.Discard()
	p.parser.Reset()

	if err := p.write(frame); err != nil {
		return nil, fmt.Errorf("bus: poll slave %d: %w", addr, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		for {
			n := p.rx.Pop(p.scratch[:1])
			if n == 0 {
				break
			}
			done, err := p.parser.Feed(p.scratch[0])
			if err != nil {
				return nil, err
			}
			if done {
				return p.parser.Payload(), nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, ErrTimeout
		case <-p.rx.Ready():
		}
	}
}

func (p *Port) write(b []byte) error {
	if d, ok := p.w.(writeDeadliner); ok && p.writeTimeout > 0 {
		_ = d.SetWriteDeadline(time.Now().Add(p.writeTimeout))
	}
	_, err := p.w.Write(b)
	return err
}
