// internal/bridge/bridge.go
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/tamzrod/cockpit-bridge/internal/bus"
	"github.com/tamzrod/cockpit-bridge/internal/cache"
	cfg "github.com/tamzrod/cockpit-bridge/internal/config"
	"github.com/tamzrod/cockpit-bridge/internal/export"
	"github.com/tamzrod/cockpit-bridge/internal/filter"
	"github.com/tamzrod/cockpit-bridge/internal/link"
	"github.com/tamzrod/cockpit-bridge/internal/master"
	"github.com/tamzrod/cockpit-bridge/internal/queue"
	"github.com/tamzrod/cockpit-bridge/internal/relay"
	"github.com/tamzrod/cockpit-bridge/internal/ring"
	"github.com/tamzrod/cockpit-bridge/internal/status"
	"github.com/tamzrod/cockpit-bridge/internal/trace"
	"github.com/tamzrod/cockpit-bridge/internal/writer"
)

// Links are the two transports as the loop sees them: receive rings filled
// by pumps, and plain writers for the transmit side.
type Links struct {
	UpstreamRx *ring.Buffer
	UpstreamTx io.Writer
	BusRx      *ring.Buffer
	BusTx      io.Writer
}

// Bridge is the single cooperative scheduling loop. In filter mode it owns
// the decoder, filter, cache, queue and bus master; in relay mode only the
// byte pump. The mode is fixed at construction.
type Bridge struct {
	mode  uint16
	links Links
	idle  time.Duration
	rec   trace.Recorder

	// filter mode
	dec    *export.Decoder
	filter *filter.Filter
	cache  *cache.Cache
	queue  *queue.Queue
	master *master.Master
	emit   func(export.AddressValueEvent)

	// relay mode
	relay *relay.Bridge

	scratch [128]byte

	// unix nanos of the last upstream byte; read by diagnostics
	lastRx atomic.Int64
}

// Build wires every component for the configured mode.
// Assumes config has already been validated and normalized.
func Build(b cfg.BridgeConfig, l Links, rec trace.Recorder) (*Bridge, error) {
	if l.UpstreamRx == nil || l.UpstreamTx == nil || l.BusRx == nil || l.BusTx == nil {
		return nil, errors.New("bridge: both links must be wired")
	}
	if rec == nil {
		rec = trace.Noop{}
	}

	br := &Bridge{
		links: l,
		idle:  time.Duration(b.Poll.IdleMs) * time.Millisecond,
		rec:   rec,
	}
	if br.idle <= 0 {
		br.idle = time.Millisecond
	}
	br.lastRx.Store(time.Now().UnixNano())

	if b.Mode == cfg.ModeRelay {
		r, err := relay.New(l.UpstreamRx, l.BusTx, l.BusRx, l.UpstreamTx, rec)
		if err != nil {
			return nil, err
		}
		br.mode = status.ModeRelay
		br.relay = r
		return br, nil
	}

	if err := br.buildFilter(b); err != nil {
		return nil, err
	}
	return br, nil
}

func (br *Bridge) buildFilter(b cfg.BridgeConfig) error {
	f, err := filter.New(b.Outputs)
	if err != nil {
		return fmt.Errorf("bridge: %w", err)
	}
	policy, err := queue.ParsePolicy(b.Queue.Overflow)
	if err != nil {
		return err
	}
	q, err := queue.New(b.Queue.Capacity, f.Len(), policy)
	if err != nil {
		return err
	}
	dec, err := export.NewDecoder(b.Decoder.MaxPayload)
	if err != nil {
		return err
	}
	enc, err := export.NewEncoder(b.Decoder.MaxPayload)
	if err != nil {
		return err
	}

	c := cache.New(f, q)
	port := bus.NewPort(br.links.BusTx, br.links.BusRx, time.Duration(b.Bus.TimeoutMs)*time.Millisecond)

	tx, err := writer.NewTransmitter(q, c, enc, port, b.Queue.FlushBatch)
	if err != nil {
		return err
	}
	m, err := master.Build(b, tx, port, link.NewCommandSink(br.links.UpstreamTx), br.rec)
	if err != nil {
		return err
	}

	br.mode = status.ModeFilter
	br.dec = dec
	br.filter = f
	br.cache = c
	br.queue = q
	br.master = m
	br.emit = br.observe
	return nil
}

// Step runs one iteration of the loop and reports whether any work was done.
//
// Filter mode: drain the upstream ring through the decoder into the cache,
// then give the bus master one tick. Relay mode: move buffered bytes.
func (br *Bridge) Step(ctx context.Context) bool {
	if br.relay != nil {
		n, _ := br.relay.Step()
		if n > 0 {
			br.lastRx.Store(time.Now().UnixNano())
		}
		return n > 0
	}

	worked := br.drainUpstream()
	if br.master.Tick(ctx) != master.TickIdle {
		worked = true
	}
	return worked
}

func (br *Bridge) drainUpstream() bool {
	moved := false
	for {
		n := br.links.UpstreamRx.Pop(br.scratch[:])
		if n == 0 {
			break
		}
		moved = true
		br.dec.Feed(br.scratch[:n], br.emit)
	}
	if moved {
		br.lastRx.Store(time.Now().UnixNano())
	}
	return moved
}

func (br *Bridge) observe(ev export.AddressValueEvent) {
	if br.cache.Observe(ev.Address, ev.Value) {
		br.rec.Record(trace.Event{Kind: trace.KindWrite, Address: ev.Address, Value: ev.Value})
	}
}

// Mode is status.ModeFilter or status.ModeRelay.
func (br *Bridge) Mode() uint16 { return br.mode }

// Master is nil in relay mode.
func (br *Bridge) Master() *master.Master { return br.master }
