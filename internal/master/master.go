// internal/master/master.go
package master

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/tamzrod/cockpit-bridge/internal/bus"
	"github.com/tamzrod/cockpit-bridge/internal/trace"
)

// Config is the minimal runtime config the master needs.
type Config struct {
	Slaves      []uint8
	PollTimeout time.Duration
	FlushBatch  int
	MaxControls int
}

type slaveState struct {
	addr   uint8
	online atomic.Bool

	polls      atomic.Uint64
	timeouts   atomic.Uint64
	malformed  atomic.Uint64
	events     atomic.Uint64
	suppressed atomic.Uint64
}

// Master time-shares the bus: queued broadcast first, otherwise one poll of
// the next slave in round-robin order. It never blocks longer than one
// poll timeout per tick.
type Master struct {
	cfg    Config
	tx     Transmitter
	poller Poller
	sink   Sink
	rec    trace.Recorder

	slaves   []*slaveState
	next     int
	pollNext bool
	state    *InputState

	// slave whose response is being delivered; lineFn is bound once in New
	cur    *slaveState
	lineFn func(control, value []byte)

	broadcasts       atomic.Uint64
	broadcastErrors  atomic.Uint64
	broadcastEntries atomic.Uint64
	sinkErrors       atomic.Uint64
	stateOverflows   atomic.Uint64
}

// New creates a master with immutable config.
func New(cfg Config, tx Transmitter, poller Poller, sink Sink, rec trace.Recorder) (*Master, error) {
	if tx == nil {
		return nil, errors.New("master: transmitter required")
	}
	if len(cfg.Slaves) > 0 && poller == nil {
		return nil, errors.New("master: poller required when slaves are configured")
	}
	if len(cfg.Slaves) > 0 && cfg.PollTimeout <= 0 {
		return nil, errors.New("master: poll timeout must be > 0")
	}
	if cfg.FlushBatch <= 0 {
		return nil, errors.New("master: flush batch must be > 0")
	}
	if cfg.MaxControls <= 0 {
		return nil, errors.New("master: max controls must be > 0")
	}
	if sink == nil {
		sink = SinkFunc(func(InputEvent) error { return nil })
	}
	if rec == nil {
		rec = trace.Noop{}
	}

	seen := make(map[uint8]bool, len(cfg.Slaves))
	slaves := make([]*slaveState, 0, len(cfg.Slaves))
	for _, a := range cfg.Slaves {
		if !bus.ValidSlave(a) {
			return nil, fmt.Errorf("master: slave address %d outside 1..126", a)
		}
		if seen[a] {
			return nil, fmt.Errorf("master: duplicate slave address %d", a)
		}
		seen[a] = true
		s := &slaveState{addr: a}
		s.online.Store(true)
		slaves = append(slaves, s)
	}

	m := &Master{
		cfg:    cfg,
		tx:     tx,
		poller: poller,
		sink:   sink,
		rec:    rec,
		slaves: slaves,
		state:  NewInputState(cfg.Slaves, cfg.MaxControls),
	}
	m.lineFn = m.deliverLine
	return m, nil
}

// Tick performs exactly one unit of bus work.
// A failed broadcast yields the following tick to polling so a dead bus
// writer cannot starve input.
func (m *Master) Tick(ctx context.Context) TickResult {
	if m.tx.Pending() > 0 && !m.pollNext {
		return m.broadcast()
	}
	m.pollNext = false

	if len(m.slaves) == 0 {
		return TickIdle
	}
	s := m.slaves[m.next]
	m.next = (m.next + 1) % len(m.slaves)
	return m.poll(ctx, s)
}

// PollCycle polls every configured slave exactly once, in round-robin
// order from the current position, ignoring the broadcast queue.
func (m *Master) PollCycle(ctx context.Context) []TickResult {
	out := make([]TickResult, 0, len(m.slaves))
	for range m.slaves {
		s := m.slaves[m.next]
		m.next = (m.next + 1) % len(m.slaves)
		out = append(out, m.poll(ctx, s))
	}
	return out
}

func (m *Master) broadcast() TickResult {
	n, err := m.tx.Flush(m.cfg.FlushBatch)
	if err != nil {
		m.broadcastErrors.Add(1)
		m.pollNext = true
		log.Printf("broadcast failed (entries=%d): %v", n, err)
		return TickBroadcastFailed
	}
	m.broadcasts.Add(1)
	m.broadcastEntries.Add(uint64(n))
	m.rec.Record(trace.Event{Kind: trace.KindBroadcast, Count: n})
	return TickBroadcast
}

func (m *Master) poll(ctx context.Context, s *slaveState) TickResult {
	s.polls.Add(1)

	payload, err := m.poller.Poll(ctx, s.addr, m.cfg.PollTimeout)
	if err != nil {
		return m.pollFailed(s, err)
	}

	// validate the whole response before any of it is delivered
	if err := walkLines(payload, nil); err != nil {
		return m.pollFailed(s, err)
	}

	if !s.online.Load() {
		s.online.Store(true)
		m.state.Forget(s.addr)
		log.Printf("slave responding again (slave=%d)", s.addr)
	}

	m.cur = s
	_ = walkLines(payload, m.lineFn)
	m.cur = nil
	return TickPolled
}

// deliverLine forwards one input line of m.cur. Repeats are suppressed
// without allocating. The state is committed only after the sink accepted
// the event, so a failed delivery is retried on the next identical report.
func (m *Master) deliverLine(control, value []byte) {
	s := m.cur
	changed, overflow := m.state.Changed(s.addr, control, value)
	if !changed {
		s.suppressed.Add(1)
		return
	}
	if overflow {
		m.stateOverflows.Add(1)
	}

	ev := InputEvent{Slave: s.addr, Control: string(control), Value: string(value)}
	if err := m.sink.Deliver(ev); err != nil {
		m.sinkErrors.Add(1)
		log.Printf("input delivery failed (slave=%d control=%s): %v", s.addr, ev.Control, err)
		return
	}
	m.state.Commit(s.addr, ev.Control, ev.Value)
	s.events.Add(1)
	m.rec.Record(trace.Event{Kind: trace.KindInput, Slave: s.addr, Control: ev.Control, Input: ev.Value})
}

func (m *Master) pollFailed(s *slaveState, err error) TickResult {
	res := TickMalformed
	if errors.Is(err, bus.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		res = TickTimeout
		s.timeouts.Add(1)
	} else {
		s.malformed.Add(1)
	}

	if s.online.Load() {
		s.online.Store(false)
		log.Printf("slave not responding (slave=%d): %v", s.addr, err)
	}
	m.rec.Record(trace.Event{Kind: trace.KindPollFail, Slave: s.addr, Error: err.Error()})
	return res
}

// Stats returns a snapshot of the counters. Safe for concurrent use.
func (m *Master) Stats() Stats {
	st := Stats{
		Broadcasts:       m.broadcasts.Load(),
		BroadcastErrors:  m.broadcastErrors.Load(),
		BroadcastEntries: m.broadcastEntries.Load(),
		SinkErrors:       m.sinkErrors.Load(),
		StateOverflows:   m.stateOverflows.Load(),
		Slaves:           make([]SlaveStats, len(m.slaves)),
	}
	for i, s := range m.slaves {
		st.Slaves[i] = SlaveStats{
			Addr:       s.addr,
			Online:     s.online.Load(),
			Polls:      s.polls.Load(),
			Timeouts:   s.timeouts.Load(),
			Malformed:  s.malformed.Load(),
			Events:     s.events.Load(),
			Suppressed: s.suppressed.Load(),
		}
	}
	return st
}
