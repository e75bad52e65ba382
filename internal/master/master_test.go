// internal/master/master_test.go
package master

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tamzrod/cockpit-bridge/internal/bus"
)

// ---- fakes ----

type fakeTx struct {
	pending int
	flushes int
	fail    bool
}

func (f *fakeTx) Pending() int { return f.pending }

func (f *fakeTx) Flush(max int) (int, error) {
	f.flushes++
	if f.fail {
		return 0, errors.New("bus write failed")
	}
	n := f.pending
	if n > max {
		n = max
	}
	f.pending -= n
	return n, nil
}

type fakePoller struct {
	responses map[uint8]string
	dead      map[uint8]bool
	garbled   map[uint8]bool
	polled    []uint8
}

func (f *fakePoller) Poll(ctx context.Context, addr uint8, timeout time.Duration) ([]byte, error) {
	f.polled = append(f.polled, addr)
	if f.dead[addr] {
		return nil, bus.ErrTimeout
	}
	if f.garbled[addr] {
		return nil, bus.ErrMalformed
	}
	return []byte(f.responses[addr]), nil
}

type recordingSink struct {
	events []InputEvent
}

func (r *recordingSink) Deliver(ev InputEvent) error {
	r.events = append(r.events, ev)
	return nil
}

func newMaster(t *testing.T, slaves []uint8, tx *fakeTx, p *fakePoller, sink Sink) *Master {
	t.Helper()
	m, err := New(Config{
		Slaves:      slaves,
		PollTimeout: 5 * time.Millisecond,
		FlushBatch:  8,
		MaxControls: 4,
	}, tx, p, sink, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return m
}

func newFakePoller() *fakePoller {
	return &fakePoller{
		responses: map[uint8]string{},
		dead:      map[uint8]bool{},
		garbled:   map[uint8]bool{},
	}
}

// ---- tests ----

func TestNew_RejectsReservedAddresses(t *testing.T) {
	for _, a := range []uint8{0, 127, 200} {
		_, err := New(Config{Slaves: []uint8{a}, PollTimeout: time.Millisecond, FlushBatch: 1, MaxControls: 1},
			&fakeTx{}, newFakePoller(), nil, nil)
		if err == nil {
			t.Fatalf("expected error for slave address %d", a)
		}
	}
}

func TestNew_RejectsDuplicateSlaves(t *testing.T) {
	_, err := New(Config{Slaves: []uint8{3, 3}, PollTimeout: time.Millisecond, FlushBatch: 1, MaxControls: 1},
		&fakeTx{}, newFakePoller(), nil, nil)
	if err == nil {
		t.Fatalf("expected duplicate address error, got nil")
	}
}

func TestTick_BroadcastHasPriority(t *testing.T) {
	tx := &fakeTx{pending: 10}
	p := newFakePoller()
	m := newMaster(t, []uint8{1, 2}, tx, p, nil)

	if r := m.Tick(context.Background()); r != TickBroadcast {
		t.Fatalf("first tick = %v, want BROADCAST", r)
	}
	if r := m.Tick(context.Background()); r != TickBroadcast {
		t.Fatalf("second tick = %v, want BROADCAST", r)
	}
	if len(p.polled) != 0 {
		t.Fatalf("no poll expected while queue is non-empty, got %v", p.polled)
	}
	if r := m.Tick(context.Background()); r != TickPolled {
		t.Fatalf("third tick = %v, want POLLED", r)
	}
	if got := m.Stats().BroadcastEntries; got != 10 {
		t.Fatalf("broadcast entries = %d, want 10", got)
	}
}

func TestTick_PollFairnessWithDeadSlave(t *testing.T) {
	tx := &fakeTx{}
	p := newFakePoller()
	p.dead[2] = true
	m := newMaster(t, []uint8{1, 2, 3, 4}, tx, p, nil)

	for i := 0; i < 4; i++ {
		m.Tick(context.Background())
	}

	want := []uint8{1, 2, 3, 4}
	if len(p.polled) != len(want) {
		t.Fatalf("polled %v, want %v", p.polled, want)
	}
	for i := range want {
		if p.polled[i] != want[i] {
			t.Fatalf("polled %v, want %v", p.polled, want)
		}
	}

	st := m.Stats()
	for _, s := range st.Slaves {
		if s.Polls != 1 {
			t.Fatalf("slave %d polled %d times, want 1", s.Addr, s.Polls)
		}
		if s.Addr == 2 && (s.Timeouts != 1 || s.Online) {
			t.Fatalf("slave 2 should be offline with 1 timeout, got %+v", s)
		}
	}
}

func TestTick_MalformedSkipsSlave(t *testing.T) {
	p := newFakePoller()
	p.garbled[1] = true
	p.responses[2] = "FLAPS 2\n"
	sink := &recordingSink{}
	m := newMaster(t, []uint8{1, 2}, &fakeTx{}, p, sink)

	if r := m.Tick(context.Background()); r != TickMalformed {
		t.Fatalf("tick = %v, want MALFORMED", r)
	}
	if r := m.Tick(context.Background()); r != TickPolled {
		t.Fatalf("tick = %v, want POLLED", r)
	}
	if len(sink.events) != 1 || sink.events[0].Slave != 2 {
		t.Fatalf("unexpected events %+v", sink.events)
	}
}

func TestTick_BadInputLinesDiscardWholeResponse(t *testing.T) {
	p := newFakePoller()
	p.responses[1] = "GEAR 1\nNOSPACE\n"
	sink := &recordingSink{}
	m := newMaster(t, []uint8{1}, &fakeTx{}, p, sink)

	if r := m.Tick(context.Background()); r != TickMalformed {
		t.Fatalf("tick = %v, want MALFORMED", r)
	}
	if len(sink.events) != 0 {
		t.Fatalf("expected no events, got %+v", sink.events)
	}
}

func TestTick_SuppressesRepeatedInput(t *testing.T) {
	p := newFakePoller()
	p.responses[1] = "MASTER_ARM 1\nGEAR 0\n"
	sink := &recordingSink{}
	m := newMaster(t, []uint8{1}, &fakeTx{}, p, sink)

	m.Tick(context.Background())
	m.Tick(context.Background())
	if len(sink.events) != 2 {
		t.Fatalf("expected 2 events after repeat, got %d", len(sink.events))
	}

	p.responses[1] = "MASTER_ARM 0\nGEAR 0\n"
	m.Tick(context.Background())
	if len(sink.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(sink.events))
	}
	last := sink.events[2]
	if last.Control != "MASTER_ARM" || last.Value != "0" {
		t.Fatalf("unexpected last event %+v", last)
	}
	if got := m.Stats().Slaves[0].Suppressed; got != 3 {
		t.Fatalf("suppressed = %d, want 3", got)
	}
}

func TestTick_RecoveredSlaveReportsAgain(t *testing.T) {
	p := newFakePoller()
	p.responses[1] = "GEAR 1\n"
	sink := &recordingSink{}
	m := newMaster(t, []uint8{1}, &fakeTx{}, p, sink)

	m.Tick(context.Background())
	p.dead[1] = true
	m.Tick(context.Background())
	p.dead[1] = false
	m.Tick(context.Background())

	if len(sink.events) != 2 {
		t.Fatalf("expected state to be re-sent after recovery, got %+v", sink.events)
	}
}

func TestTick_FailedBroadcastYieldsToPoll(t *testing.T) {
	tx := &fakeTx{pending: 3, fail: true}
	p := newFakePoller()
	m := newMaster(t, []uint8{1}, tx, p, nil)

	if r := m.Tick(context.Background()); r != TickBroadcastFailed {
		t.Fatalf("tick = %v, want BROADCAST_FAILED", r)
	}
	if r := m.Tick(context.Background()); r != TickPolled {
		t.Fatalf("tick = %v, want POLLED", r)
	}
	if r := m.Tick(context.Background()); r != TickBroadcastFailed {
		t.Fatalf("tick = %v, want BROADCAST_FAILED", r)
	}
}

func TestTick_IdleWithoutSlaves(t *testing.T) {
	m, err := New(Config{FlushBatch: 1, MaxControls: 1}, &fakeTx{}, nil, nil, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	if r := m.Tick(context.Background()); r != TickIdle {
		t.Fatalf("tick = %v, want IDLE", r)
	}
}

func TestPollCycle_EachSlaveOnce(t *testing.T) {
	p := newFakePoller()
	p.dead[5] = true
	m := newMaster(t, []uint8{5, 6, 7}, &fakeTx{pending: 100}, p, nil)

	res := m.PollCycle(context.Background())
	if len(res) != 3 || res[0] != TickTimeout || res[1] != TickPolled || res[2] != TickPolled {
		t.Fatalf("unexpected cycle results %v", res)
	}
}

func TestInputState_Overflow(t *testing.T) {
	s := NewInputState([]uint8{1}, 1)
	b := func(v string) []byte { return []byte(v) }

	if changed, overflow := s.Changed(1, b("A"), b("1")); !changed || overflow {
		t.Fatalf("first control should fit")
	}
	s.Commit(1, "A", "1")

	if changed, overflow := s.Changed(1, b("B"), b("1")); !changed || !overflow {
		t.Fatalf("second control should overflow and still be forwarded")
	}
	s.Commit(1, "B", "1")
	if changed, _ := s.Changed(1, b("B"), b("1")); !changed {
		t.Fatalf("unremembered control must keep forwarding")
	}
	if changed, _ := s.Changed(1, b("A"), b("1")); changed {
		t.Fatalf("remembered repeat must be suppressed")
	}
}

func TestInputState_ChangedDoesNotStore(t *testing.T) {
	s := NewInputState([]uint8{1}, 4)
	s.Changed(1, []byte("GEAR"), []byte("1"))
	if changed, _ := s.Changed(1, []byte("GEAR"), []byte("1")); !changed {
		t.Fatalf("nothing was committed, report must still count as a change")
	}
}

func TestTick_FailedDeliveryIsRetried(t *testing.T) {
	p := newFakePoller()
	p.responses[1] = "GEAR 1\n"

	var got []InputEvent
	calls := 0
	sink := SinkFunc(func(ev InputEvent) error {
		calls++
		if calls == 1 {
			return errors.New("upstream write failed")
		}
		got = append(got, ev)
		return nil
	})
	m := newMaster(t, []uint8{1}, &fakeTx{}, p, sink)

	for i := 0; i < 4; i++ {
		m.Tick(context.Background())
	}

	if len(got) != 1 || got[0].Control != "GEAR" || got[0].Value != "1" {
		t.Fatalf("expected GEAR=1 delivered once after the failure, got %+v", got)
	}
	st := m.Stats()
	if st.SinkErrors != 1 {
		t.Fatalf("sink errors = %d, want 1", st.SinkErrors)
	}
	if st.Slaves[0].Suppressed != 2 {
		t.Fatalf("suppressed = %d, want 2", st.Slaves[0].Suppressed)
	}
}

// fixedPoller answers every poll with the same buffer.
type fixedPoller struct{ payload []byte }

func (f fixedPoller) Poll(context.Context, uint8, time.Duration) ([]byte, error) {
	return f.payload, nil
}

func TestTick_RepeatedReportsDoNotAllocate(t *testing.T) {
	if raceEnabled {
		t.Skip("allocation counts are not stable under the race detector")
	}
	m, err := New(Config{Slaves: []uint8{1}, PollTimeout: time.Millisecond, FlushBatch: 1, MaxControls: 4},
		&fakeTx{}, fixedPoller{payload: []byte("MASTER_ARM 1\nGEAR 0\n")}, nil, nil)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	m.Tick(context.Background()) // first report stores both controls

	allocs := testing.AllocsPerRun(100, func() {
		m.Tick(context.Background())
	})
	if allocs != 0 {
		t.Fatalf("repeat poll allocated %.1f times, want 0", allocs)
	}
}

func TestWalkLines(t *testing.T) {
	var got []string
	err := walkLines([]byte("A 1\r\n\nB TOGGLE\n"), func(c, v []byte) {
		got = append(got, string(c)+"="+string(v))
	})
	if err != nil {
		t.Fatalf("walkLines err=%v", err)
	}
	if len(got) != 2 || got[0] != "A=1" || got[1] != "B=TOGGLE" {
		t.Fatalf("unexpected lines %v", got)
	}

	for _, bad := range []string{"A 1", " 1\n", "A \n", "A\n"} {
		if err := walkLines([]byte(bad), nil); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
