// internal/status/tracker.go
package status

// Tracker owns the diagnostics snapshot between writes.
// Update folds in fresh counters; Tick advances seconds_in_error at 1 Hz.
// Not safe for concurrent use: one orchestrator goroutine owns it.
type Tracker struct {
	snap Snapshot

	lastBroadcastErr uint64
	lastRelayErrors  uint64
}

// NewTracker starts in HealthUnknown with zeroed counters.
func NewTracker(mode uint16) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Health: HealthUnknown,
			Mode:   mode,
		},
	}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot { return t.snap }

// Update derives health from c and reports whether anything changed.
// Recovery to OK clears the error code and seconds_in_error.
func (t *Tracker) Update(c Counters) (Snapshot, bool) {
	next := t.snap
	next.Mode = c.Mode
	next.Resyncs = Clamp(c.Resyncs)
	next.Overflows = Clamp(c.Overflows)
	next.QueueDepth = Clamp(uint64(max(c.QueueDepth, 0)))
	next.Timeouts = Clamp(c.Timeouts)
	next.Malformed = Clamp(c.Malformed)
	next.RingDrops = Clamp(c.RingDrops)
	next.SlavesOnline = Clamp(uint64(max(c.SlavesOnline, 0)))
	next.SlavesTotal = Clamp(uint64(max(c.SlavesTotal, 0)))
	next.Broadcasts = Clamp(c.Broadcasts)
	next.InputEvents = Clamp(c.InputEvents)
	next.RelayErrors = Clamp(c.RelayErrors)

	health, code := t.classify(c)
	t.lastBroadcastErr = c.BroadcastErr
	t.lastRelayErrors = c.RelayErrors

	next.Health = health
	if health == HealthOK {
		next.LastErrorCode = ErrCodeNone
		next.SecondsInError = 0
	} else {
		next.LastErrorCode = code
	}

	changed := next != t.snap
	t.snap = next
	return next, changed
}

// Tick advances seconds_in_error while not OK. It saturates, never wraps.
func (t *Tracker) Tick() (Snapshot, bool) {
	if t.snap.Health == HealthOK || t.snap.SecondsInError >= MaxCounter {
		return t.snap, false
	}
	t.snap.SecondsInError++
	return t.snap, true
}

func (t *Tracker) classify(c Counters) (uint16, uint16) {
	if c.Mode == ModeRelay {
		if c.RelayErrors > t.lastRelayErrors {
			return HealthError, ErrCodeRelayFailed
		}
		return HealthOK, ErrCodeNone
	}
	if c.UpstreamSilent {
		return HealthStale, ErrCodeUpstreamSilent
	}
	if c.SlavesOnline < c.SlavesTotal {
		return HealthError, ErrCodeSlaveOffline
	}
	if c.BroadcastErr > t.lastBroadcastErr {
		return HealthError, ErrCodeBroadcastFailed
	}
	return HealthOK, ErrCodeNone
}
