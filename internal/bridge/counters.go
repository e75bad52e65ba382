// internal/bridge/counters.go
package bridge

import (
	"time"

	"github.com/tamzrod/cockpit-bridge/internal/status"
)

// Counters reads everything the diagnostics snapshot needs.
// Atomics only: safe to call from the diagnostics goroutine while Run is active.
// staleAfter <= 0 disables the upstream silence check.
func (br *Bridge) Counters(staleAfter time.Duration) status.Counters {
	c := status.Counters{
		Mode:      br.mode,
		RingDrops: br.links.UpstreamRx.Dropped() + br.links.BusRx.Dropped(),
	}
	if staleAfter > 0 {
		last := time.Unix(0, br.lastRx.Load())
		c.UpstreamSilent = time.Since(last) > staleAfter
	}

	if br.relay != nil {
		c.RelayErrors = br.relay.Stats().Errors
		return c
	}

	c.Resyncs = br.dec.Stats().Resyncs
	qs := br.queue.Stats()
	c.Overflows = qs.Overflows
	c.QueueDepth = qs.Len

	ms := br.master.Stats()
	c.Broadcasts = ms.Broadcasts
	c.BroadcastErr = ms.BroadcastErrors
	c.SlavesTotal = len(ms.Slaves)
	for _, s := range ms.Slaves {
		c.Timeouts += s.Timeouts
		c.Malformed += s.Malformed
		c.InputEvents += s.Events
		if s.Online {
			c.SlavesOnline++
		}
	}
	return c
}
