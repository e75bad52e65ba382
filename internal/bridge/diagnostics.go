// internal/bridge/diagnostics.go
package bridge

import (
	"context"
	"log"
	"time"

	"github.com/tamzrod/cockpit-bridge/internal/status"
	"github.com/tamzrod/cockpit-bridge/internal/writer"
)

// counterSource is what the diagnostics loop reads from the bridge.
type counterSource interface {
	Mode() uint16
	Counters(staleAfter time.Duration) status.Counters
}

// RunDiagnostics owns the status snapshot and mirrors it through sw.
// Counters are sampled every interval; seconds_in_error advances on its own
// 1 Hz ticker. A write is issued only when the snapshot changed.
func RunDiagnostics(ctx context.Context, src counterSource, sw writer.StatusWriter, interval, staleAfter time.Duration) {
	tr := status.NewTracker(src.Mode())

	// Full block write on start (identity re-assert).
	if err := sw.WriteStatus(tr.Snapshot()); err != nil {
		log.Printf("status write failed on start: %v", err)
	}

	sample := time.NewTicker(interval)
	defer sample.Stop()
	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	lastHealth := tr.Snapshot().Health

	for {
		select {
		case <-ctx.Done():
			return

		case <-sample.C:
			snap, changed := tr.Update(src.Counters(staleAfter))
			if snap.Health != lastHealth {
				log.Printf("bridge health changed (health=%d code=%d)", snap.Health, snap.LastErrorCode)
				lastHealth = snap.Health
			}
			if !changed {
				continue
			}
			if err := sw.WriteStatus(snap); err != nil {
				log.Printf("status write failed: %v", err)
			}

		case <-secTicker.C:
			// NOTE: seconds_in_error increments on the 1Hz ticker only.
			snap, changed := tr.Tick()
			if !changed {
				continue
			}
			if err := sw.WriteStatus(snap); err != nil {
				log.Printf("status seconds tick write failed: %v", err)
			}
		}
	}
}
