// internal/bridge/runner.go
package bridge

import (
	"context"
	"time"
)

// Run drives Step until ctx is done. One goroutine per bridge.
// When a step finds nothing to do the loop sleeps until a receive pump
// signals new bytes or the idle interval passes.
func (br *Bridge) Run(ctx context.Context) {
	idle := time.NewTimer(br.idle)
	defer idle.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		if br.Step(ctx) {
			continue
		}

		if !idle.Stop() {
			select {
			case <-idle.C:
			default:
			}
		}
		idle.Reset(br.idle)

		select {
		case <-ctx.Done():
			return
		case <-br.links.UpstreamRx.Ready():
		case <-br.links.BusRx.Ready():
		case <-idle.C:
		}
	}
}
