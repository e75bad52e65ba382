// internal/master/builder.go
package master

import (
	"time"

	cfg "github.com/tamzrod/cockpit-bridge/internal/config"
	"github.com/tamzrod/cockpit-bridge/internal/trace"
)

// Build constructs a Master from the bridge config.
// Assumes config has already been validated and normalized.
// No retries, no loops: the bridge loop drives Tick.
func Build(b cfg.BridgeConfig, tx Transmitter, poller Poller, sink Sink, rec trace.Recorder) (*Master, error) {
	return New(
		Config{
			Slaves:      append([]uint8(nil), b.Slaves...),
			PollTimeout: time.Duration(b.Poll.TimeoutMs) * time.Millisecond,
			FlushBatch:  b.Queue.FlushBatch,
			MaxControls: b.Poll.MaxControls,
		},
		tx,
		poller,
		sink,
		rec,
	)
}
