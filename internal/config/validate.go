// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/tamzrod/cockpit-bridge/internal/bus"
	"github.com/tamzrod/cockpit-bridge/internal/export"
	"github.com/tamzrod/cockpit-bridge/internal/queue"
	"github.com/tamzrod/cockpit-bridge/internal/status"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero values are accepted wherever Normalize supplies a default.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}
	b := cfg.Bridge

	// ------------------------------------------------------------
	// MODE + LINKS
	// ------------------------------------------------------------

	switch b.Mode {
	case "", ModeFilter, ModeRelay:
	default:
		return fmt.Errorf("bridge: unknown mode %q (want filter or relay)", b.Mode)
	}

	switch b.Upstream.Kind {
	case "", "serial", "tcp":
	default:
		return fmt.Errorf("upstream: unknown kind %q (want serial or tcp)", b.Upstream.Kind)
	}
	if b.Upstream.Endpoint == "" {
		return fmt.Errorf("upstream: endpoint required")
	}
	if b.Bus.Endpoint == "" {
		return fmt.Errorf("bus: endpoint required")
	}
	if b.Upstream.Baud < 0 || b.Bus.Baud < 0 {
		return fmt.Errorf("baud rate must be >= 0")
	}
	if b.Upstream.TimeoutMs < 0 || b.Bus.TimeoutMs < 0 {
		return fmt.Errorf("link timeout_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// OUTPUTS + SLAVES (filter mode only)
	// ------------------------------------------------------------

	if b.Mode != ModeRelay {
		if len(b.Outputs) == 0 {
			return fmt.Errorf("bridge: filter mode requires at least one output address")
		}
		seen := make(map[uint16]bool, len(b.Outputs))
		for _, a := range b.Outputs {
			if a%export.WordStride != 0 {
				return fmt.Errorf("outputs: address 0x%04X is not word aligned", a)
			}
			if seen[a] {
				return fmt.Errorf("outputs: duplicate address 0x%04X", a)
			}
			seen[a] = true
		}
	}

	slaves := make(map[uint8]bool, len(b.Slaves))
	for _, s := range b.Slaves {
		if !bus.ValidSlave(s) {
			return fmt.Errorf("slaves: address %d outside %d..%d", s, bus.MinSlaveAddr, bus.MaxSlaveAddr)
		}
		if slaves[s] {
			return fmt.Errorf("slaves: duplicate address %d", s)
		}
		slaves[s] = true
	}

	// ------------------------------------------------------------
	// PIPELINE SIZING
	// ------------------------------------------------------------

	if b.Queue.Capacity < 0 || b.Queue.FlushBatch < 0 {
		return fmt.Errorf("queue: capacity and flush_batch must be >= 0")
	}
	if _, err := queue.ParsePolicy(b.Queue.Overflow); err != nil {
		return err
	}

	if mp := b.Decoder.MaxPayload; mp != 0 {
		if mp < 2 || mp > export.HardMaxPayload || mp%2 != 0 {
			return fmt.Errorf("decoder: max_payload %d must be even and within 2..%d", mp, export.HardMaxPayload)
		}
	}

	if b.Poll.TimeoutMs < 0 || b.Poll.IdleMs < 0 || b.Poll.MaxControls < 0 {
		return fmt.Errorf("poll: values must be >= 0")
	}

	for name, n := range map[string]int{"upstream": b.Ring.Upstream, "bus": b.Ring.Bus} {
		if n != 0 && (n < 2 || n&(n-1) != 0) {
			return fmt.Errorf("ring: %s size %d must be a power of two >= 2", name, n)
		}
	}

	// ------------------------------------------------------------
	// DIAGNOSTICS BLOCK (OPT-IN)
	// ------------------------------------------------------------

	d := b.Diagnostics
	for i := 0; i < len(d.DeviceName); i++ {
		if d.DeviceName[i] > 0x7F {
			return fmt.Errorf("diagnostics: device_name must contain ASCII characters only")
		}
	}
	if d.Endpoint != "" {
		if int(d.BaseRegister)+status.SlotsPerBlock > 0x10000 {
			return fmt.Errorf("diagnostics: base_register %d leaves no room for %d registers", d.BaseRegister, status.SlotsPerBlock)
		}
		if d.IntervalMs < 0 || d.TimeoutMs < 0 || d.StaleMs < 0 {
			return fmt.Errorf("diagnostics: durations must be >= 0")
		}
	}

	if b.Logs.MaxSizeMB < 0 || b.Logs.MaxAgeDays < 0 || b.Logs.MaxBackups < 0 {
		return fmt.Errorf("logs: values must be >= 0")
	}

	return nil
}
