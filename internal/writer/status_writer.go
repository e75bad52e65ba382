// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/cockpit-bridge/internal/status"
)

// diagnosticsWriter mirrors the bridge snapshot into holding registers.
type diagnosticsWriter struct {
	plan StatusPlan
	cli  endpointClient

	needFull bool
	last     []uint16
	nameRegs []uint16
}

// NewStatusWriter builds the diagnostics writer for plan.
func NewStatusWriter(plan StatusPlan, cli endpointClient) (StatusWriter, error) {
	if cli == nil {
		return nil, fmt.Errorf("status writer: missing client for endpoint %s", plan.Endpoint)
	}
	if int(plan.BaseRegister)+status.SlotsPerBlock > 0x10000 {
		return nil, fmt.Errorf("status writer: block at %d exceeds register space", plan.BaseRegister)
	}
	return &diagnosticsWriter{
		plan:     plan,
		cli:      cli,
		needFull: true, // full re-assert on first successful write
		nameRegs: encodeDeviceNameRegs(plan.DeviceName),
	}, nil
}

// WriteStatus delivers a snapshot. The first write (and the first write after
// any failure) re-asserts the whole block; later writes only touch the
// registers that changed, one request per contiguous run.
func (sw *diagnosticsWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil {
		return errors.New("status writer: disabled")
	}

	regs := sw.fullBlockRegs(s)

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, sw.plan.BaseRegister, regs); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}
		sw.needFull = false
		sw.last = regs
		return nil
	}

	var errs []string
	for start := 0; start < len(regs); {
		if regs[start] == sw.last[start] {
			start++
			continue
		}
		end := start + 1
		for end < len(regs) && regs[end] != sw.last[end] {
			end++
		}

		addr := sw.plan.BaseRegister + uint16(start)
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, addr, regs[start:end]); err != nil {
			errs = append(errs, fmt.Sprintf("slots %d-%d write failed: %v", start, end-1, err))
		} else {
			copy(sw.last[start:end], regs[start:end])
		}
		start = end
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt, re-assert on next success.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}
	return nil
}

func (sw *diagnosticsWriter) fullBlockRegs(s status.Snapshot) []uint16 {
	regs := status.Encode(s)

	// Name always lives at the end of the block.
	for i := 0; i < status.SlotDeviceNameSlots; i++ {
		dst := status.SlotDeviceNameStart + i
		if dst < len(regs) && i < len(sw.nameRegs) {
			regs[dst] = sw.nameRegs[i]
		}
	}
	return regs
}

// encodeDeviceNameRegs packs up to 16 ASCII characters into 8 uint16 registers.
// Each register stores two ASCII bytes in big-endian order.
func encodeDeviceNameRegs(name string) []uint16 {
	out := make([]uint16, status.SlotDeviceNameSlots)

	b := []byte(name)
	if len(b) > status.DeviceNameMaxChars {
		b = b[:status.DeviceNameMaxChars]
	}

	// sanitize to printable ASCII
	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < status.DeviceNameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}
