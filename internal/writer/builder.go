// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	cfg "github.com/tamzrod/cockpit-bridge/internal/config"
	wmodbus "github.com/tamzrod/cockpit-bridge/internal/writer/modbus"
)

// BuildStatusPlan converts the diagnostics config into a StatusPlan.
// ok is false when diagnostics are disabled.
// Assumes config has already passed validation.
func BuildStatusPlan(b cfg.BridgeConfig) (StatusPlan, bool) {
	d := b.Diagnostics
	if d.Endpoint == "" {
		return StatusPlan{}, false
	}
	return StatusPlan{
		Endpoint:     d.Endpoint,
		UnitID:       d.UnitID,
		BaseRegister: d.BaseRegister,
		DeviceName:   d.DeviceName,
	}, true
}

// BuildStatusWriter dials the diagnostics endpoint and wraps it in a
// StatusWriter. The returned func closes the connection.
func BuildStatusWriter(b cfg.BridgeConfig) (StatusWriter, func() error, error) {
	plan, ok := BuildStatusPlan(b)
	if !ok {
		return nil, nil, errors.New("writer: diagnostics disabled")
	}

	c, err := wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: plan.Endpoint,
		Timeout:  time.Duration(b.Diagnostics.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	sw, err := NewStatusWriter(plan, c)
	if err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return sw, c.Close, nil
}
