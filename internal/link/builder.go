// internal/link/builder.go
package link

import (
	"time"

	cfg "github.com/tamzrod/cockpit-bridge/internal/config"
)

// UpstreamConfig converts the upstream config block into a link Config.
// Assumes config has already been validated and normalized.
func UpstreamConfig(u cfg.UpstreamConfig) Config {
	return Config{
		Kind:     Kind(u.Kind),
		Endpoint: u.Endpoint,
		BaudRate: u.Baud,
		Timeout:  time.Duration(u.TimeoutMs) * time.Millisecond,
	}
}

// BusConfig converts the bus config block into a link Config.
// The bus is always a serial line.
func BusConfig(b cfg.BusConfig) Config {
	return Config{
		Kind:     KindSerial,
		Endpoint: b.Endpoint,
		BaudRate: b.Baud,
		Timeout:  time.Duration(b.TimeoutMs) * time.Millisecond,
		RS485:    b.RS485,
	}
}
