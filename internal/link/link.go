// internal/link/link.go
package link

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/goburrow/serial"
)

// Kind selects the transport behind a link.
type Kind string

const (
	KindSerial Kind = "serial"
	KindTCP    Kind = "tcp"
)

// Config is minimal transport config.
type Config struct {
	Kind     Kind
	Endpoint string // device path for serial, host:port for tcp
	BaudRate int
	Timeout  time.Duration // read timeout (serial) / dial timeout (tcp)
	RS485    bool          // drive RTS around transmissions
}

// Open opens one link. The caller owns the returned port and must Close it.
// One attempt per call: no retries.
func Open(cfg Config) (io.ReadWriteCloser, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("link: endpoint required")
	}

	switch cfg.Kind {
	case KindSerial, "":
		return openSerial(cfg)
	case KindTCP:
		conn, err := net.DialTimeout("tcp", cfg.Endpoint, cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("link: dial %s: %w", cfg.Endpoint, err)
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("link: unknown kind %q", cfg.Kind)
	}
}

func openSerial(cfg Config) (io.ReadWriteCloser, error) {
	sc := &serial.Config{
		Address:  cfg.Endpoint,
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  cfg.Timeout,
	}
	if cfg.RS485 {
		sc.RS485 = serial.RS485Config{
			Enabled:           true,
			RtsHighDuringSend: true,
			RtsHighAfterSend:  false,
		}
	}

	port, err := serial.Open(sc)
	if err != nil {
		return nil, fmt.Errorf("link: open %s: %w", cfg.Endpoint, err)
	}
	return port, nil
}
