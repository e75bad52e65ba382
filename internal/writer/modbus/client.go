// internal/writer/modbus/client.go
package modbus

import (
	"errors"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// EndpointClient is a single Modbus TCP connection to the diagnostics endpoint.
// It serializes requests because it mutates SlaveId per write.
// A failed request drops the connection; the next request redials.
type EndpointClient struct {
	mu        sync.Mutex
	handler   *modbus.TCPClientHandler
	client    modbus.Client
	connected bool
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// NewEndpointClient dials cfg.Endpoint once. A failed first dial is an error.
func NewEndpointClient(cfg Config) (*EndpointClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("writer modbus: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	if cfg.Timeout > 0 {
		h.Timeout = cfg.Timeout
	}

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &EndpointClient{
		handler:   h,
		client:    modbus.NewClient(h),
		connected: true,
	}, nil
}

func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	return c.handler.Close()
}

// WriteRegisters issues FC16 for regs starting at addr.
func (c *EndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		if err := c.handler.Connect(); err != nil {
			return err
		}
		c.connected = true
	}

	c.handler.SlaveId = unitID

	qty := uint16(len(regs))
	payload := PackRegisters(regs)

	if _, err := c.client.WriteMultipleRegisters(addr, qty, payload); err != nil {
		_ = c.handler.Close()
		c.connected = false
		return err
	}
	return nil
}

// PackRegisters converts registers to the big-endian Modbus byte layout.
func PackRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}
