// internal/poller/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

const (
	ModeTCP = "tcp"
	ModeRTU = "rtu"
)

// handler is what both goburrow transports provide.
type handler interface {
	modbus.ClientHandler
	Connect() error
	Close() error
}

// Client implements poller.Client over Modbus TCP or RTU.
// This adapter is geometry-only: it issues reads and unpacks raw responses.
type Client struct {
	mu      sync.Mutex
	handler handler
	client  modbus.Client
}

// Config is minimal transport config.
// Serial fields are used only in RTU mode.
type Config struct {
	Mode     string
	Endpoint string // host:port for TCP, device path for RTU
	UnitID   uint8
	Timeout  time.Duration

	BaudRate int
	DataBits int
	Parity   string
	StopBits int
}

// New creates a connected Modbus client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus client: endpoint required")
	}

	var h handler
	switch cfg.Mode {
	case "", ModeTCP:
		th := modbus.NewTCPClientHandler(cfg.Endpoint)
		th.Timeout = cfg.Timeout
		th.SlaveId = cfg.UnitID
		h = th

	case ModeRTU:
		rh := modbus.NewRTUClientHandler(cfg.Endpoint)
		rh.BaudRate = cfg.BaudRate
		rh.DataBits = cfg.DataBits
		rh.Parity = cfg.Parity
		rh.StopBits = cfg.StopBits
		rh.Timeout = cfg.Timeout
		rh.SlaveId = cfg.UnitID
		h = rh

	default:
		return nil, fmt.Errorf("modbus client: unsupported mode %q", cfg.Mode)
	}

	if err := h.Connect(); err != nil {
		return nil, fmt.Errorf("modbus client: connect %s: %w", cfg.Endpoint, err)
	}

	return &Client{
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.handler == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// ReadHoldingRegisters issues FC 3 and returns exactly qty words.
func (c *Client) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	if qty == 0 {
		return nil, nil
	}

	c.mu.Lock()
	raw, err := c.client.ReadHoldingRegisters(addr, qty)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if len(raw) != 2*int(qty) {
		return nil, fmt.Errorf("modbus: read-registers payload is %d bytes, want %d", len(raw), 2*int(qty))
	}
	return unpackRegisters(raw), nil
}

// ---- helpers (pure geometry) ----

// unpackRegisters converts a big-endian register payload into words.
func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}
