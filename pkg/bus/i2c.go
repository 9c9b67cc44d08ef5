package bus

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var (
	hostOnce sync.Once
	hostErr  error

	heldMu sync.Mutex
	held   = map[string]bool{}
)

// I2C is a Transport backed by a periph.io bus.
type I2C struct {
	name string
	bus  i2c.BusCloser
	dev  *i2c.Dev

	mu     sync.Mutex
	closed bool
}

// Open initializes the periph host drivers and opens the named bus, e.g.
// "1" for /dev/i2c-1.
func Open(name string) (*I2C, error) {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	if hostErr != nil {
		return nil, fmt.Errorf("host init: %w", hostErr)
	}
	if err := claim(name); err != nil {
		return nil, err
	}
	b, err := i2creg.Open(name)
	if err != nil {
		release(name)
		return nil, fmt.Errorf("open i2c %q: %w", name, err)
	}
	return &I2C{name: name, bus: b}, nil
}

// NewI2C wraps an already opened bus. The handle takes ownership of b and
// claims name exclusively until Close.
func NewI2C(name string, b i2c.BusCloser) (*I2C, error) {
	if err := claim(name); err != nil {
		return nil, err
	}
	return &I2C{name: name, bus: b}, nil
}

func claim(name string) error {
	heldMu.Lock()
	defer heldMu.Unlock()
	if held[name] {
		return fmt.Errorf("open i2c %q: %w", name, ErrBusy)
	}
	held[name] = true
	return nil
}

func release(name string) {
	heldMu.Lock()
	delete(held, name)
	heldMu.Unlock()
}

func (h *I2C) String() string {
	if h.dev != nil {
		return fmt.Sprintf("%s@0x%02x", h.bus, h.dev.Addr)
	}
	return h.bus.String()
}

func (h *I2C) Bind(addr uint16) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if !validAddress(addr) {
		return fmt.Errorf("bind 0x%02x: %w", addr, ErrInvalidAddress)
	}
	h.dev = &i2c.Dev{Addr: addr, Bus: h.bus}
	return nil
}

func (h *I2C) Write(b []byte) error {
	dev, err := h.device()
	if err != nil {
		return err
	}
	n, err := dev.Write(b)
	if err != nil {
		return fmt.Errorf("i2c write 0x%02x: %w", dev.Addr, err)
	}
	if n != len(b) {
		return fmt.Errorf("i2c write 0x%02x: wrote %d of %d bytes: %w", dev.Addr, n, len(b), ErrShortWrite)
	}
	return nil
}

func (h *I2C) Read(n int) ([]byte, error) {
	dev, err := h.device()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if err := dev.Tx(nil, buf); err != nil {
		return nil, fmt.Errorf("i2c read 0x%02x: %w", dev.Addr, err)
	}
	return buf, nil
}

func (h *I2C) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.dev = nil
	release(h.name)
	return h.bus.Close()
}

func (h *I2C) device() (*i2c.Dev, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	if h.dev == nil {
		return nil, ErrNotBound
	}
	return h.dev, nil
}
