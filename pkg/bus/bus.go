// Package bus provides exclusive, addressed access to a two-wire (I²C) bus.
//
// A Transport is bound to one 7-bit device address at a time and performs
// whole transactions only: a write either transmits every byte or fails, a
// read either returns exactly the requested count or fails. No retries are
// attempted here; retry policy belongs to the caller.
package bus

import "errors"

// MaxAddress is the highest 7-bit device address.
const MaxAddress = 0x7F

var (
	ErrBusy           = errors.New("bus already held")
	ErrNotBound       = errors.New("no device address bound")
	ErrInvalidAddress = errors.New("invalid 7-bit device address")
	ErrShortWrite     = errors.New("short write")
	ErrShortRead      = errors.New("short read")
	ErrClosed         = errors.New("bus closed")
)

// Transport is an open bus handle addressing a single device.
type Transport interface {
	// Bind addresses all subsequent transactions to addr.
	Bind(addr uint16) error
	// Write transmits exactly len(b) bytes.
	Write(b []byte) error
	// Read returns exactly n bytes.
	Read(n int) ([]byte, error)
	// Close releases the handle. It is safe to call more than once.
	Close() error
}

func validAddress(addr uint16) bool {
	return addr <= MaxAddress
}
