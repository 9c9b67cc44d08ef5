package bus

import (
	"errors"
	"fmt"
	"sync"
)

// OpKind identifies a recorded Fake operation.
type OpKind int

const (
	OpBind OpKind = iota
	OpWrite
	OpRead
	OpClose
)

func (k OpKind) String() string {
	switch k {
	case OpBind:
		return "bind"
	case OpWrite:
		return "write"
	case OpRead:
		return "read"
	case OpClose:
		return "close"
	}
	return fmt.Sprintf("op(%d)", int(k))
}

// Op is one transaction observed by a Fake.
type Op struct {
	Kind OpKind
	Addr uint16
	Data []byte // bytes written, or bytes returned by a read
	N    int    // requested read count
}

// ErrNoResponse is returned by a Fake read with nothing scripted.
var ErrNoResponse = errors.New("fake: no scripted read response")

// Fake is an in-memory Transport that records every operation. Reads are
// answered from Responses in order, unless OnRead is set. OnWrite may
// return fewer accepted bytes than given to simulate a short write.
type Fake struct {
	Responses [][]byte
	OnWrite   func(b []byte) (int, error)
	OnRead    func(n int) ([]byte, error)

	mu     sync.Mutex
	addr   uint16
	bound  bool
	closes int
	ops    []Op
}

func (f *Fake) Bind(addr uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, Op{Kind: OpBind, Addr: addr})
	if !validAddress(addr) {
		return fmt.Errorf("bind 0x%02x: %w", addr, ErrInvalidAddress)
	}
	f.addr, f.bound = addr, true
	return nil
}

func (f *Fake) Write(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.usable(); err != nil {
		return err
	}
	f.ops = append(f.ops, Op{Kind: OpWrite, Addr: f.addr, Data: append([]byte(nil), b...)})
	n := len(b)
	if f.OnWrite != nil {
		var err error
		if n, err = f.OnWrite(b); err != nil {
			return err
		}
	}
	if n != len(b) {
		return fmt.Errorf("fake write: wrote %d of %d bytes: %w", n, len(b), ErrShortWrite)
	}
	return nil
}

func (f *Fake) Read(n int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.usable(); err != nil {
		return nil, err
	}
	var (
		b   []byte
		err error
	)
	switch {
	case f.OnRead != nil:
		b, err = f.OnRead(n)
	case len(f.Responses) > 0:
		b, f.Responses = f.Responses[0], f.Responses[1:]
	default:
		err = ErrNoResponse
	}
	f.ops = append(f.ops, Op{Kind: OpRead, Addr: f.addr, Data: append([]byte(nil), b...), N: n})
	if err != nil {
		return nil, err
	}
	if len(b) != n {
		return nil, fmt.Errorf("fake read: got %d of %d bytes: %w", len(b), n, ErrShortRead)
	}
	return b, nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	f.ops = append(f.ops, Op{Kind: OpClose, Addr: f.addr})
	return nil
}

// Ops returns a copy of the recorded operations.
func (f *Fake) Ops() []Op {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Op(nil), f.ops...)
}

// Closes reports how many times Close was called.
func (f *Fake) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func (f *Fake) usable() error {
	if f.closes > 0 {
		return ErrClosed
	}
	if !f.bound {
		return ErrNotBound
	}
	return nil
}
