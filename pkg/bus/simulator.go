package bus

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
)

// Simulator emulates an ADS1115 behind a bus so the daemon can run without
// hardware. It honours the register pointer: a 3-byte write to register 1
// stores the config word, a 1-byte write selects the pointer, and a 2-byte
// read returns the selected register big-endian. The conversion register
// follows a slow sine around Base counts with ±Noise counts of jitter.
type Simulator struct {
	Base      float64
	Amplitude float64
	Noise     int

	mu      sync.Mutex
	rnd     *rand.Rand
	bound   bool
	closed  bool
	pointer byte
	config  uint16
	step    int
}

// NewSimulator returns a Simulator producing readings around base counts.
func NewSimulator(base, amplitude float64, noise int, seed int64) *Simulator {
	return &Simulator{Base: base, Amplitude: amplitude, Noise: noise, rnd: rand.New(rand.NewSource(seed)), config: 0x8583}
}

func (s *Simulator) Bind(addr uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !validAddress(addr) {
		return fmt.Errorf("bind 0x%02x: %w", addr, ErrInvalidAddress)
	}
	s.bound = true
	return nil
}

func (s *Simulator) Write(b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	s.pointer = b[0] & 0x03
	if len(b) == 3 && s.pointer == 0x01 {
		// OS is a write-only start bit; reads report "not converting".
		s.config = (uint16(b[1])<<8 | uint16(b[2])) | 0x8000
	}
	return nil
}

func (s *Simulator) Read(n int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(); err != nil {
		return nil, err
	}
	if n != 2 {
		return nil, fmt.Errorf("simulator read %d bytes: %w", n, ErrShortRead)
	}
	var v uint16
	switch s.pointer {
	case 0x00:
		v = uint16(s.conversion())
	case 0x01:
		v = s.config
	}
	return []byte{byte(v >> 8), byte(v)}, nil
}

func (s *Simulator) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *Simulator) conversion() int16 {
	s.step++
	v := s.Base + s.Amplitude*math.Sin(float64(s.step)/60.0*2*math.Pi)
	if s.Noise > 0 {
		if s.rnd == nil {
			s.rnd = rand.New(rand.NewSource(1))
		}
		v += float64(s.rnd.Intn(2*s.Noise+1) - s.Noise)
	}
	v = math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(v)))
	return int16(v)
}

func (s *Simulator) usable() error {
	if s.closed {
		return ErrClosed
	}
	if !s.bound {
		return ErrNotBound
	}
	return nil
}
