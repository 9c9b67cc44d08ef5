package sensor

import (
	"fmt"

	"github.com/ericogr/ads1115-pressure/pkg/bus"
)

const (
	pointerConv   = 0x00
	pointerConfig = 0x01

	// DefaultAddress is the ADS1115 address with ADDR tied to GND.
	DefaultAddress = 0x48
)

// Mux selects the input pair measured by the converter.
type Mux byte

const (
	MuxAIN0AIN1 Mux = 0x0
	MuxAIN0AIN3 Mux = 0x1
	MuxAIN1AIN3 Mux = 0x2
	MuxAIN2AIN3 Mux = 0x3
	MuxAIN0     Mux = 0x4
	MuxAIN1     Mux = 0x5
	MuxAIN2     Mux = 0x6
	MuxAIN3     Mux = 0x7
)

// Mode is the conversion mode bit.
type Mode byte

const (
	ModeContinuous Mode = 0x0
	ModeSingleShot Mode = 0x1
)

// DataRate is the 3-bit output data rate code.
type DataRate byte

const (
	DataRate8   DataRate = 0x0
	DataRate16  DataRate = 0x1
	DataRate32  DataRate = 0x2
	DataRate64  DataRate = 0x3
	DataRate128 DataRate = 0x4
	DataRate250 DataRate = 0x5
	DataRate475 DataRate = 0x6
	DataRate860 DataRate = 0x7
)

// SPS returns the samples per second for the code.
func (d DataRate) SPS() int {
	return [...]int{8, 16, 32, 64, 128, 250, 475, 860}[d&0x7]
}

// Config holds the fields of the ADS1115 config register.
type Config struct {
	Mux      Mux
	Gain     Gain
	Mode     Mode
	DataRate DataRate
	// ComparatorLatch sets COMP_LAT.
	ComparatorLatch bool
	// ComparatorQueue is COMP_QUE; 0x3 disables the comparator.
	ComparatorQueue byte
}

// PressureConfig is the fixed configuration for the differential pressure
// sensor on AIN2-AIN3: ±1.024 V, continuous conversion, 8 SPS, comparator
// disabled. It encodes to {0x01, 0xB6, 0x07}.
func PressureConfig() Config {
	return Config{
		Mux:             MuxAIN2AIN3,
		Gain:            Gain1024,
		Mode:            ModeContinuous,
		DataRate:        DataRate8,
		ComparatorLatch: true,
		ComparatorQueue: 0x3,
	}
}

// Frame is the 3-byte write that loads the config register.
type Frame [3]byte

// Word returns the 16-bit config register value.
func (c Config) Word() uint16 {
	var config uint16 = 0x8000 // OS bit, set as the device expects
	config |= uint16(c.Mux&0x7) << 12
	config |= uint16(c.Gain&0x7) << 9
	config |= uint16(c.Mode&0x1) << 8
	config |= uint16(c.DataRate&0x7) << 5
	if c.ComparatorLatch {
		config |= 1 << 2
	}
	config |= uint16(c.ComparatorQueue & 0x3)
	return config
}

// Encode returns the frame selecting the config register followed by the
// config word, most significant byte first.
func (c Config) Encode() Frame {
	w := c.Word()
	return Frame{pointerConfig, byte(w >> 8), byte(w & 0xFF)}
}

// Millivolts converts raw with the full scale of c's gain.
func (c Config) Millivolts(raw int16) float64 {
	return ToMillivolts(raw, c.Gain.FullScale())
}

type state int

const (
	unconfigured state = iota
	sampling
)

// ADS1115 drives a converter in continuous mode over a bus.Transport.
// The transport must already be bound to the chip's address.
type ADS1115 struct {
	tr    bus.Transport
	cfg   Config
	state state
}

func NewADS1115(tr bus.Transport, cfg Config) *ADS1115 {
	return &ADS1115{tr: tr, cfg: cfg}
}

// Config returns the configuration the driver writes.
func (d *ADS1115) Config() Config { return d.cfg }

// Configured reports whether the config frame has been written.
func (d *ADS1115) Configured() bool { return d.state == sampling }

// Configure writes the config frame. It is written once; later calls are
// no-ops. On failure the driver stays unconfigured.
func (d *ADS1115) Configure() error {
	if d.state == sampling {
		return nil
	}
	f := d.cfg.Encode()
	if err := d.tr.Write(f[:]); err != nil {
		return fmt.Errorf("%w: write config: %w", ErrConfig, err)
	}
	d.state = sampling
	return nil
}

// ReadSample selects the conversion register and reads the latest result.
// Negative conversions are reported as zero.
func (d *ADS1115) ReadSample() (int16, error) {
	if d.state != sampling {
		return 0, fmt.Errorf("%w: %w", ErrSample, ErrNotConfigured)
	}
	if err := d.tr.Write([]byte{pointerConv}); err != nil {
		return 0, fmt.Errorf("%w: select conversion: %w", ErrSample, err)
	}
	readBuf, err := d.tr.Read(2)
	if err != nil {
		return 0, fmt.Errorf("%w: read conversion: %w", ErrSample, err)
	}
	if len(readBuf) != 2 {
		return 0, fmt.Errorf("%w: read conversion: got %d bytes: %w", ErrSample, len(readBuf), bus.ErrShortRead)
	}
	raw := int16(readBuf[0])<<8 | int16(readBuf[1])
	// ±1 LSB noise around zero shows up as small negative codes.
	if raw < 0 {
		raw = 0
	}
	return raw, nil
}

// Setup binds tr to addr and returns a driver for it. Bind failures are
// reported as ErrSetup.
func Setup(tr bus.Transport, addr uint16, cfg Config) (*ADS1115, error) {
	if err := tr.Bind(addr); err != nil {
		return nil, fmt.Errorf("%w: bind 0x%02x: %w", ErrSetup, addr, err)
	}
	return NewADS1115(tr, cfg), nil
}
