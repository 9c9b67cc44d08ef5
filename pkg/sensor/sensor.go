package sensor

import "errors"

var (
	// ErrSetup marks bus open or bind failures.
	ErrSetup = errors.New("setup")
	// ErrConfig marks a failed config register write.
	ErrConfig = errors.New("config")
	// ErrSample marks a failed conversion register transaction.
	ErrSample = errors.New("sample")

	ErrNotConfigured = errors.New("driver not configured")
)

// Sensor yields one clamped raw sample per call once configured.
type Sensor interface {
	Configure() error
	ReadSample() (int16, error)
	Config() Config
}
