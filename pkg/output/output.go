package output

import "time"

const (
	// MeasurementName is the series every record is written to.
	MeasurementName = "pressure_sensor"

	FieldRaw        = "raw_int"
	FieldPressureMV = "Pressure_mV"
	TagHost         = "host"
)

// Record is one sample handed to the outputs. It is never modified after
// creation.
type Record struct {
	Raw        int16
	PressureMV float64
	Host       string
	Time       time.Time
}

// Fields returns the typed measurement fields.
func (r Record) Fields() map[string]interface{} {
	return map[string]interface{}{
		FieldRaw:        int64(r.Raw),
		FieldPressureMV: r.PressureMV,
	}
}

// Tags returns the measurement tags.
func (r Record) Tags() map[string]string {
	return map[string]string{TagHost: r.Host}
}

type Output interface {
	Publish(Record) error
	Close() error
}

// helper constructors are in subpackages
