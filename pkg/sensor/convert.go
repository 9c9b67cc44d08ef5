package sensor

// Gain is the 3-bit PGA code of the config register.
type Gain byte

const (
	Gain6144 Gain = 0x0 // ±6.144 V
	Gain4096 Gain = 0x1 // ±4.096 V
	Gain2048 Gain = 0x2 // ±2.048 V
	Gain1024 Gain = 0x3 // ±1.024 V
	Gain512  Gain = 0x4 // ±0.512 V
	Gain256  Gain = 0x5 // ±0.256 V, also codes 6 and 7
)

// Steps is the number of positive codes of a signed 16-bit result.
const Steps = 32768.0

// FullScale returns the input voltage matching the largest output code.
func (g Gain) FullScale() float64 {
	switch g & 0x7 {
	case Gain6144:
		return 6.144
	case Gain4096:
		return 4.096
	case Gain2048:
		return 2.048
	case Gain1024:
		return 1.024
	case Gain512:
		return 0.512
	default:
		return 0.256
	}
}

// VoltsPerStep is the quantization step for the gain.
func (g Gain) VoltsPerStep() float64 {
	return g.FullScale() / Steps
}

// ToMillivolts converts a raw code to millivolts.
func ToMillivolts(raw int16, fullScaleVolts float64) float64 {
	return float64(raw) * (fullScaleVolts / Steps) * 1000.0
}
