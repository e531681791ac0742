package models

import "math"

// DerivedPoint holds everything the charts and table need from one sample.
type DerivedPoint struct {
	FrequencyHz  float64
	Real         float64
	Imag         float64
	MagnitudeOhm float64
	// MagnitudeDb is -Inf when MagnitudeOhm is 0. Sinks have to cope with it.
	MagnitudeDb float64
	PhaseDeg    float64
	TimeSec     float64
	HumidityPct *float64
}

// Compute derives magnitude, dB, phase and time in seconds from a raw sample. It has no side effects.
func Compute(sample RawSample) DerivedPoint {
	magnitude := math.Hypot(sample.Real, sample.Imag)
	return DerivedPoint{
		FrequencyHz:  sample.FrequencyHz,
		Real:         sample.Real,
		Imag:         sample.Imag,
		MagnitudeOhm: magnitude,
		MagnitudeDb:  20 * math.Log10(magnitude),
		PhaseDeg:     math.Atan2(sample.Imag, sample.Real) * 180 / math.Pi,
		TimeSec:      sample.TimestampMs / 1000,
		HumidityPct:  sample.HumidityPct,
	}
}
