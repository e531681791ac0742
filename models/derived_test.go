package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const tolerance = 1e-9

func TestCompute(t *testing.T) {
	p := Compute(RawSample{TimestampMs: 1000, FrequencyHz: 100, Real: 3, Imag: 4})

	assert.InDelta(t, 5.0, p.MagnitudeOhm, tolerance)
	assert.InDelta(t, 20*math.Log10(5), p.MagnitudeDb, tolerance)
	assert.InDelta(t, 13.979, p.MagnitudeDb, 1e-3)
	assert.InDelta(t, 53.130, p.PhaseDeg, 1e-3)
	assert.InDelta(t, 1.0, p.TimeSec, tolerance)
	assert.Equal(t, 100.0, p.FrequencyHz)
}

func TestComputeMatchesDefinitions(t *testing.T) {
	for _, s := range []RawSample{
		{Real: 110, Imag: 30},
		{Real: -2, Imag: 7.5},
		{Real: 1e6, Imag: -3e5},
		{Real: 0, Imag: -1},
	} {
		p := Compute(s)
		assert.InDelta(t, math.Sqrt(s.Real*s.Real+s.Imag*s.Imag), p.MagnitudeOhm, 1e-6)
		assert.InDelta(t, math.Atan2(s.Imag, s.Real)*180/math.Pi, p.PhaseDeg, tolerance)
	}
}

func TestComputeZeroMagnitude(t *testing.T) {
	p := Compute(RawSample{Real: 0, Imag: 0})

	assert.Equal(t, 0.0, p.MagnitudeOhm)
	assert.True(t, math.IsInf(p.MagnitudeDb, -1))
	assert.Equal(t, 0.0, p.PhaseDeg)
}

func TestComputeDeterministic(t *testing.T) {
	h := 41.5
	s := RawSample{TimestampMs: 2500, FrequencyHz: 3000, Real: 115, Imag: 35, HumidityPct: &h}
	assert.Equal(t, Compute(s), Compute(s))
}
