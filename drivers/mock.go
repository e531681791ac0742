package drivers

import (
	"context"
	"encoding/json"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"

	"eisview/config"
	"eisview/utils"
)

// Randles cell the mock device pretends to measure.
const (
	mockSolutionOhm = 100.0
	mockChargeOhm   = 1000.0
	mockDoubleLayer = 1e-6
	mockNoise       = 0.005
)

type mockPayload struct {
	Timestamp int64    `json:"timestamp"`
	Freq      float64  `json:"freq"`
	Real      float64  `json:"real"`
	Imag      float64  `json:"imag"`
	Humidity  *float64 `json:"humidity,omitempty"`
}

// Mock sweeps the configured frequencies over a synthetic cell, one sample per interval.
type Mock struct {
	*config.MockConfig
	ingester Ingester
	rng      *rand.Rand
	start    time.Time
	index    int
	humidity float64
}

func NewMock(mockConfig *config.MockConfig, ingester Ingester) *Mock {
	return &Mock{
		MockConfig: mockConfig,
		ingester:   ingester,
		rng:        rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		humidity:   45,
	}
}

func (m *Mock) Name() string {
	return "mock device"
}

func (m *Mock) Init() error {
	m.start = time.Now()
	m.index = 0
	return nil
}

func (m *Mock) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if err := m.ingester.Ingest(m.next(now)); err != nil {
				log.Printf("mock sample rejected: %s", err)
			}
		}
	}
}

// next builds the payload for the next frequency in the sweep.
func (m *Mock) next(now time.Time) []byte {
	freq := m.Frequencies[m.index%len(m.Frequencies)]
	m.index++

	re, im := randles(freq)
	payload := mockPayload{
		Timestamp: now.Sub(m.start).Milliseconds(),
		Freq:      freq,
		Real:      utils.RoundToXDp(re*(1+m.noise()), 2),
		Imag:      utils.RoundToXDp(im*(1+m.noise()), 2),
	}
	if m.Humidity {
		m.humidity = math.Min(100, math.Max(0, m.humidity+m.rng.NormFloat64()*0.2))
		humidity := utils.RoundToXDp(m.humidity, 1)
		payload.Humidity = &humidity
	}

	data, _ := json.Marshal(payload)
	return data
}

func (m *Mock) noise() float64 {
	return (m.rng.Float64()*2 - 1) * mockNoise
}

// randles returns the impedance of Rs + (Rct || Cdl) at freq.
func randles(freq float64) (re, im float64) {
	x := 2 * math.Pi * freq * mockChargeOhm * mockDoubleLayer
	d := 1 + x*x
	return mockSolutionOhm + mockChargeOhm/d, -mockChargeOhm * x / d
}
