// Package projection turns buffered points into what the chart and table sinks consume.
// Nothing in here mutates its input.
package projection

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"eisview/models"
)

// Point is one (x, y) pair. It marshals as a two element array to keep SSE payloads small.
type Point struct {
	X float64
	Y float64
}

func (p Point) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("[%v,%v]", p.X, p.Y)), nil
}

// Finite reports whether both coordinates are real numbers. JSON can't carry Inf or NaN.
func (p Point) Finite() bool {
	return !math.IsInf(p.X, 0) && !math.IsNaN(p.X) && !math.IsInf(p.Y, 0) && !math.IsNaN(p.Y)
}

// SortByFrequency returns a copy of points sorted ascending by frequency, stable on ties.
func SortByFrequency(points []models.DerivedPoint) []models.DerivedPoint {
	sorted := slices.Clone(points)
	slices.SortStableFunc(sorted, func(a, b models.DerivedPoint) int {
		return cmp.Compare(a.FrequencyHz, b.FrequencyHz)
	})
	return sorted
}

// BodeMagnitude projects (frequency, |Z| dB), frequency ascending.
func BodeMagnitude(points []models.DerivedPoint) []Point {
	return project(SortByFrequency(points), func(p models.DerivedPoint) (Point, bool) {
		return Point{p.FrequencyHz, p.MagnitudeDb}, true
	})
}

// BodePhase projects (frequency, phase°), frequency ascending.
func BodePhase(points []models.DerivedPoint) []Point {
	return project(SortByFrequency(points), func(p models.DerivedPoint) (Point, bool) {
		return Point{p.FrequencyHz, p.PhaseDeg}, true
	})
}

// Nyquist projects (real, -imag), frequency ascending. The imaginary axis is always flipped.
func Nyquist(points []models.DerivedPoint) []Point {
	return project(SortByFrequency(points), func(p models.DerivedPoint) (Point, bool) {
		return Point{p.Real, -p.Imag}, true
	})
}

// Humidity projects (time s, humidity %) in the order given. Points without humidity are skipped.
func Humidity(points []models.DerivedPoint) []Point {
	return project(points, func(p models.DerivedPoint) (Point, bool) {
		if p.HumidityPct == nil {
			return Point{}, false
		}
		return Point{p.TimeSec, *p.HumidityPct}, true
	})
}

// Drawable drops points the chart sink can't draw (Inf/NaN, e.g. the dB of a zero magnitude).
func Drawable(points []Point) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Finite() {
			out = append(out, p)
		}
	}
	return out
}

func project(points []models.DerivedPoint, fn func(models.DerivedPoint) (Point, bool)) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if projected, ok := fn(p); ok {
			out = append(out, projected)
		}
	}
	return out
}
