package handlers

import (
	"bytes"
	"math"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"eisview/models"
	"eisview/projection"
	"eisview/store"
)

const (
	snapshotWidth  = 960
	snapshotHeight = 540
)

// SnapshotHandler renders the current state of one dashboard chart as a PNG.
func (d *Dashboard) SnapshotHandler(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSuffix(r.PathValue("chart"), ".png")
	c, ok := store.DashboardCharts[key]
	if !ok {
		http.NotFound(w, r)
		return
	}

	graph, ok := snapshotGraph(c, chartData(d.session.View())[key])
	if !ok {
		// nothing collected yet
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		log.Printf("couldn't render %s snapshot: %s", key, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

// snapshotGraph builds the go-chart equivalent of a dashboard chart. It reports false if no series has points.
func snapshotGraph(c *models.Chart, data map[string][]projection.Point) (chart.Chart, bool) {
	logX := c.X().Logarithmic

	var (
		series    []chart.Series
		primary   []float64
		secondary []float64
		hasRight  bool
	)
	for _, s := range c.Series() {
		var xs, ys []float64
		for _, p := range data[s.Key()] {
			x := p.X
			if logX {
				// a log axis has no place for 0 Hz or below
				if x <= 0 {
					continue
				}
				// go-chart has no log axis, plot decades and label them back in Hz
				x = math.Log10(x)
			}
			xs = append(xs, x)
			ys = append(ys, p.Y)
		}
		if len(xs) == 0 {
			continue
		}
		if len(xs) == 1 {
			xs = []float64{xs[0], xs[0] + 1}
			ys = []float64{ys[0], ys[0]}
		}

		colour := drawing.ColorFromHex(strings.TrimPrefix(s.Colour(), "#"))
		continuous := chart.ContinuousSeries{
			Name:    s.Label(),
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: colour,
				StrokeWidth: 2,
				DotColor:    colour,
				DotWidth:    3,
			},
		}
		if isRightAxis(c, s.AxisID()) {
			continuous.YAxis = chart.YAxisSecondary
			secondary = append(secondary, ys...)
			hasRight = true
		} else {
			primary = append(primary, ys...)
		}
		series = append(series, continuous)
	}
	if len(series) == 0 {
		return chart.Chart{}, false
	}

	graph := chart.Chart{
		Title:      c.Title(),
		Width:      snapshotWidth,
		Height:     snapshotHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: c.X().Title},
		Series:     series,
	}
	if logX {
		graph.XAxis.ValueFormatter = func(v interface{}) string {
			if decade, ok := v.(float64); ok {
				return humanize.SIWithDigits(math.Pow(10, decade), 0, "Hz")
			}
			return ""
		}
	}

	ys := c.Y()
	if len(ys) > 0 {
		graph.YAxis = yAxis(ys[0].Title, primary)
	}
	if hasRight {
		for _, axis := range ys {
			if axis.Right {
				graph.YAxisSecondary = yAxis(axis.Title, secondary)
			}
		}
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph, true
}

func yAxis(name string, values []float64) chart.YAxis {
	axis := chart.YAxis{Name: name}
	if r := degenerateRange(values); r != nil {
		axis.Range = r
	}
	return axis
}

// degenerateRange widens a flat series so go-chart doesn't reject a zero height range. It returns nil otherwise.
func degenerateRange(values []float64) *chart.ContinuousRange {
	if len(values) == 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi > lo {
		return nil
	}
	return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
}

func isRightAxis(c *models.Chart, axisID string) bool {
	for _, axis := range c.Y() {
		if axis.ID == axisID {
			return axis.Right
		}
	}
	return false
}
