package store

import (
	"maps"
	"slices"
	"sort"

	"eisview/models"
)

const DASHBOARD_FRAMERATE = 20

const (
	BODE_MAGNITUDE_SERIES = "magnitude"
	BODE_PHASE_SERIES     = "phase"
	NYQUIST_SERIES        = "nyquist"
	HUMIDITY_SERIES       = "humidity"
	REAL_SERIES           = "real"
	IMAG_SERIES           = "imag"
	Z_SERIES              = "z"
)

const (
	BODE_CHART     = "bode"
	NYQUIST_CHART  = "nyquist"
	HUMIDITY_CHART = "humidity"

	REPLAY_FREQUENCY_CHART = "impedance"
	REPLAY_TIME_CHART      = "time"
)

const (
	CYAN   = "#00FFFF"
	ORANGE = "#FFA500"
	LIME   = "#7CFC00"
	BLUE   = "#4169E1"
	RED    = "#D9004C"
	GREEN  = "#2E8B57"
)

var DashboardCharts = map[string]*models.Chart{
	BODE_CHART: models.NewChart(
		BODE_CHART,
		"Bode",
		[]*models.Series{
			models.NewSeries(BODE_MAGNITUDE_SERIES, "|Z| (dB)", "dB", CYAN, "y1", true),
			models.NewSeries(BODE_PHASE_SERIES, "Phase (°)", "°", ORANGE, "y2", true),
		},
		models.Axis{ID: "x", Title: "Frequency (Hz)", Logarithmic: true},
		[]models.Axis{
			{ID: "y1", Title: "|Z| (dB)"},
			{ID: "y2", Title: "Phase (°)", Right: true},
		},
		1,
	),
	NYQUIST_CHART: models.NewChart(
		NYQUIST_CHART,
		"Nyquist",
		[]*models.Series{
			models.NewSeries(NYQUIST_SERIES, "Nyquist", "Ω", LIME, "y", true),
		},
		models.Axis{ID: "x", Title: "Real (Ω)"},
		[]models.Axis{
			{ID: "y", Title: "-Imag (Ω)"},
		},
		2,
	),
	HUMIDITY_CHART: models.NewChart(
		HUMIDITY_CHART,
		"Humidity",
		[]*models.Series{
			models.NewSeries(HUMIDITY_SERIES, "Humidity (%)", "%", BLUE, "y", true),
		},
		models.Axis{ID: "x", Title: "Time (s)"},
		[]models.Axis{
			{ID: "y", Title: "Humidity (%)"},
		},
		3,
	),
}

func replaySeries() []*models.Series {
	return []*models.Series{
		models.NewSeries(REAL_SERIES, "Real (Ω)", "Ω", BLUE, "y", true),
		models.NewSeries(IMAG_SERIES, "Imag (Ω)", "Ω", RED, "y", true),
		models.NewSeries(Z_SERIES, "|Z| (Ω)", "Ω", GREEN, "y", true),
	}
}

var ReplayCharts = map[string]*models.Chart{
	REPLAY_FREQUENCY_CHART: models.NewChart(
		REPLAY_FREQUENCY_CHART,
		"Impedance vs Frequency",
		replaySeries(),
		models.Axis{ID: "x", Title: "Frequency (Hz)"},
		[]models.Axis{{ID: "y", Title: "Impedance (Ω)"}},
		1,
	),
	REPLAY_TIME_CHART: models.NewChart(
		REPLAY_TIME_CHART,
		"Impedance vs Time",
		replaySeries(),
		models.Axis{ID: "x", Title: "Time (ms)"},
		[]models.Axis{{ID: "y", Title: "Impedance (Ω)"}},
		2,
	),
}

// OrderedCharts returns the charts sorted by layout priority.
func OrderedCharts(charts map[string]*models.Chart) []*models.Chart {
	ordered := slices.Collect(maps.Values(charts))
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].LayoutPriority() < ordered[j].LayoutPriority()
	})
	return ordered
}
