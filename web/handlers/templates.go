package handlers

import (
	"encoding/json"
	"html/template"

	"eisview/models"
	"eisview/store"
	"eisview/web"
)

type seriesConfig struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Unit     string `json:"unit"`
	Colour   string `json:"colour"`
	Axis     string `json:"axis"`
	ShowLine bool   `json:"showLine"`
}

type chartConfig struct {
	Key    string         `json:"key"`
	X      models.Axis    `json:"x"`
	Y      []models.Axis  `json:"y"`
	Series []seriesConfig `json:"series"`
	// Labels switches the x axis to categories, used by the replay charts.
	Labels bool `json:"labels,omitempty"`
}

func ParseTemplates() (*template.Template, error) {
	templates := template.New("").Funcs(template.FuncMap{
		"chartConfig": buildChartConfig,
	})
	return templates.ParseFS(web.Templates, "templates/*.gohtml")
}

// buildChartConfig is what eisview.js needs to create the Chart.js instance for a chart.
func buildChartConfig(chart *models.Chart) (string, error) {
	config := chartConfig{
		Key:    chart.Key(),
		X:      chart.X(),
		Y:      chart.Y(),
		Labels: store.ReplayCharts[chart.Key()] == chart,
	}
	for _, series := range chart.Series() {
		config.Series = append(config.Series, seriesConfig{
			Key:      series.Key(),
			Label:    series.Label(),
			Unit:     series.Unit(),
			Colour:   series.Colour(),
			Axis:     series.AxisID(),
			ShowLine: series.ShowLine(),
		})
	}

	b, err := json.Marshal(config)
	return string(b), err
}
