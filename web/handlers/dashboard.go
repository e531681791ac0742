package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	ds "github.com/starfederation/datastar-go/datastar"

	"eisview/drivers"
	"eisview/events"
	"eisview/projection"
	"eisview/store"
)

type Dashboard struct {
	templates *template.Template

	// ctx outlives requests, drivers started from /connect run under it.
	ctx        context.Context
	session    *store.Session
	connection *drivers.Connection
}

type dashboardSignals struct {
	Collecting     bool   `json:"collecting"`
	Connected      bool   `json:"connected"`
	Device         string `json:"device"`
	TransportError string `json:"transportError"`
}

func NewDashboard(ctx context.Context, templates *template.Template, session *store.Session, connection *drivers.Connection) *Dashboard {
	return &Dashboard{
		templates:  templates,
		ctx:        ctx,
		session:    session,
		connection: connection,
	}
}

func (d *Dashboard) Templates() *template.Template {
	return d.templates
}

func (d *Dashboard) Handlers() map[string]func(w http.ResponseWriter, r *http.Request) {
	return map[string]func(w http.ResponseWriter, r *http.Request){
		"POST /toggle-collect":  d.ToggleCollectHandler,
		"POST /connect":         d.ConnectHandler,
		"POST /reset":           d.ResetHandler,
		"GET /snapshot/{chart}": d.SnapshotHandler,
	}
}

func (d *Dashboard) Data() map[string]interface{} {
	view := d.session.View()

	signals, err := json.Marshal(dashboardSignals{Collecting: view.Collecting})
	if err != nil {
		log.Printf("couldn't marshal dashboard signals: %s", err)
	}

	return map[string]interface{}{
		"charts":  store.OrderedCharts(store.DashboardCharts),
		"columns": projection.TableColumns,
		"rows":    projection.FormatRows(view.Table),
		"signals": string(signals),
		"bridge":  d.isBridge(),
	}
}

// OnTick redraws every chart and the table when the session has changed since lastVersion.
func (d *Dashboard) OnTick(sse *ds.ServerSentEventGenerator, lastVersion uint64) (uint64, error) {
	view := d.session.View()
	if view.Version == lastVersion {
		return lastVersion, nil
	}

	data := chartData(view)
	for _, chart := range store.OrderedCharts(store.DashboardCharts) {
		script, err := buildChartUpdateFunction(chart.Key(), data[chart.Key()])
		if err != nil {
			return lastVersion, err
		}
		if err := sse.ExecuteScript(script); err != nil {
			return lastVersion, err
		}
	}

	var buf strings.Builder
	if err := d.templates.ExecuteTemplate(&buf, "table.body", projection.FormatRows(view.Table)); err != nil {
		return lastVersion, fmt.Errorf("executing table.body template: %w", err)
	}
	if err := sse.PatchElements(buf.String()); err != nil {
		return lastVersion, err
	}

	return view.Version, nil
}

func (d *Dashboard) GeneratePatchOnEvent(event *events.Event) func(*ds.ServerSentEventGenerator) error {
	var signals map[string]any
	switch event.Kind {
	case events.CollectingChanged:
		collecting, ok := event.Value.(bool)
		if !ok {
			return nil
		}
		signals = map[string]any{"collecting": collecting}
	case events.TransportChanged:
		status, ok := event.Value.(events.TransportStatus)
		if !ok {
			return nil
		}
		signals = map[string]any{
			"connected":      status.Connected,
			"device":         status.Device,
			"transportError": status.Err,
		}
	default:
		return nil
	}

	return func(sse *ds.ServerSentEventGenerator) error {
		return sse.MarshalAndPatchSignals(signals)
	}
}

func (d *Dashboard) ToggleCollectHandler(w http.ResponseWriter, r *http.Request) {
	collecting := d.session.ToggleCollecting()

	sse := ds.NewSSE(w, r)
	if err := sse.MarshalAndPatchSignals(map[string]any{"collecting": collecting}); err != nil {
		log.Printf("error patching collecting signal: %s", err)
	}
}

// ConnectHandler (re)starts the configured driver. A failed handshake leaves the dashboard usable so the user can retry.
func (d *Dashboard) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	transportError := ""
	if err := d.connection.Connect(d.ctx); err != nil {
		transportError = err.Error()
		var transportErr *drivers.TransportError
		if !errors.As(err, &transportErr) {
			log.Printf("unexpected connect error: %s", err)
		}
	}

	sse := ds.NewSSE(w, r)
	if err := sse.MarshalAndPatchSignals(map[string]any{"transportError": transportError}); err != nil {
		log.Printf("error patching transport signal: %s", err)
	}
}

func (d *Dashboard) ResetHandler(w http.ResponseWriter, _ *http.Request) {
	d.session.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (d *Dashboard) isBridge() bool {
	if d.connection == nil {
		return false
	}
	_, ok := d.connection.Driver().(*drivers.Bridge)
	return ok
}

// chartData projects a view into the points of every dashboard series, keyed by chart then series.
func chartData(view store.View) map[string]map[string][]projection.Point {
	return map[string]map[string][]projection.Point{
		store.BODE_CHART: {
			store.BODE_MAGNITUDE_SERIES: projection.Drawable(projection.BodeMagnitude(view.Bode)),
			store.BODE_PHASE_SERIES:     projection.Drawable(projection.BodePhase(view.Bode)),
		},
		store.NYQUIST_CHART: {
			store.NYQUIST_SERIES: projection.Drawable(projection.Nyquist(view.Nyquist)),
		},
		store.HUMIDITY_CHART: {
			store.HUMIDITY_SERIES: projection.Drawable(projection.Humidity(view.Humidity)),
		},
	}
}

func buildChartUpdateFunction(chartKey string, series map[string][]projection.Point) (string, error) {
	data, err := json.Marshal(series)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`c('%s',%s)`, chartKey, data), nil
}
