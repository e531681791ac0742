package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ds "github.com/starfederation/datastar-go/datastar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/v2"

	"eisview/capture"
	"eisview/drivers"
	"eisview/events"
	"eisview/models"
	"eisview/projection"
	"eisview/store"
)

type stubDriver struct {
	initErr error
}

func (s *stubDriver) Init() error {
	return s.initErr
}

func (s *stubDriver) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (s *stubDriver) Name() string {
	return "stub"
}

type fixture struct {
	session   *store.Session
	hub       *events.EventHub
	dashboard *Dashboard
	server    *Server
	dir       string
}

func newFixture(t *testing.T, driver drivers.Driver) *fixture {
	t.Helper()

	templates, err := ParseTemplates()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := events.NewHub()
	session := store.NewSession(store.Capacities{Bode: 10, Nyquist: 10, Humidity: 10, Table: 5}, store.WithEventHub(hub))
	dashboard := NewDashboard(ctx, templates, session, drivers.NewConnection(driver, hub))

	dir := t.TempDir()
	replayPage := NewReplayPage(templates, &capture.Library{Dir: dir}, time.Millisecond)

	return &fixture{
		session:   session,
		hub:       hub,
		dashboard: dashboard,
		server:    NewServer(dashboard, hub, replayPage),
		dir:       dir,
	}
}

func (f *fixture) do(method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func humidity(v float64) *float64 { return &v }

func foldSweep(session *store.Session) {
	session.Fold(models.RawSample{TimestampMs: 0, FrequencyHz: 1000, Real: 100, Imag: -50, HumidityPct: humidity(40)})
	session.Fold(models.RawSample{TimestampMs: 500, FrequencyHz: 10, Real: 300, Imag: -200, HumidityPct: humidity(41)})
	session.Fold(models.RawSample{TimestampMs: 1000, FrequencyHz: 100, Real: 150, Imag: -90})
}

func TestIndex(t *testing.T) {
	f := newFixture(t, &stubDriver{})
	foldSweep(f.session)

	rec := f.do(http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `id="table-body"`)
	for _, key := range []string{store.BODE_CHART, store.NYQUIST_CHART, store.HUMIDITY_CHART} {
		assert.Contains(t, body, `id="canvas-`+key+`"`)
	}
	assert.Equal(t, 3, strings.Count(body, "<tr><td>"))

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/nothing-here").Code)
}

func TestOnTickSkipsUnchangedVersion(t *testing.T) {
	f := newFixture(t, &stubDriver{})
	foldSweep(f.session)

	rec := httptest.NewRecorder()
	sse := ds.NewSSE(rec, httptest.NewRequest(http.MethodGet, "/tick", nil))

	version, err := f.dashboard.OnTick(sse, ^uint64(0))
	require.NoError(t, err)
	assert.Equal(t, f.session.Version(), version)

	body := rec.Body.String()
	assert.Contains(t, body, "c('bode',")
	assert.Contains(t, body, "c('nyquist',")
	assert.Contains(t, body, "c('humidity',")
	assert.Contains(t, body, "table-body")

	written := rec.Body.Len()
	version, err = f.dashboard.OnTick(sse, version)
	require.NoError(t, err)
	assert.Equal(t, written, rec.Body.Len())

	f.session.Reset()
	next, err := f.dashboard.OnTick(sse, version)
	require.NoError(t, err)
	assert.Greater(t, next, version)
	assert.Greater(t, rec.Body.Len(), written)
}

func TestTickStream(t *testing.T) {
	f := newFixture(t, &stubDriver{})
	foldSweep(f.session)
	f.hub.Broadcast(&events.Event{Kind: events.TransportChanged, Value: events.TransportStatus{Connected: true, Device: "EIS-01"}})

	server := httptest.NewServer(f.server)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/tick", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Cookies())

	// the stream only ends when the context times out
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "EIS-01")
	assert.Contains(t, string(body), "c('bode',")
}

func TestToggleCollect(t *testing.T) {
	f := newFixture(t, &stubDriver{})
	require.True(t, f.session.Collecting())

	rec := f.do(http.MethodPost, "/toggle-collect")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, f.session.Collecting())
	assert.Contains(t, rec.Body.String(), `"collecting":false`)

	f.do(http.MethodPost, "/toggle-collect")
	assert.True(t, f.session.Collecting())
}

func TestReset(t *testing.T) {
	f := newFixture(t, &stubDriver{})
	foldSweep(f.session)

	rec := f.do(http.MethodPost, "/reset")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	view := f.session.View()
	assert.Empty(t, view.Bode)
	assert.Empty(t, view.Table)
}

func TestConnect(t *testing.T) {
	t.Run("handshake failure", func(t *testing.T) {
		f := newFixture(t, &stubDriver{initErr: &drivers.TransportError{Op: "open", Err: errors.New("no port found")}})

		rec := f.do(http.MethodPost, "/connect")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "no port found")
		assert.False(t, f.dashboard.connection.Running())
	})

	t.Run("connected", func(t *testing.T) {
		f := newFixture(t, &stubDriver{})

		rec := f.do(http.MethodPost, "/connect")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"transportError":""`)
		assert.True(t, f.dashboard.connection.Running())

		last := f.hub.Last(events.TransportChanged)
		require.NotNil(t, last)
		assert.Equal(t, events.TransportStatus{Connected: true, Device: "stub"}, last.Value)
	})
}

func TestGeneratePatchOnEvent(t *testing.T) {
	f := newFixture(t, &stubDriver{})

	assert.Nil(t, f.dashboard.GeneratePatchOnEvent(&events.Event{Kind: events.SampleFolded, Value: uint64(1)}))
	assert.Nil(t, f.dashboard.GeneratePatchOnEvent(&events.Event{Kind: events.CollectingChanged, Value: "yes"}))

	patch := f.dashboard.GeneratePatchOnEvent(&events.Event{
		Kind:  events.TransportChanged,
		Value: events.TransportStatus{Err: "permission denied"},
	})
	require.NotNil(t, patch)

	rec := httptest.NewRecorder()
	require.NoError(t, patch(ds.NewSSE(rec, httptest.NewRequest(http.MethodGet, "/tick", nil))))
	assert.Contains(t, rec.Body.String(), `"connected":false`)
	assert.Contains(t, rec.Body.String(), "permission denied")
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t, &stubDriver{})

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodGet, "/snapshot/bode.png").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/snapshot/table.png").Code)

	f.session.Fold(models.RawSample{FrequencyHz: 100, Real: 100, Imag: -10})
	for _, key := range []string{store.BODE_CHART, store.NYQUIST_CHART} {
		rec := f.do(http.MethodGet, "/snapshot/"+key+".png")
		require.Equal(t, http.StatusOK, rec.Code, key)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"), key)
	}
	// no sample carried humidity
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodGet, "/snapshot/humidity.png").Code)

	foldSweep(f.session)
	rec := f.do(http.MethodGet, "/snapshot/humidity.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
}

func TestSnapshotSkipsNonPositiveFrequencyOnLogAxis(t *testing.T) {
	f := newFixture(t, &stubDriver{})

	f.session.Fold(models.RawSample{FrequencyHz: 0, Real: 100, Imag: -10})
	// only a 0 Hz point, nothing to draw on the log axis
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodGet, "/snapshot/bode.png").Code)
	// nyquist doesn't plot frequency
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/snapshot/nyquist.png").Code)

	f.session.Fold(models.RawSample{FrequencyHz: -5, Real: 90, Imag: -12})
	f.session.Fold(models.RawSample{FrequencyHz: 100, Real: 100, Imag: -10})
	f.session.Fold(models.RawSample{FrequencyHz: 1000, Real: 80, Imag: -20})

	rec := f.do(http.MethodGet, "/snapshot/bode.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
}

func TestSnapshotGraphDropsNonPositiveLogX(t *testing.T) {
	graph, ok := snapshotGraph(store.DashboardCharts[store.BODE_CHART], map[string][]projection.Point{
		store.BODE_MAGNITUDE_SERIES: {{X: 0, Y: 40}, {X: 10, Y: 41}, {X: 100, Y: 42}},
	})
	require.True(t, ok)
	require.Len(t, graph.Series, 1)

	series, isContinuous := graph.Series[0].(chart.ContinuousSeries)
	require.True(t, isContinuous)
	assert.Equal(t, []float64{1, 2}, series.XValues)
	assert.Equal(t, []float64{41, 42}, series.YValues)
}

func TestDegenerateRange(t *testing.T) {
	assert.Nil(t, degenerateRange(nil))
	assert.Nil(t, degenerateRange([]float64{1, 2}))

	r := degenerateRange([]float64{5, 5})
	require.NotNil(t, r)
	assert.Equal(t, 4.0, r.Min)
	assert.Equal(t, 6.0, r.Max)
}

func TestReplayIndex(t *testing.T) {
	f := newFixture(t, &stubDriver{})
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "sweep.json"), []byte(`{"real":[1],"imag":[2],"time":[0]}`), 0o644))

	rec := f.do(http.MethodGet, "/replay")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sweep.json")
	assert.Contains(t, rec.Body.String(), `id="canvas-`+store.REPLAY_FREQUENCY_CHART+`"`)
	assert.Contains(t, rec.Body.String(), `id="canvas-`+store.REPLAY_TIME_CHART+`"`)
}

func TestReplayStream(t *testing.T) {
	t.Run("plays every sample", func(t *testing.T) {
		f := newFixture(t, &stubDriver{})
		record := `{"real":[100,120],"imag":[-50,-60],"frequencies":[1000,100],"time":[0,null]}`
		require.NoError(t, os.WriteFile(filepath.Join(f.dir, "sweep.json"), []byte(record), 0o644))

		rec := f.do(http.MethodGet, "/replay/stream?source=file:sweep.json")
		require.Equal(t, http.StatusOK, rec.Code)

		body := rec.Body.String()
		assert.Equal(t, 2, strings.Count(body, "r('impedance',"))
		assert.Equal(t, 1, strings.Count(body, "r('time',"))
		assert.NotContains(t, body, "blocking")
	})

	t.Run("missing record", func(t *testing.T) {
		f := newFixture(t, &stubDriver{})

		rec := f.do(http.MethodGet, "/replay/stream?source=file:missing.json")
		body := rec.Body.String()
		assert.Contains(t, body, "replay-message")
		assert.Contains(t, body, "blocking")
		assert.Contains(t, body, models.ErrNoReplayData.Error())
		assert.NotContains(t, body, "r('impedance',")
	})

	t.Run("no imaginary values", func(t *testing.T) {
		f := newFixture(t, &stubDriver{})
		require.NoError(t, os.WriteFile(filepath.Join(f.dir, "bad.json"), []byte(`{"real":[1],"frequencies":[1]}`), 0o644))

		rec := f.do(http.MethodGet, "/replay/stream?source=file:bad.json")
		assert.Contains(t, rec.Body.String(), "blocking")
	})
}

func TestBuildChartConfig(t *testing.T) {
	config, err := buildChartConfig(store.ReplayCharts[store.REPLAY_TIME_CHART])
	require.NoError(t, err)
	assert.Contains(t, config, `"labels":true`)

	config, err = buildChartConfig(store.DashboardCharts[store.BODE_CHART])
	require.NoError(t, err)
	assert.NotContains(t, config, `"labels"`)
	assert.Contains(t, config, `"logarithmic":true`)
	assert.Contains(t, config, `"axis":"y2"`)
	assert.Contains(t, config, `"unit":"dB"`)
}

func TestBuildReplayPointFunction(t *testing.T) {
	script, err := buildReplayPointFunction(store.REPLAY_TIME_CHART, "50 ms", models.Compute(models.RawSample{Real: 3, Imag: 4}))
	require.NoError(t, err)
	assert.Equal(t, `r('time',"50 ms",{"imag":4,"real":3,"z":5})`, script)
}
