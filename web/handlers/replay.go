package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	ds "github.com/starfederation/datastar-go/datastar"

	"eisview/capture"
	"eisview/drivers"
	"eisview/models"
	"eisview/store"
)

// ReplayPage plays stored records back onto the replay charts, one driver per stream request.
type ReplayPage struct {
	templates *template.Template
	library   *capture.Library
	interval  time.Duration
}

func NewReplayPage(templates *template.Template, library *capture.Library, interval time.Duration) *ReplayPage {
	return &ReplayPage{
		templates: templates,
		library:   library,
		interval:  interval,
	}
}

func (p *ReplayPage) Handlers() map[string]func(w http.ResponseWriter, r *http.Request) {
	return map[string]func(w http.ResponseWriter, r *http.Request){
		"GET /replay":        p.IndexHandler,
		"GET /replay/stream": p.StreamHandler,
	}
}

func (p *ReplayPage) IndexHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := p.library.Entries(r.Context())
	if err != nil {
		log.Printf("couldn't list recordings: %s", err)
	}

	data := map[string]interface{}{
		"entries": entries,
		"charts":  store.OrderedCharts(store.ReplayCharts),
	}
	if err := p.templates.ExecuteTemplate(w, "replay", data); err != nil {
		log.Printf("couldn't execute template for replay %s", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// StreamHandler loads ?source= and plays it until the record ends or the client goes away.
func (p *ReplayPage) StreamHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	source := r.URL.Query().Get("source")
	sse := ds.NewSSE(w, r)

	record, err := p.library.Load(ctx, source)
	if err != nil {
		var availability *models.DataAvailabilityError
		if !errors.As(err, &availability) {
			log.Printf("couldn't load %s: %s", source, err)
		}
		p.message(sse, err.Error())
		return
	}

	sink := &sseReplaySink{sse: sse}
	replay, err := drivers.NewReplay(record, sink, p.interval)
	if err != nil {
		p.message(sse, err.Error())
		return
	}
	p.message(sse, "")

	if err := replay.Run(ctx); err != nil {
		// client left mid replay
		log.Debug().Str("source", source).Int("index", replay.Index()).Msg("replay abandoned")
		return
	}
	if sink.err != nil {
		log.Printf("error streaming replay of %s: %s", source, sink.err)
		return
	}

	log.Printf("replayed %s samples from %s", humanize.Comma(int64(record.Len())), source)
}

// message patches the blocking message above the replay charts. An empty text clears it.
func (p *ReplayPage) message(sse *ds.ServerSentEventGenerator, text string) {
	var buf strings.Builder
	if err := p.templates.ExecuteTemplate(&buf, "replay.message", text); err != nil {
		log.Printf("couldn't execute replay.message template: %s", err)
		return
	}
	if err := sse.PatchElements(buf.String()); err != nil {
		log.Printf("error patching replay message: %s", err)
	}
}

// sseReplaySink appends each replayed sample to the replay charts with the r() script.
// The first write error is kept and later points are dropped.
type sseReplaySink struct {
	sse *ds.ServerSentEventGenerator
	err error
}

func (s *sseReplaySink) FrequencyPoint(label string, p models.DerivedPoint) {
	s.send(store.REPLAY_FREQUENCY_CHART, label, p)
}

func (s *sseReplaySink) TimePoint(label string, p models.DerivedPoint) {
	s.send(store.REPLAY_TIME_CHART, label, p)
}

func (s *sseReplaySink) send(chartKey string, label string, p models.DerivedPoint) {
	if s.err != nil {
		return
	}
	script, err := buildReplayPointFunction(chartKey, label, p)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.sse.ExecuteScript(script)
}

func buildReplayPointFunction(chartKey string, label string, p models.DerivedPoint) (string, error) {
	labelJSON, err := json.Marshal(label)
	if err != nil {
		return "", err
	}
	values, err := json.Marshal(map[string]float64{
		store.REAL_SERIES: p.Real,
		store.IMAG_SERIES: p.Imag,
		store.Z_SERIES:    p.MagnitudeOhm,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`r('%s',%s,%s)`, chartKey, labelJSON, values), nil
}
