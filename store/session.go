package store

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"eisview/events"
	"eisview/models"
	"eisview/stream"
)

// Recorder receives every sample that gets folded into a session, e.g. to persist it for replay.
type Recorder interface {
	Record(sample models.RawSample) error
}

// Session is one live viewing session: the collecting flag plus a buffer per chart and one for the table.
// All mutation goes through mu so there's only ever one writer.
type Session struct {
	mu         sync.Mutex
	collecting bool
	version    uint64
	accepted   uint64
	dropped    uint64

	bode     *stream.Buffer[models.DerivedPoint]
	nyquist  *stream.Buffer[models.DerivedPoint]
	humidity *stream.Buffer[models.DerivedPoint]
	table    *stream.Buffer[models.TableRow]

	eventHub *events.EventHub
	recorder Recorder
}

// View is a read-only copy of a session at one version.
type View struct {
	Version    uint64
	Collecting bool
	Accepted   uint64
	Dropped    uint64
	// Bode and Nyquist are frequency ascending, Humidity and Table are in arrival order.
	Bode     []models.DerivedPoint
	Nyquist  []models.DerivedPoint
	Humidity []models.DerivedPoint
	Table    []models.TableRow
}

func WithEventHub(eventHub *events.EventHub) func(*Session) {
	return func(s *Session) {
		s.eventHub = eventHub
	}
}

func WithRecorder(recorder Recorder) func(*Session) {
	return func(s *Session) {
		s.recorder = recorder
	}
}

func NewSession(capacities Capacities, options ...func(*Session)) *Session {
	s := &Session{
		collecting: true,
		bode:       stream.NewBuffer[models.DerivedPoint](capacities.Bode),
		nyquist:    stream.NewBuffer[models.DerivedPoint](capacities.Nyquist),
		humidity:   stream.NewBuffer[models.DerivedPoint](capacities.Humidity),
		table:      stream.NewBuffer[models.TableRow](capacities.Table),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Ingest decodes one inbound payload and folds it in if we're collecting.
// A payload that fails to decode is logged and dropped without touching the buffers.
func (s *Session) Ingest(payload []byte) error {
	sample, err := models.Decode(payload)
	if err != nil {
		s.Drop(err)
		return err
	}

	if !s.Collecting() {
		log.Debug().Float64("freq", sample.FrequencyHz).Msg("paused, ignoring sample")
		return nil
	}

	s.Fold(*sample)
	return nil
}

// Drop logs and counts a payload that never made it into the buffers, whether it failed to decode here or the
// transport had to discard it.
func (s *Session) Drop(err error) {
	var decodeErr *models.DecodeError
	if errors.As(err, &decodeErr) {
		log.Warn().Str("payload", decodeErr.Payload).Err(decodeErr.Err).Msg("bad packet")
	} else {
		log.Warn().Err(err).Msg("bad packet")
	}

	s.mu.Lock()
	s.dropped++
	s.mu.Unlock()
}

// Fold derives the sample's quantities and pushes them into every buffer.
func (s *Session) Fold(sample models.RawSample) {
	point := models.Compute(sample)

	s.mu.Lock()
	s.bode.Push(point)
	s.nyquist.Push(point)
	if point.HumidityPct != nil {
		s.humidity.Push(point)
	}
	s.table.Push(models.RowFrom(point))
	s.accepted++
	s.version++
	version := s.version
	s.mu.Unlock()

	if s.recorder != nil {
		if err := s.recorder.Record(sample); err != nil {
			log.Printf("couldn't record sample: %s", err)
		}
	}

	s.broadcast(events.SampleFolded, version)
}

func (s *Session) Collecting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collecting
}

// SetCollecting only affects samples that arrive after the call.
func (s *Session) SetCollecting(collecting bool) {
	s.mu.Lock()
	changed := s.collecting != collecting
	s.collecting = collecting
	s.mu.Unlock()

	if changed {
		s.broadcast(events.CollectingChanged, collecting)
	}
}

func (s *Session) ToggleCollecting() bool {
	s.mu.Lock()
	s.collecting = !s.collecting
	collecting := s.collecting
	s.mu.Unlock()

	s.broadcast(events.CollectingChanged, collecting)
	return collecting
}

// Reset drops everything buffered so far. The collecting flag is left as is.
func (s *Session) Reset() {
	s.mu.Lock()
	s.bode.Reset()
	s.nyquist.Reset()
	s.humidity.Reset()
	s.table.Reset()
	s.version++
	version := s.version
	s.mu.Unlock()

	s.broadcast(events.SessionReset, version)
}

func (s *Session) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	byFrequency := func(p models.DerivedPoint) float64 { return p.FrequencyHz }
	return View{
		Version:    s.version,
		Collecting: s.collecting,
		Accepted:   s.accepted,
		Dropped:    s.dropped,
		Bode:       s.bode.SortedBy(byFrequency),
		Nyquist:    s.nyquist.SortedBy(byFrequency),
		Humidity:   s.humidity.Snapshot(),
		Table:      s.table.Snapshot(),
	}
}

func (s *Session) broadcast(kind events.Kind, value any) {
	if s.eventHub == nil {
		return
	}
	s.eventHub.Broadcast(&events.Event{Kind: kind, Timestamp: int(time.Now().UnixMilli()), Value: value})
}
