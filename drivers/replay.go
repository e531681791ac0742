package drivers

import (
	"context"
	"time"

	"eisview/models"
	"eisview/projection"
)

const DEFAULT_REPLAY_INTERVAL = 50 * time.Millisecond

type ReplayState uint8

const (
	ReplayIdle ReplayState = iota
	ReplayPlaying
	ReplayStopped
)

func (s ReplayState) String() string {
	switch s {
	case ReplayIdle:
		return "idle"
	case ReplayPlaying:
		return "playing"
	case ReplayStopped:
		return "stopped"
	}
	return "unknown"
}

// ReplaySink receives replayed points. Each axis only gets the samples that have a value for it.
type ReplaySink interface {
	FrequencyPoint(label string, point models.DerivedPoint)
	TimePoint(label string, point models.DerivedPoint)
}

// Replay plays a captured record into a sink at a fixed rate. Once it stops it stays stopped, replaying again
// means building a new Replay over the same record.
type Replay struct {
	record   *models.ReplayRecord
	sink     ReplaySink
	interval time.Duration
	index    int
	state    ReplayState
}

// NewReplay validates the record up front, an unusable one is a *models.DataAvailabilityError.
func NewReplay(record *models.ReplayRecord, sink ReplaySink, interval time.Duration) (*Replay, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = DEFAULT_REPLAY_INTERVAL
	}
	return &Replay{
		record:   record,
		sink:     sink,
		interval: interval,
	}, nil
}

func (r *Replay) State() ReplayState {
	return r.state
}

// Index is the position of the next sample to play.
func (r *Replay) Index() int {
	return r.index
}

func (r *Replay) Start() {
	if r.state != ReplayIdle {
		return
	}
	r.state = ReplayPlaying
	if r.record.Len() == 0 {
		r.state = ReplayStopped
	}
}

// Tick plays the sample at the current index and advances. It returns false, doing nothing, unless playing.
func (r *Replay) Tick() bool {
	if r.state != ReplayPlaying {
		return false
	}
	if r.index >= r.record.Len() {
		r.state = ReplayStopped
		return false
	}

	r.feed(r.index)
	r.index++
	if r.index >= r.record.Len() {
		r.state = ReplayStopped
	}
	return true
}

// Run starts the replay and ticks it every interval until it stops or ctx is done. Ticks never overlap.
func (r *Replay) Run(ctx context.Context) error {
	r.Start()
	if r.state == ReplayStopped {
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Tick()
			if r.state == ReplayStopped {
				return nil
			}
		}
	}
}

func (r *Replay) feed(i int) {
	freq := r.record.FrequencyAt(i)
	ms := r.record.TimeAt(i)

	sample := models.RawSample{
		Real: r.record.Real[i],
		Imag: r.record.Imag[i],
	}
	if freq != nil {
		sample.FrequencyHz = *freq
	}
	if ms != nil {
		sample.TimestampMs = *ms
	}
	point := models.Compute(sample)

	if freq != nil {
		r.sink.FrequencyPoint(projection.FormatFrequencyLabel(freq), point)
	}
	if ms != nil {
		r.sink.TimePoint(projection.FormatTimeLabel(ms), point)
	}
}
