package events

import "sync"

type Kind string

const (
	// SampleFolded fires after a sample lands in the session buffers. Value is the session version.
	SampleFolded Kind = "sample"
	// CollectingChanged fires when collection is paused or resumed. Value is the new bool.
	CollectingChanged Kind = "collecting"
	// SessionReset fires when the buffers are cleared.
	SessionReset Kind = "reset"
	// TransportChanged fires on connect, disconnect and handshake failure. Value is a TransportStatus.
	TransportChanged Kind = "transport"
)

type Event struct {
	Kind      Kind
	Timestamp int
	Value     any
}

// TransportStatus is the Value of a TransportChanged event.
type TransportStatus struct {
	Connected bool
	Device    string
	Err       string
}

type EventHub struct {
	mu   sync.Mutex
	subs map[int]chan *Event
	next int
	last map[Kind]*Event
}

func NewHub() *EventHub {
	return &EventHub{subs: map[int]chan *Event{}, last: map[Kind]*Event{}}
}

// Subscribe returns a channel that first receives the latest event of each kind, then live events.
// Slow subscribers miss events rather than block the broadcaster.
func (h *EventHub) Subscribe() (int, <-chan *Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan *Event, 16)
	for _, last := range h.last {
		ch <- h.copy(last)
	}
	h.subs[id] = ch
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			close(c)
			delete(h.subs, id)
		}
	}
	return id, ch, cancel
}

func (h *EventHub) Broadcast(event *Event) {
	h.mu.Lock()
	h.last[event.Kind] = event
	for _, ch := range h.subs {
		select {
		case ch <- h.copy(event):
		default:
		}
	}
	h.mu.Unlock()
}

// Last returns the most recent event of the given kind, or nil.
func (h *EventHub) Last(kind Kind) *Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	if e, ok := h.last[kind]; ok {
		return h.copy(e)
	}
	return nil
}

func (h *EventHub) copy(e *Event) *Event {
	return &Event{e.Kind, e.Timestamp, e.Value}
}
