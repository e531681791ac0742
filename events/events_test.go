package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesBroadcast(t *testing.T) {
	hub := NewHub()
	_, ch, cancel := hub.Subscribe()
	defer cancel()

	hub.Broadcast(&Event{Kind: SampleFolded, Timestamp: 10, Value: uint64(1)})

	e := <-ch
	assert.Equal(t, SampleFolded, e.Kind)
	assert.Equal(t, uint64(1), e.Value)
}

func TestSubscribeReplaysLatestPerKind(t *testing.T) {
	hub := NewHub()
	hub.Broadcast(&Event{Kind: SampleFolded, Value: uint64(1)})
	hub.Broadcast(&Event{Kind: SampleFolded, Value: uint64(2)})
	hub.Broadcast(&Event{Kind: CollectingChanged, Value: false})

	_, ch, cancel := hub.Subscribe()
	defer cancel()

	got := map[Kind]any{}
	for i := 0; i < 2; i++ {
		e := <-ch
		got[e.Kind] = e.Value
	}
	assert.Equal(t, map[Kind]any{SampleFolded: uint64(2), CollectingChanged: false}, got)
}

func TestBroadcastDoesNotBlockOnSlowSubscriber(t *testing.T) {
	hub := NewHub()
	_, _, cancel := hub.Subscribe()
	defer cancel()

	for i := 0; i < 100; i++ {
		hub.Broadcast(&Event{Kind: SampleFolded, Value: uint64(i)})
	}

	last := hub.Last(SampleFolded)
	require.NotNil(t, last)
	assert.Equal(t, uint64(99), last.Value)
	assert.Nil(t, hub.Last(SessionReset))
}

func TestCancelClosesChannel(t *testing.T) {
	hub := NewHub()
	_, ch, cancel := hub.Subscribe()
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)
}
