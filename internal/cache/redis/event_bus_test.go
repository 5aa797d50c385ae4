package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betledger/internal/domain"
)

type fakeBus struct {
	mu         sync.Mutex
	published  map[string][][]byte
	stream     [][]byte
	sub        chan []byte
	publishErr error
	ranges     int
}

func newFakeBus() *fakeBus {
	return &fakeBus{published: map[string][][]byte{}, sub: make(chan []byte, 8)}
}

func (f *fakeBus) Publish(_ context.Context, channel string, payload []byte) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published[channel] = append(f.published[channel], payload)
	return nil
}

func (f *fakeBus) Subscribe(_ context.Context, channel string) (<-chan []byte, error) {
	if channel != EventChannelPattern {
		return nil, errors.New("unexpected channel " + channel)
	}
	return f.sub, nil
}

func (f *fakeBus) StreamAppend(_ context.Context, stream string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stream = append(f.stream, payload)
	return nil
}

func streamID(i int) string {
	return fmt.Sprintf("%d-0", i+1)
}

func (f *fakeBus) StreamRange(_ context.Context, stream, beforeID string, count int) ([]domain.StreamMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ranges++
	start := len(f.stream) - 1
	if beforeID != "" {
		for i := range f.stream {
			if streamID(i) == beforeID {
				start = i - 1
			}
		}
	}
	var out []domain.StreamMessage
	for i := start; i >= 0 && len(out) < count; i-- {
		out = append(out, domain.StreamMessage{ID: streamID(i), Payload: f.stream[i]})
	}
	return out, nil
}

func sampleEvent() domain.Event {
	return domain.Event{
		ID:         "ev-1",
		Type:       domain.EventBetPlaced,
		Subject:    "bet-1",
		Detail:     map[string]any{"match_id": "match-1"},
		OccurredAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEventBusRecord(t *testing.T) {
	fb := newFakeBus()
	eb := NewEventBus(fb, nil)

	require.NoError(t, eb.Record(context.Background(), sampleEvent()))

	require.Len(t, fb.published["events:bet_placed"], 1)
	require.Len(t, fb.stream, 1)

	var ev domain.Event
	require.NoError(t, json.Unmarshal(fb.stream[0], &ev))
	assert.Equal(t, "bet-1", ev.Subject)

	listed, err := eb.List(context.Background(), domain.ListOpts{Limit: 10})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, domain.EventBetPlaced, listed[0].Type)
}

func TestEventBusListFromStream(t *testing.T) {
	fb := newFakeBus()
	eb := NewEventBus(fb, nil)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	// 450 events span three XREVRANGE pages.
	for i := 0; i < 450; i++ {
		typ := domain.EventBetPlaced
		if i%3 == 0 {
			typ = domain.EventCatalogRefreshed
		}
		require.NoError(t, eb.Append(ctx, domain.Event{
			ID:         fmt.Sprintf("ev-%d", i),
			Type:       typ,
			OccurredAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	fb.mu.Lock()
	fb.stream = append(fb.stream, []byte("not json"))
	fb.mu.Unlock()

	newest, err := eb.List(ctx, domain.ListOpts{Limit: 3})
	require.NoError(t, err)
	require.Len(t, newest, 3)
	assert.Equal(t, "ev-449", newest[0].ID)
	assert.Equal(t, "ev-447", newest[2].ID)
	assert.Equal(t, 1, fb.ranges)

	placed, err := eb.List(ctx, domain.ListOpts{Type: domain.EventBetPlaced, Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, placed, 2)
	assert.Equal(t, "ev-448", placed[0].ID)
	assert.Equal(t, "ev-446", placed[1].ID)

	since := base.Add(440 * time.Second)
	until := base.Add(445 * time.Second)
	window, err := eb.List(ctx, domain.ListOpts{Since: &since, Until: &until, Limit: 50})
	require.NoError(t, err)
	require.Len(t, window, 6)
	assert.Equal(t, "ev-445", window[0].ID)
	assert.Equal(t, "ev-440", window[5].ID)

	all, err := eb.List(ctx, domain.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 450)
	assert.Equal(t, "ev-0", all[449].ID)

	past, err := eb.List(ctx, domain.ListOpts{Limit: 10, Offset: 1000})
	require.NoError(t, err)
	assert.NotNil(t, past)
	assert.Empty(t, past)
}

func TestEventBusRecordPublishError(t *testing.T) {
	fb := newFakeBus()
	fb.publishErr = errors.New("conn reset")
	eb := NewEventBus(fb, nil)

	assert.Error(t, eb.Record(context.Background(), sampleEvent()))
	assert.Empty(t, fb.stream)
}

func TestEventBusSubscribeSkipsGarbage(t *testing.T) {
	fb := newFakeBus()
	eb := NewEventBus(fb, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := eb.Subscribe(ctx)
	require.NoError(t, err)

	payload, _ := json.Marshal(sampleEvent())
	fb.sub <- []byte("not json")
	fb.sub <- payload
	close(fb.sub)

	ev, ok := <-events
	require.True(t, ok)
	assert.Equal(t, "ev-1", ev.ID)

	_, ok = <-events
	assert.False(t, ok)
}

func TestHasPattern(t *testing.T) {
	assert.True(t, hasPattern(EventChannelPattern))
	assert.False(t, hasPattern(EventChannel(domain.EventBetPlaced)))
}
