package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betledger/internal/domain"
)

type memSink struct {
	name string
	err  error

	mu     sync.Mutex
	events []domain.Event
}

func (s *memSink) Record(_ context.Context, ev domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *memSink) Name() string { return s.name }

func (s *memSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func betPlaced() domain.Event {
	return domain.Event{
		ID:         "ev-1",
		Type:       domain.EventBetPlaced,
		Subject:    "bet-1",
		Detail:     map[string]any{"stake": "10", "match_id": "match-1"},
		OccurredAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDispatchFiltersByEventType(t *testing.T) {
	n := NewNotifier(0, nil)
	all := &memSink{name: "all"}
	refreshOnly := &memSink{name: "refresh"}
	n.Register(all, nil)
	n.Register(refreshOnly, []string{" catalog_refresh_failed "})

	require.NoError(t, n.Dispatch(context.Background(), betPlaced()))
	require.NoError(t, n.Dispatch(context.Background(), domain.Event{Type: domain.EventCatalogRefreshFailed}))

	assert.Equal(t, 2, all.count())
	assert.Equal(t, 1, refreshOnly.count())
	assert.Equal(t, []string{"all", "refresh"}, n.Sinks())
}

func TestDispatchCombinesSinkErrors(t *testing.T) {
	n := NewNotifier(0, nil)
	bad := &memSink{name: "bad", err: errors.New("down")}
	good := &memSink{name: "good"}
	n.Register(bad, nil)
	n.Register(good, nil)

	err := n.Dispatch(context.Background(), betPlaced())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: down")
	assert.Equal(t, 1, good.count())
}

func TestRunDeliversQueuedEvents(t *testing.T) {
	n := NewNotifier(8, nil)
	sink := &memSink{name: "mem"}
	n.Register(sink, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = n.Run(ctx)
		close(done)
	}()

	for i := 0; i < 5; i++ {
		n.Publish(ctx, betPlaced())
	}
	assert.Eventually(t, func() bool { return sink.count() == 5 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	n := NewNotifier(1, nil)
	sink := &memSink{name: "mem"}
	n.Register(sink, nil)

	n.Publish(context.Background(), betPlaced())
	n.Publish(context.Background(), betPlaced())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, n.Run(ctx))
	assert.Equal(t, 1, sink.count())
}

func TestBody(t *testing.T) {
	assert.Equal(t, "bet-1\nmatch_id=match-1\nstake=10", Body(betPlaced()))
	assert.Equal(t, "Bet placed", Title(betPlaced()))
}

func TestDiscordSink(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, NewDiscordSink(srv.URL).Record(context.Background(), betPlaced()))
	assert.Equal(t, "**Bet placed**\nbet-1\nmatch_id=match-1\nstake=10", got["content"])
}

func TestDiscordSinkErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad webhook", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewDiscordSink(srv.URL).Record(context.Background(), betPlaced())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 400")
}

func TestTelegramSink(t *testing.T) {
	var path string
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	s := NewTelegramSink("tok", "42")
	s.apiBase = srv.URL
	require.NoError(t, s.Record(context.Background(), betPlaced()))
	assert.Equal(t, "/bottok/sendMessage", path)
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "Markdown", got["parse_mode"])
}
