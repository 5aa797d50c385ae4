package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betledger/internal/cache/redis"
	"github.com/alanyoungcy/betledger/internal/catalog"
	"github.com/alanyoungcy/betledger/internal/config"
	"github.com/alanyoungcy/betledger/internal/domain"
	"github.com/alanyoungcy/betledger/internal/server/ws"
)

// unreachableBus is a SignalBus whose subscriptions always fail.
type unreachableBus struct{}

func (unreachableBus) Publish(context.Context, string, []byte) error { return nil }

func (unreachableBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("connection refused")
}

func (unreachableBus) StreamAppend(context.Context, string, []byte) error { return nil }

func (unreachableBus) StreamRange(context.Context, string, string, int) ([]domain.StreamMessage, error) {
	return nil, nil
}

// lookupSource serves a fixed listing plus by-id lookups that can be made to
// disagree with it.
type lookupSource struct {
	teams     []domain.Team
	matches   []domain.Match
	teamNames map[string]string
	lookups   int
}

func newLookupSource() *lookupSource {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return &lookupSource{
		teams: []domain.Team{
			{ID: "team-1", Name: "Manchester United"},
			{ID: "team-2", Name: "Liverpool"},
		},
		matches: []domain.Match{
			{ID: "match-1", HomeTeamID: "team-1", AwayTeamID: "team-2", MatchDate: base.Add(24 * time.Hour), Status: domain.MatchStatusScheduled},
		},
		teamNames: map[string]string{"team-1": "Manchester United", "team-2": "Liverpool"},
	}
}

func (s *lookupSource) FetchAllTeams(context.Context) ([]domain.Team, error) {
	return s.teams, nil
}

func (s *lookupSource) FetchAllMatches(context.Context) ([]domain.Match, error) {
	return s.matches, nil
}

func (s *lookupSource) GetTeam(_ context.Context, id string) (domain.Team, error) {
	s.lookups++
	name, ok := s.teamNames[id]
	if !ok {
		return domain.Team{}, domain.ErrNotFound
	}
	return domain.Team{ID: id, Name: name}, nil
}

func (s *lookupSource) GetMatch(_ context.Context, id string) (domain.Match, error) {
	s.lookups++
	for _, m := range s.matches {
		if m.ID == id {
			return m, nil
		}
	}
	return domain.Match{}, domain.ErrNotFound
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWireDefaultsUsesSeedAndHubSink(t *testing.T) {
	cfg := config.Defaults()
	deps, cleanup, err := Wire(context.Background(), &cfg, slog.Default())
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, []string{"ws"}, deps.Notifier.Sinks())
	assert.Nil(t, deps.RateLimiter)
	assert.Nil(t, deps.EventLog)
	assert.Nil(t, deps.Exporter)
}

func TestCheckModeWithSeed(t *testing.T) {
	cfg := config.Defaults()
	cfg.Mode = "check"
	a := New(&cfg, slog.Default())
	defer a.Close()

	require.NoError(t, a.Run(context.Background()))
}

func TestHandlersOmitOptionalRoutes(t *testing.T) {
	cfg := config.Defaults()
	deps, cleanup, err := Wire(context.Background(), &cfg, slog.Default())
	require.NoError(t, err)
	defer cleanup()

	h := New(&cfg, slog.Default()).handlers(deps)
	assert.NotNil(t, h.Bets)
	assert.Nil(t, h.Events)
	assert.Nil(t, h.Ledger)
}

func TestServerModeSubscribeFailureStopsHub(t *testing.T) {
	cfg := config.Defaults()
	cfg.Server.Port = 0
	deps, cleanup, err := Wire(context.Background(), &cfg, slog.Default())
	require.NoError(t, err)
	defer cleanup()

	hubLog := &lockedBuffer{}
	deps.Hub = ws.NewHub(slog.New(slog.NewTextHandler(hubLog, nil)))
	deps.EventBus = redis.NewEventBus(unreachableBus{}, nil)

	done := make(chan error, 1)
	go func() {
		done <- New(&cfg, slog.Default()).ServerMode(context.Background(), deps)
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "subscribe event bus")
		assert.Contains(t, hubLog.String(), "hub stopped")
	case <-time.After(5 * time.Second):
		t.Fatal("server mode did not return after the subscription failed")
	}
}

func TestCheckModeCrossChecksLookups(t *testing.T) {
	cfg := config.Defaults()
	deps, cleanup, err := Wire(context.Background(), &cfg, slog.Default())
	require.NoError(t, err)
	defer cleanup()
	a := New(&cfg, slog.Default())

	src := newLookupSource()
	deps.Source = src
	deps.Catalog = catalog.NewCache(src, nil, catalog.Config{}, nil)
	require.NoError(t, a.CheckMode(context.Background(), deps))
	assert.Equal(t, 3, src.lookups)

	src = newLookupSource()
	src.teamNames["team-2"] = "Everton"
	deps.Source = src
	deps.Catalog = catalog.NewCache(src, nil, catalog.Config{}, nil)
	err = a.CheckMode(context.Background(), deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "team-2")

	src = newLookupSource()
	delete(src.teamNames, "team-1")
	deps.Source = src
	deps.Catalog = catalog.NewCache(src, nil, catalog.Config{}, nil)
	assert.ErrorIs(t, a.CheckMode(context.Background(), deps), domain.ErrNotFound)
}
