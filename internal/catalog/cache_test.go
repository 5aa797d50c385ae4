package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betledger/internal/domain"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeSource struct {
	mu         sync.Mutex
	teams      []domain.Team
	matches    []domain.Match
	teamsErr   error
	matchesErr error
	block      chan struct{}

	teamCalls  atomic.Int32
	matchCalls atomic.Int32
}

func (f *fakeSource) FetchAllTeams(ctx context.Context) ([]domain.Team, error) {
	f.teamCalls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.teamsErr != nil {
		return nil, f.teamsErr
	}
	return append([]domain.Team(nil), f.teams...), nil
}

func (f *fakeSource) FetchAllMatches(ctx context.Context) ([]domain.Match, error) {
	f.matchCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.matchesErr != nil {
		return nil, f.matchesErr
	}
	return append([]domain.Match(nil), f.matches...), nil
}

func (f *fakeSource) setErrors(teamsErr, matchesErr error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.teamsErr = teamsErr
	f.matchesErr = matchesErr
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func seedSource() *fakeSource {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return &fakeSource{
		teams: []domain.Team{
			{ID: "team-1", Name: "Manchester United"},
			{ID: "team-2", Name: "Liverpool"},
		},
		matches: []domain.Match{
			{ID: "match-2", HomeTeamID: "team-2", AwayTeamID: "team-1", MatchDate: base.Add(48 * time.Hour), Status: domain.MatchStatusScheduled},
			{ID: "match-1", HomeTeamID: "team-1", AwayTeamID: "team-2", MatchDate: base.Add(24 * time.Hour), Status: domain.MatchStatusScheduled},
		},
	}
}

func newTestCache(src domain.CatalogSource, clock *fakeClock, pub domain.EventPublisher) *Cache {
	return NewCache(src, pub, Config{
		TTL:             5 * time.Minute,
		FetchTimeout:    time.Second,
		FailureCooldown: 30 * time.Second,
		Now:             clock.Now,
	}, nil)
}

func TestRefreshPopulatesSnapshot(t *testing.T) {
	pub := &recordingPublisher{}
	c := newTestCache(seedSource(), newFakeClock(), pub)

	require.NoError(t, c.Refresh(context.Background()))

	matches := c.GetAllMatches()
	require.Len(t, matches, 2)
	assert.Equal(t, "match-1", matches[0].ID)
	assert.Equal(t, "match-2", matches[1].ID)

	m, ok := c.GetMatch("match-2")
	require.True(t, ok)
	assert.Equal(t, "team-2", m.HomeTeamID)

	assert.Equal(t, "Liverpool", c.GetTeamName("team-2"))
	assert.Equal(t, "Team team-99", c.GetTeamName("team-99"))
	assert.Equal(t, []domain.EventType{domain.EventCatalogRefreshed}, pub.types())

	st := c.Status()
	assert.True(t, st.Ready)
	assert.Equal(t, 2, st.Teams)
	assert.Equal(t, 2, st.Matches)
	assert.False(t, st.Stale)
}

func TestReadsBeforeFirstRefresh(t *testing.T) {
	c := newTestCache(seedSource(), newFakeClock(), nil)

	assert.Empty(t, c.GetAllMatches())
	assert.NotNil(t, c.GetAllMatches())
	_, ok := c.GetMatch("match-1")
	assert.False(t, ok)
	assert.Equal(t, "Team team-1", c.GetTeamName("team-1"))
	assert.Nil(t, c.Snapshot())
	assert.False(t, c.Status().Ready)
}

func TestRefreshFailureWithoutSnapshot(t *testing.T) {
	src := seedSource()
	src.setErrors(errors.New("connection refused"), nil)
	pub := &recordingPublisher{}
	c := newTestCache(src, newFakeClock(), pub)

	err := c.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
	assert.True(t, IsUnavailable(err))
	assert.Empty(t, c.GetAllMatches())
	assert.Equal(t, []domain.EventType{domain.EventCatalogRefreshFailed}, pub.types())
	assert.Contains(t, c.Status().LastError, "connection refused")
}

func TestRefreshIsAllOrNothing(t *testing.T) {
	src := seedSource()
	c := newTestCache(src, newFakeClock(), nil)
	require.NoError(t, c.Refresh(context.Background()))
	before := c.Snapshot()

	src.mu.Lock()
	src.teams = append(src.teams, domain.Team{ID: "team-3", Name: "Chelsea"})
	src.mu.Unlock()
	src.setErrors(nil, errors.New("boom"))

	err := c.Refresh(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrCatalogUnavailable)

	assert.Same(t, before, c.Snapshot())
	assert.Equal(t, "Team team-3", c.GetTeamName("team-3"))
	assert.Len(t, c.GetAllMatches(), 2)
}

func TestEnsureFreshHonoursTTL(t *testing.T) {
	src := seedSource()
	clock := newFakeClock()
	c := newTestCache(src, clock, nil)
	ctx := context.Background()

	require.NoError(t, c.EnsureFresh(ctx))
	assert.EqualValues(t, 1, src.teamCalls.Load())

	clock.Advance(4 * time.Minute)
	require.NoError(t, c.EnsureFresh(ctx))
	assert.EqualValues(t, 1, src.teamCalls.Load())

	// Exactly at the TTL the snapshot is still fresh.
	clock.Advance(time.Minute)
	assert.False(t, c.Status().Stale)
	require.NoError(t, c.EnsureFresh(ctx))
	assert.EqualValues(t, 1, src.teamCalls.Load())

	clock.Advance(time.Second)
	assert.True(t, c.Status().Stale)
	require.NoError(t, c.EnsureFresh(ctx))
	assert.EqualValues(t, 2, src.teamCalls.Load())
}

func TestEnsureFreshFailureCooldown(t *testing.T) {
	src := seedSource()
	clock := newFakeClock()
	c := newTestCache(src, clock, nil)
	ctx := context.Background()

	require.NoError(t, c.EnsureFresh(ctx))
	clock.Advance(6 * time.Minute)
	src.setErrors(errors.New("down"), nil)

	require.Error(t, c.EnsureFresh(ctx))
	assert.EqualValues(t, 2, src.teamCalls.Load())

	// Within the cooldown the stale snapshot is served without refetching.
	clock.Advance(10 * time.Second)
	require.NoError(t, c.EnsureFresh(ctx))
	assert.EqualValues(t, 2, src.teamCalls.Load())
	assert.Len(t, c.GetAllMatches(), 2)

	src.setErrors(nil, nil)
	clock.Advance(30 * time.Second)
	require.NoError(t, c.EnsureFresh(ctx))
	assert.EqualValues(t, 3, src.teamCalls.Load())
	assert.Empty(t, c.Status().LastError)
}

func TestEnsureFreshConcurrentCallersShareOneFetch(t *testing.T) {
	src := seedSource()
	src.block = make(chan struct{})
	c := newTestCache(src, newFakeClock(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.EnsureFresh(context.Background()))
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(src.block)
	wg.Wait()

	assert.EqualValues(t, 1, src.teamCalls.Load())
	assert.Len(t, c.GetAllMatches(), 2)
}

func TestCancelledCallerDoesNotFailSharedRefresh(t *testing.T) {
	src := seedSource()
	src.block = make(chan struct{})
	clock := newFakeClock()
	pub := &recordingPublisher{}
	c := newTestCache(src, clock, pub)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := c.EnsureFresh(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	close(src.block)
	clock.Advance(time.Second)

	require.NoError(t, c.EnsureFresh(context.Background()))
	assert.Len(t, c.GetAllMatches(), 2)
	assert.Equal(t, "Manchester United", c.GetTeamName("team-1"))
	assert.Empty(t, c.Status().LastError)
	assert.EqualValues(t, 1, src.teamCalls.Load())
	assert.Equal(t, []domain.EventType{domain.EventCatalogRefreshed}, pub.types())
}

func TestRefreshTimeout(t *testing.T) {
	src := seedSource()
	src.block = make(chan struct{})
	c := NewCache(src, nil, Config{FetchTimeout: 20 * time.Millisecond}, nil)

	err := c.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, domain.ErrCatalogUnavailable)
}

func TestPrePublishHookRunsBeforeSwap(t *testing.T) {
	c := newTestCache(seedSource(), newFakeClock(), nil)

	var visibleDuringHook *Snapshot
	var hookMatches int
	c.OnPrePublish(func(snap *Snapshot) {
		visibleDuringHook = c.Snapshot()
		hookMatches = len(snap.Matches())
	})

	require.NoError(t, c.Refresh(context.Background()))
	assert.Nil(t, visibleDuringHook)
	assert.Equal(t, 2, hookMatches)
}

func TestStaticSource(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	c := newTestCache(NewStaticSource(base), newFakeClock(), nil)
	require.NoError(t, c.Refresh(context.Background()))

	matches := c.GetAllMatches()
	require.Len(t, matches, 3)
	assert.Equal(t, "match-1", matches[0].ID)
	assert.Equal(t, base.Add(24*time.Hour), matches[0].MatchDate)
	assert.Equal(t, "Manchester United", c.GetTeamName(matches[0].HomeTeamID))
	assert.Equal(t, "Tottenham", c.GetTeamName("team-6"))
}
