// Package catalog keeps a locally cached, periodically refreshed copy of the
// team and match reference data owned by the catalog authority.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// Defaults applied when a Config field is zero.
const (
	DefaultTTL             = 5 * time.Minute
	DefaultFetchTimeout    = 5 * time.Second
	DefaultFailureCooldown = 30 * time.Second
)

// Config holds tunable parameters for the cache.
type Config struct {
	TTL             time.Duration
	FetchTimeout    time.Duration
	FailureCooldown time.Duration
	// Now overrides the wall clock, mainly for tests.
	Now func() time.Time
}

// Snapshot is an immutable view of the catalog. A new Snapshot is built on
// every successful refresh and swapped in whole.
type Snapshot struct {
	teams       map[string]domain.Team
	matches     map[string]domain.Match
	order       []string
	RefreshedAt time.Time
}

func newSnapshot(teams []domain.Team, matches []domain.Match, at time.Time) *Snapshot {
	s := &Snapshot{
		teams:       make(map[string]domain.Team, len(teams)),
		matches:     make(map[string]domain.Match, len(matches)),
		order:       make([]string, 0, len(matches)),
		RefreshedAt: at,
	}
	for _, t := range teams {
		s.teams[t.ID] = t
	}
	for _, m := range matches {
		if _, dup := s.matches[m.ID]; !dup {
			s.order = append(s.order, m.ID)
		}
		s.matches[m.ID] = m
	}
	sort.SliceStable(s.order, func(i, j int) bool {
		a, b := s.matches[s.order[i]], s.matches[s.order[j]]
		if !a.MatchDate.Equal(b.MatchDate) {
			return a.MatchDate.Before(b.MatchDate)
		}
		return a.ID < b.ID
	})
	return s
}

// Matches returns the snapshot's matches ordered by kickoff.
func (s *Snapshot) Matches() []domain.Match {
	out := make([]domain.Match, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.matches[id])
	}
	return out
}

// Team looks up a team by id.
func (s *Snapshot) Team(id string) (domain.Team, bool) {
	t, ok := s.teams[id]
	return t, ok
}

// TeamName resolves a team id against this snapshot.
func (s *Snapshot) TeamName(id string) string {
	t, ok := s.teams[id]
	return resolveDisplayName(id, t, ok)
}

// resolveDisplayName is the single policy for naming a team the catalog does
// not know: callers get a placeholder rather than an error.
func resolveDisplayName(id string, t domain.Team, ok bool) string {
	if ok && t.Name != "" {
		return t.Name
	}
	return "Team " + id
}

// PrePublishHook runs against a freshly fetched snapshot before it becomes
// visible to readers.
type PrePublishHook func(snap *Snapshot)

// Status describes the cache's refresh history.
type Status struct {
	Ready       bool      `json:"ready"`
	Teams       int       `json:"teams"`
	Matches     int       `json:"matches"`
	RefreshedAt time.Time `json:"refreshed_at,omitzero"`
	LastFailure time.Time `json:"last_failure,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
	Stale       bool      `json:"stale"`
}

// Cache is the CatalogCache. Reads never block on the network and never
// fail; EnsureFresh refreshes lazily when the snapshot is older than the TTL.
type Cache struct {
	source domain.CatalogSource
	events domain.EventPublisher
	logger *slog.Logger
	cfg    Config

	snap  atomic.Pointer[Snapshot]
	group singleflight.Group

	mu          sync.Mutex
	hooks       []PrePublishHook
	lastFailure time.Time
	lastErr     error
}

// NewCache creates an empty cache. events may be nil.
func NewCache(source domain.CatalogSource, events domain.EventPublisher, cfg Config, logger *slog.Logger) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.FailureCooldown < 0 {
		cfg.FailureCooldown = 0
	} else if cfg.FailureCooldown == 0 {
		cfg.FailureCooldown = DefaultFailureCooldown
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		source: source,
		events: events,
		logger: logger.With(slog.String("component", "catalog_cache")),
		cfg:    cfg,
	}
}

// OnPrePublish registers a hook run before each new snapshot is published.
func (c *Cache) OnPrePublish(h PrePublishHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, h)
}

// Refresh fetches teams and matches and swaps in a new snapshot only if both
// fetches succeed. On failure the previous snapshot stays in place.
// Concurrent callers share a single fetch.
func (c *Cache) Refresh(ctx context.Context) error {
	return c.shared(ctx, false)
}

// shared runs one refresh flight for all concurrent callers. The flight is
// detached from any single caller's cancellation and bounded only by the
// fetch timeout; a caller that gives up returns its own ctx error while the
// flight completes for everyone else.
func (c *Cache) shared(ctx context.Context, recheck bool) error {
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("refresh", func() (any, error) {
		// A flight that finished just before this one started may already
		// have refreshed the snapshot.
		if recheck && !c.needsRefresh() {
			return nil, nil
		}
		return nil, c.refresh(flightCtx)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("catalog: refresh: %w", ctx.Err())
	}
}

func (c *Cache) refresh(ctx context.Context) error {
	start := c.cfg.Now()

	fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	var (
		teams   []domain.Team
		matches []domain.Match
	)
	g, gctx := errgroup.WithContext(fetchCtx)
	g.Go(func() error {
		var err error
		teams, err = c.source.FetchAllTeams(gctx)
		if err != nil {
			return fmt.Errorf("fetch teams: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		matches, err = c.source.FetchAllMatches(gctx)
		if err != nil {
			return fmt.Errorf("fetch matches: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return c.recordFailure(ctx, err)
	}

	snap := newSnapshot(teams, matches, c.cfg.Now())

	c.mu.Lock()
	hooks := append([]PrePublishHook(nil), c.hooks...)
	c.mu.Unlock()
	for _, h := range hooks {
		h(snap)
	}

	c.snap.Store(snap)

	c.mu.Lock()
	c.lastErr = nil
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "catalog refreshed",
		slog.Int("teams", len(snap.teams)),
		slog.Int("matches", len(snap.order)),
		slog.Duration("took", c.cfg.Now().Sub(start)),
	)
	c.publish(ctx, domain.EventCatalogRefreshed, map[string]any{
		"teams":   len(snap.teams),
		"matches": len(snap.order),
	})
	return nil
}

func (c *Cache) recordFailure(ctx context.Context, err error) error {
	c.mu.Lock()
	c.lastFailure = c.cfg.Now()
	c.lastErr = err
	c.mu.Unlock()

	hasSnapshot := c.snap.Load() != nil
	if hasSnapshot {
		c.logger.WarnContext(ctx, "catalog refresh failed, serving previous snapshot",
			slog.String("error", err.Error()),
		)
	} else {
		c.logger.ErrorContext(ctx, "catalog refresh failed, no snapshot available",
			slog.String("error", err.Error()),
		)
	}
	c.publish(ctx, domain.EventCatalogRefreshFailed, map[string]any{
		"error":        err.Error(),
		"has_snapshot": hasSnapshot,
	})

	if !hasSnapshot {
		return fmt.Errorf("catalog: refresh: %w: %w", domain.ErrCatalogUnavailable, err)
	}
	return fmt.Errorf("catalog: refresh: %w", err)
}

// EnsureFresh refreshes the catalog when the snapshot is missing or its age
// exceeds the TTL. After a failed refresh, further attempts are suppressed for
// the failure cooldown and the current snapshot is served as is.
func (c *Cache) EnsureFresh(ctx context.Context) error {
	if !c.needsRefresh() {
		return nil
	}
	return c.shared(ctx, true)
}

func (c *Cache) needsRefresh() bool {
	now := c.cfg.Now()

	c.mu.Lock()
	lastFailure, lastErr := c.lastFailure, c.lastErr
	c.mu.Unlock()
	if lastErr != nil && now.Sub(lastFailure) < c.cfg.FailureCooldown {
		return false
	}

	snap := c.snap.Load()
	return snap == nil || now.Sub(snap.RefreshedAt) > c.cfg.TTL
}

// Snapshot returns the current snapshot, or nil before the first successful
// refresh.
func (c *Cache) Snapshot() *Snapshot {
	return c.snap.Load()
}

// GetAllMatches returns every cached match ordered by kickoff. It returns an
// empty slice when no snapshot exists.
func (c *Cache) GetAllMatches() []domain.Match {
	snap := c.snap.Load()
	if snap == nil {
		return []domain.Match{}
	}
	return snap.Matches()
}

// GetMatch looks up a cached match.
func (c *Cache) GetMatch(id string) (domain.Match, bool) {
	snap := c.snap.Load()
	if snap == nil {
		return domain.Match{}, false
	}
	m, ok := snap.matches[id]
	return m, ok
}

// GetTeamName resolves a team id to a display name. Unknown ids degrade to a
// placeholder.
func (c *Cache) GetTeamName(id string) string {
	snap := c.snap.Load()
	if snap == nil {
		return resolveDisplayName(id, domain.Team{}, false)
	}
	return snap.TeamName(id)
}

// Status reports counts and refresh history for health checks.
func (c *Cache) Status() Status {
	c.mu.Lock()
	st := Status{LastFailure: c.lastFailure}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	c.mu.Unlock()

	if snap := c.snap.Load(); snap != nil {
		st.Ready = true
		st.Teams = len(snap.teams)
		st.Matches = len(snap.order)
		st.RefreshedAt = snap.RefreshedAt
		st.Stale = c.cfg.Now().Sub(snap.RefreshedAt) > c.cfg.TTL
	}
	return st
}

func (c *Cache) publish(ctx context.Context, typ domain.EventType, detail map[string]any) {
	if c.events == nil {
		return
	}
	c.events.Publish(ctx, domain.Event{
		ID:         uuid.NewString(),
		Type:       typ,
		Subject:    "catalog",
		Detail:     detail,
		OccurredAt: c.cfg.Now(),
	})
}

// IsUnavailable reports whether err means no catalog data could be served.
func IsUnavailable(err error) bool {
	return errors.Is(err, domain.ErrCatalogUnavailable)
}
