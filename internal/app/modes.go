package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/betledger/internal/catalog"
	"github.com/alanyoungcy/betledger/internal/domain"
	"github.com/alanyoungcy/betledger/internal/server"
	"github.com/alanyoungcy/betledger/internal/server/handler"
)

// shutdownTimeout bounds HTTP drain and the final ledger export.
const shutdownTimeout = 10 * time.Second

// ServerMode warms the catalog, serves the HTTP API and WebSocket hub until
// ctx is cancelled, then exports the ledger when configured.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	// The notifier outlives the errgroup so shutdown events still reach sinks.
	notifyCtx, stopNotify := context.WithCancel(context.WithoutCancel(ctx))
	notifyDone := make(chan struct{})
	go func() {
		defer close(notifyDone)
		_ = deps.Notifier.Run(notifyCtx)
	}()
	defer func() {
		stopNotify()
		<-notifyDone
	}()

	// A failed warm-up is tolerated; reads retry after the cooldown.
	if err := deps.Catalog.Refresh(ctx); err != nil {
		a.logger.WarnContext(ctx, "catalog warm-up failed", slog.String("error", err.Error()))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Hub.Run(gctx)
	})
	if deps.EventBus != nil {
		// A failed subscription cancels gctx, which stops the hub and server.
		g.Go(func() error {
			events, err := deps.EventBus.Subscribe(gctx)
			if err != nil {
				return fmt.Errorf("server mode: subscribe event bus: %w", err)
			}
			deps.Hub.Bridge(gctx, events)
			return nil
		})
	}

	srv := server.NewServer(a.serverConfig(), a.handlers(deps), deps.RateLimiter, deps.Hub, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	err := g.Wait()

	if deps.Exporter != nil && a.cfg.S3.ExportOnShutdown {
		exportCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		res, exportErr := deps.Exporter.Export(exportCtx)
		if exportErr != nil {
			a.logger.Error("ledger export on shutdown failed", slog.String("error", exportErr.Error()))
		} else if res.Count > 0 {
			a.logger.Info("ledger exported on shutdown",
				slog.String("path", res.Path),
				slog.Int("bets", res.Count),
			)
		}
	}

	return err
}

// CheckMode performs one catalog refresh against the authority and reports
// what it found. It returns an error when the refresh fails.
func (a *App) CheckMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting check mode")

	if err := deps.Catalog.Refresh(ctx); err != nil {
		return fmt.Errorf("check mode: %w", err)
	}

	if lookup, ok := deps.Source.(domain.CatalogLookup); ok {
		if err := a.crossCheck(ctx, lookup, deps.Catalog.Snapshot()); err != nil {
			return fmt.Errorf("check mode: %w", err)
		}
	}

	st := deps.Catalog.Status()
	a.logger.InfoContext(ctx, "catalog check passed",
		slog.Int("teams", st.Teams),
		slog.Int("matches", st.Matches),
		slog.Int("odds_matches", deps.Odds.MatchCount()),
	)
	return nil
}

// crossCheck fetches the earliest match and its teams by id and compares them
// with the bulk listing in snap.
func (a *App) crossCheck(ctx context.Context, lookup domain.CatalogLookup, snap *catalog.Snapshot) error {
	if snap == nil {
		return nil
	}
	matches := snap.Matches()
	if len(matches) == 0 {
		return nil
	}
	want := matches[0]

	got, err := lookup.GetMatch(ctx, want.ID)
	if err != nil {
		return fmt.Errorf("lookup match %s: %w", want.ID, err)
	}
	if got.HomeTeamID != want.HomeTeamID || got.AwayTeamID != want.AwayTeamID {
		return fmt.Errorf("match %s: by-id lookup has %s vs %s, listing has %s vs %s",
			want.ID, got.HomeTeamID, got.AwayTeamID, want.HomeTeamID, want.AwayTeamID)
	}

	for _, id := range []string{want.HomeTeamID, want.AwayTeamID} {
		team, err := lookup.GetTeam(ctx, id)
		if err != nil {
			return fmt.Errorf("lookup team %s: %w", id, err)
		}
		if listed := snap.TeamName(id); team.Name != listed {
			return fmt.Errorf("team %s: by-id lookup has %q, listing has %q", id, team.Name, listed)
		}
	}

	a.logger.InfoContext(ctx, "authority lookups agree with listing",
		slog.String("match_id", want.ID),
	)
	return nil
}

func (a *App) serverConfig() server.Config {
	return server.Config{
		Port:          a.cfg.Server.Port,
		CORSOrigins:   a.cfg.Server.CORSOrigins,
		APIKey:        a.cfg.Server.APIKey,
		BetRateLimit:  a.cfg.Server.BetRateLimit,
		BetRateWindow: a.cfg.Server.BetRateWindow.Duration,
	}
}

func (a *App) handlers(deps *Dependencies) server.Handlers {
	h := server.Handlers{
		Health:  handler.NewHealthHandler(deps.Catalog, a.logger),
		Matches: handler.NewMatchHandler(deps.Betting, a.logger),
		Bets:    handler.NewBetHandler(deps.Betting, a.logger),
		Catalog: handler.NewCatalogHandler(deps.Catalog, a.logger),
	}
	if deps.EventLog != nil {
		h.Events = handler.NewEventHandler(deps.EventLog, a.logger)
	}
	if deps.Exporter != nil {
		h.Ledger = handler.NewLedgerHandler(deps.Exporter, a.logger)
	}
	return h
}
