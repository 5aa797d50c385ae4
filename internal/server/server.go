package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/betledger/internal/domain"
	"github.com/alanyoungcy/betledger/internal/server/handler"
	"github.com/alanyoungcy/betledger/internal/server/middleware"
	"github.com/alanyoungcy/betledger/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// BetRateLimit caps POST /api/bets per client IP within BetRateWindow.
	// Zero disables the limit.
	BetRateLimit  int
	BetRateWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
// Events and Ledger are optional; their routes are only mounted when set.
type Handlers struct {
	Health  *handler.HealthHandler
	Matches *handler.MatchHandler
	Bets    *handler.BetHandler
	Catalog *handler.CatalogHandler
	Events  *handler.EventHandler
	Ledger  *handler.LedgerHandler
}

// Server is the HTTP + WebSocket front of the betting service.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// NewServer registers all routes and wraps them in the middleware chain.
// limiter and wsHub may be nil.
func NewServer(cfg Config, handlers Handlers, limiter domain.RateLimiter, wsHub *ws.Hub, logger *slog.Logger) *Server {
	logger = logger.With(slog.String("component", "server"))
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Catalog and odds.
	mux.HandleFunc("GET /api/matches", handlers.Matches.ListMatches)
	mux.HandleFunc("GET /api/matches/{id}/odds", handlers.Matches.GetMatchOdds)
	mux.HandleFunc("GET /api/matches/{id}/odds/{bet_type}", handlers.Matches.GetOddsByType)
	mux.HandleFunc("GET /api/matches/{id}/bets", handlers.Matches.GetBetsForMatch)
	mux.HandleFunc("POST /api/catalog/refresh", handlers.Catalog.Refresh)

	// Bets.
	var placeBet http.Handler = http.HandlerFunc(handlers.Bets.PlaceBet)
	if limiter != nil && cfg.BetRateLimit > 0 {
		placeBet = middleware.RateLimit(limiter, "bets", cfg.BetRateLimit, cfg.BetRateWindow, logger)(placeBet)
	}
	mux.Handle("POST /api/bets", placeBet)
	mux.HandleFunc("GET /api/bets", handlers.Bets.ListBets)
	mux.HandleFunc("GET /api/bets/{id}", handlers.Bets.GetBet)

	if handlers.Events != nil {
		mux.HandleFunc("GET /api/events", handlers.Events.ListEvents)
	}
	if handlers.Ledger != nil {
		mux.HandleFunc("POST /api/ledger/export", handlers.Ledger.Export)
		mux.HandleFunc("GET /api/ledger/exports", handlers.Ledger.ListExports)
	}

	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey, "/api/health")(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		handler:    h,
		logger:     logger,
	}
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Addr returns the listen address.
func (s *Server) Addr() string { return s.httpServer.Addr }

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
