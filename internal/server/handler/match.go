package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// BettingService defines the methods the match and bet handlers require from
// the service layer.
type BettingService interface {
	GetAllMatches(ctx context.Context) []domain.Match
	GetMatchOdds(ctx context.Context, matchID string) (domain.MatchOdds, error)
	GetOddsByType(ctx context.Context, matchID string, bt domain.BetType) ([]domain.OddsRow, error)
	PlaceBet(ctx context.Context, req domain.PlaceBetRequest) (domain.BetResult, error)
	GetBet(ctx context.Context, id string) (domain.Bet, error)
	GetAllBets(ctx context.Context) ([]domain.Bet, error)
	GetBetsForMatch(ctx context.Context, matchID string) ([]domain.Bet, error)
}

// MatchHandler serves match and odds endpoints.
type MatchHandler struct {
	svc    BettingService
	logger *slog.Logger
}

// NewMatchHandler creates a MatchHandler.
func NewMatchHandler(svc BettingService, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{svc: svc, logger: logger}
}

// ListMatches returns every match available for betting.
// GET /api/matches
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.GetAllMatches(r.Context()))
}

// GetMatchOdds returns the full odds sheet for a match.
// GET /api/matches/{id}/odds
func (h *MatchHandler) GetMatchOdds(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	odds, err := h.svc.GetMatchOdds(r.Context(), id)
	if err != nil {
		h.fail(w, r, id, err)
		return
	}
	writeJSON(w, http.StatusOK, odds)
}

// GetOddsByType returns the odds rows of one bet type for a match.
// GET /api/matches/{id}/odds/{bet_type}
func (h *MatchHandler) GetOddsByType(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	bt := domain.BetType(pathParam(r, "bet_type"))
	if !bt.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown bet type %q", bt))
		return
	}

	rows, err := h.svc.GetOddsByType(r.Context(), id, bt)
	if err != nil {
		h.fail(w, r, id, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GetBetsForMatch returns all bets placed on a match.
// GET /api/matches/{id}/bets
func (h *MatchHandler) GetBetsForMatch(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	bets, err := h.svc.GetBetsForMatch(r.Context(), id)
	if err != nil {
		h.fail(w, r, id, err)
		return
	}
	writeJSON(w, http.StatusOK, bets)
}

func (h *MatchHandler) fail(w http.ResponseWriter, r *http.Request, matchID string, err error) {
	status := statusFor(err)
	if status == http.StatusNotFound {
		writeError(w, status, fmt.Sprintf("Match with ID %s not found", matchID))
		return
	}
	h.logger.ErrorContext(r.Context(), "handler: match request failed",
		slog.String("match_id", matchID),
		slog.String("error", err.Error()),
	)
	writeError(w, status, "internal error")
}
