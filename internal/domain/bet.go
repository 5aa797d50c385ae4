package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BetStatus tracks the settlement state of a bet. The core only ever creates
// active bets; the other states are set by settlement collaborators.
type BetStatus string

const (
	BetStatusActive BetStatus = "active"
	BetStatusWon    BetStatus = "won"
	BetStatusLost   BetStatus = "lost"
	BetStatusVoid   BetStatus = "void"
)

// Bet is a placed wager. Odds and PotentialWin are snapshots taken at
// placement and are never recomputed.
type Bet struct {
	ID           string          `json:"id"`
	MatchID      string          `json:"match_id"`
	BetType      BetType         `json:"bet_type"`
	Option       string          `json:"option"`
	Stake        decimal.Decimal `json:"stake"`
	Odds         decimal.Decimal `json:"odds"`
	PotentialWin decimal.Decimal `json:"potential_win"`
	PlacedAt     time.Time       `json:"placed_at"`
	Status       BetStatus       `json:"status"`
}

// PlaceBetRequest is the input to bet placement.
type PlaceBetRequest struct {
	MatchID string
	BetType BetType
	Option  string
	Stake   decimal.Decimal
}

// BetResult wraps the outcome of a placement attempt.
type BetResult struct {
	Success bool   `json:"success"`
	Bet     *Bet   `json:"bet"`
	Message string `json:"message"`
}
