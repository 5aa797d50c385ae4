package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// Catalog is the read side of the catalog cache the engine depends on.
type Catalog interface {
	EnsureFresh(ctx context.Context) error
	GetAllMatches() []domain.Match
	GetMatch(id string) (domain.Match, bool)
	GetTeamName(id string) string
}

// OddsBook serves generated odds rows.
type OddsBook interface {
	GetOddsForMatch(matchID string) []domain.OddsRow
	GetByType(matchID string, bt domain.BetType) []domain.OddsRow
	GetSpecific(matchID string, bt domain.BetType, option string) (domain.OddsRow, bool)
}

// BettingService validates and records bets against the cached catalog and
// the odds book.
type BettingService struct {
	catalog Catalog
	odds    OddsBook
	ledger  domain.LedgerStore
	events  domain.EventPublisher
	now     func() time.Time
	logger  *slog.Logger
}

// NewBettingService creates a BettingService with all required dependencies.
// events may be nil.
func NewBettingService(
	catalog Catalog,
	odds OddsBook,
	ledger domain.LedgerStore,
	events domain.EventPublisher,
	logger *slog.Logger,
) *BettingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BettingService{
		catalog: catalog,
		odds:    odds,
		ledger:  ledger,
		events:  events,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger,
	}
}

// WithClock overrides the clock used for placed_at timestamps.
func (s *BettingService) WithClock(now func() time.Time) *BettingService {
	s.now = now
	return s
}

// ensureFresh gives the catalog a chance to refresh. A failure is logged and
// the current snapshot is served.
func (s *BettingService) ensureFresh(ctx context.Context) {
	if err := s.catalog.EnsureFresh(ctx); err != nil {
		s.logger.WarnContext(ctx, "betting_service: catalog refresh failed, serving cached data",
			slog.String("error", err.Error()),
		)
	}
}

// GetAllMatches returns every match currently in the catalog.
func (s *BettingService) GetAllMatches(ctx context.Context) []domain.Match {
	s.ensureFresh(ctx)
	return s.catalog.GetAllMatches()
}

// GetMatchOdds returns the full odds sheet for a match with resolved team
// names, or domain.ErrMatchNotFound.
func (s *BettingService) GetMatchOdds(ctx context.Context, matchID string) (domain.MatchOdds, error) {
	s.ensureFresh(ctx)

	m, ok := s.catalog.GetMatch(matchID)
	if !ok {
		return domain.MatchOdds{}, fmt.Errorf("betting_service: match %s: %w", matchID, domain.ErrMatchNotFound)
	}
	odds := s.odds.GetOddsForMatch(matchID)
	if odds == nil {
		odds = []domain.OddsRow{}
	}
	return domain.MatchOdds{
		Match:        m,
		HomeTeamName: s.catalog.GetTeamName(m.HomeTeamID),
		AwayTeamName: s.catalog.GetTeamName(m.AwayTeamID),
		Odds:         odds,
	}, nil
}

// GetOddsByType returns the rows of one bet type for a match. An unknown
// match yields domain.ErrMatchNotFound; an unknown bet type yields an empty
// list.
func (s *BettingService) GetOddsByType(ctx context.Context, matchID string, bt domain.BetType) ([]domain.OddsRow, error) {
	s.ensureFresh(ctx)

	if _, ok := s.catalog.GetMatch(matchID); !ok {
		return nil, fmt.Errorf("betting_service: match %s: %w", matchID, domain.ErrMatchNotFound)
	}
	rows := s.odds.GetByType(matchID, bt)
	if rows == nil {
		rows = []domain.OddsRow{}
	}
	return rows, nil
}

// PlaceBet validates a request and records an active bet. Checks run in a
// fixed order: stake, match, selection. The returned error wraps the
// matching domain sentinel whenever Success is false.
func (s *BettingService) PlaceBet(ctx context.Context, req domain.PlaceBetRequest) (domain.BetResult, error) {
	if !req.Stake.IsPositive() {
		return domain.BetResult{
			Success: false,
			Message: "Stake must be greater than zero",
		}, fmt.Errorf("betting_service: stake %s: %w", req.Stake, domain.ErrInvalidStake)
	}

	s.ensureFresh(ctx)

	if _, ok := s.catalog.GetMatch(req.MatchID); !ok {
		return domain.BetResult{
			Success: false,
			Message: fmt.Sprintf("Match with ID %s not found", req.MatchID),
		}, fmt.Errorf("betting_service: match %s: %w", req.MatchID, domain.ErrMatchNotFound)
	}

	row, ok := s.odds.GetSpecific(req.MatchID, req.BetType, req.Option)
	if !ok {
		return domain.BetResult{
			Success: false,
			Message: fmt.Sprintf("No odds available for %s with option '%s'", req.BetType, req.Option),
		}, fmt.Errorf("betting_service: %s/%s on %s: %w", req.BetType, req.Option, req.MatchID, domain.ErrInvalidSelection)
	}

	bet := domain.Bet{
		ID:           uuid.NewString(),
		MatchID:      req.MatchID,
		BetType:      req.BetType,
		Option:       req.Option,
		Stake:        req.Stake,
		Odds:         row.Odds,
		PotentialWin: req.Stake.Mul(row.Odds),
		PlacedAt:     s.now(),
		Status:       domain.BetStatusActive,
	}

	if err := s.ledger.Place(ctx, bet); err != nil {
		return domain.BetResult{
			Success: false,
			Message: "Failed to record bet",
		}, fmt.Errorf("betting_service: place: %w", err)
	}

	s.logger.InfoContext(ctx, "betting_service: bet placed",
		slog.String("bet_id", bet.ID),
		slog.String("match_id", bet.MatchID),
		slog.String("bet_type", string(bet.BetType)),
		slog.String("option", bet.Option),
		slog.String("stake", bet.Stake.String()),
		slog.String("potential_win", bet.PotentialWin.String()),
	)

	if s.events != nil {
		s.events.Publish(ctx, domain.Event{
			ID:      uuid.NewString(),
			Type:    domain.EventBetPlaced,
			Subject: bet.ID,
			Detail: map[string]any{
				"match_id":      bet.MatchID,
				"bet_type":      string(bet.BetType),
				"option":        bet.Option,
				"stake":         bet.Stake.String(),
				"odds":          bet.Odds.String(),
				"potential_win": bet.PotentialWin.String(),
			},
			OccurredAt: bet.PlacedAt,
		})
	}

	return domain.BetResult{
		Success: true,
		Bet:     &bet,
		Message: "Bet placed successfully",
	}, nil
}

// GetBet returns a bet by id, or domain.ErrNotFound.
func (s *BettingService) GetBet(ctx context.Context, id string) (domain.Bet, error) {
	b, err := s.ledger.Get(ctx, id)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("betting_service: get bet: %w", err)
	}
	return b, nil
}

// GetAllBets returns every placed bet in placement order.
func (s *BettingService) GetAllBets(ctx context.Context) ([]domain.Bet, error) {
	bets, err := s.ledger.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("betting_service: get all bets: %w", err)
	}
	return bets, nil
}

// GetBetsForMatch returns the bets placed on a match. An unknown match
// yields domain.ErrMatchNotFound.
func (s *BettingService) GetBetsForMatch(ctx context.Context, matchID string) ([]domain.Bet, error) {
	s.ensureFresh(ctx)

	if _, ok := s.catalog.GetMatch(matchID); !ok {
		return nil, fmt.Errorf("betting_service: match %s: %w", matchID, domain.ErrMatchNotFound)
	}
	bets, err := s.ledger.GetForMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("betting_service: bets for match: %w", err)
	}
	return bets, nil
}

// TeamName resolves a team id to its display name.
func (s *BettingService) TeamName(id string) string {
	return s.catalog.GetTeamName(id)
}
