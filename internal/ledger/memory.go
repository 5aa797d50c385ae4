// Package ledger holds placed bets in process memory.
package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// MemoryStore is an append-only, process-resident domain.LedgerStore. Bets
// are kept in placement order; there is no update or delete.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]int
	bets []domain.Bet
}

// NewMemoryStore creates an empty ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID: make(map[string]int),
	}
}

// Place appends a bet. Reusing an id returns domain.ErrAlreadyExists.
func (s *MemoryStore) Place(_ context.Context, bet domain.Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[bet.ID]; ok {
		return fmt.Errorf("ledger: place %s: %w", bet.ID, domain.ErrAlreadyExists)
	}
	s.byID[bet.ID] = len(s.bets)
	s.bets = append(s.bets, bet)
	return nil
}

// Get returns a bet by id, or domain.ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, id string) (domain.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return domain.Bet{}, fmt.Errorf("ledger: get %s: %w", id, domain.ErrNotFound)
	}
	return s.bets[idx], nil
}

// GetAll returns every bet in placement order.
func (s *MemoryStore) GetAll(_ context.Context) ([]domain.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Bet, len(s.bets))
	copy(out, s.bets)
	return out, nil
}

// GetForMatch returns the bets placed on one match in placement order.
func (s *MemoryStore) GetForMatch(_ context.Context, matchID string) ([]domain.Bet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Bet, 0)
	for _, b := range s.bets {
		if b.MatchID == matchID {
			out = append(out, b)
		}
	}
	return out, nil
}

// Count returns the number of bets in the ledger.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bets), nil
}

var _ domain.LedgerStore = (*MemoryStore)(nil)
