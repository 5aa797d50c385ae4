package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
	// Type restricts event queries to one event type when non-empty.
	Type EventType
}

// LedgerStore is the append-only collection of placed bets. It exposes no
// update or delete.
type LedgerStore interface {
	Place(ctx context.Context, bet Bet) error
	Get(ctx context.Context, id string) (Bet, error)
	GetAll(ctx context.Context) ([]Bet, error)
	GetForMatch(ctx context.Context, matchID string) ([]Bet, error)
	Count(ctx context.Context) (int, error)
}

// EventLogStore persists an append-only log of domain events.
type EventLogStore interface {
	Append(ctx context.Context, ev Event) error
	List(ctx context.Context, opts ListOpts) ([]Event, error)
}
