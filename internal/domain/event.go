package domain

import (
	"context"
	"time"
)

// EventType names a domain event emitted by the core.
type EventType string

const (
	EventBetPlaced            EventType = "bet_placed"
	EventCatalogRefreshed     EventType = "catalog_refreshed"
	EventCatalogRefreshFailed EventType = "catalog_refresh_failed"
	EventLedgerExported       EventType = "ledger_exported"
)

// Event is a single fact recorded by the core for external consumers.
type Event struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Subject    string         `json:"subject"`
	Detail     map[string]any `json:"detail,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// EventSink receives events. A sink failure never affects the operation that
// produced the event.
type EventSink interface {
	Record(ctx context.Context, ev Event) error
	Name() string
}

// EventPublisher is what core components depend on to emit events.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event)
}
