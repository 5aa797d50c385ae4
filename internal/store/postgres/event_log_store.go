package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// EventLogStore implements domain.EventLogStore using PostgreSQL. It is also
// an event sink so it can be registered with the notifier directly.
type EventLogStore struct {
	pool *pgxpool.Pool
}

// NewEventLogStore creates a new EventLogStore backed by the given pool.
func NewEventLogStore(pool *pgxpool.Pool) *EventLogStore {
	return &EventLogStore{pool: pool}
}

// Append inserts an event. Re-recording an event id is a no-op.
func (s *EventLogStore) Append(ctx context.Context, ev domain.Event) error {
	var detailJSON []byte
	if len(ev.Detail) > 0 {
		var err error
		detailJSON, err = json.Marshal(ev.Detail)
		if err != nil {
			return fmt.Errorf("postgres: marshal event detail: %w", err)
		}
	}

	const query = `
		INSERT INTO event_log (id, event_type, subject, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`
	_, err := s.pool.Exec(ctx, query, ev.ID, string(ev.Type), ev.Subject, detailJSON, ev.OccurredAt)
	if err != nil {
		return fmt.Errorf("postgres: append event %s: %w", ev.Type, err)
	}
	return nil
}

// Record implements domain.EventSink.
func (s *EventLogStore) Record(ctx context.Context, ev domain.Event) error {
	return s.Append(ctx, ev)
}

// Name returns the sink identifier.
func (s *EventLogStore) Name() string {
	return "postgres"
}

// List returns events newest first with pagination and optional type and
// time filtering.
func (s *EventLogStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Event, error) {
	query, args := buildListQuery(opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.Event, 0)
	for rows.Next() {
		var (
			ev         domain.Event
			eventType  string
			detailJSON []byte
		)
		if err := rows.Scan(&ev.ID, &eventType, &ev.Subject, &detailJSON, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("postgres: scan event: %w", err)
		}
		ev.Type = domain.EventType(eventType)
		if detailJSON != nil {
			if err := json.Unmarshal(detailJSON, &ev.Detail); err != nil {
				return nil, fmt.Errorf("postgres: unmarshal event detail: %w", err)
			}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list events rows: %w", err)
	}
	return events, nil
}

func buildListQuery(opts domain.ListOpts) (string, []any) {
	query := `SELECT id, event_type, subject, detail, occurred_at FROM event_log WHERE 1=1`
	args := []any{}
	argIdx := 1

	if opts.Type != "" {
		query += fmt.Sprintf(" AND event_type = $%d", argIdx)
		args = append(args, string(opts.Type))
		argIdx++
	}
	if opts.Since != nil {
		query += fmt.Sprintf(" AND occurred_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND occurred_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY occurred_at DESC, seq DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}
	return query, args
}

var (
	_ domain.EventLogStore = (*EventLogStore)(nil)
	_ domain.EventSink     = (*EventLogStore)(nil)
)
