package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// Channel and stream names used for domain events.
const (
	EventChannelPrefix  = "events:"
	EventChannelPattern = EventChannelPrefix + "*"
	EventStream         = "events"
)

// listPageSize is the number of stream entries fetched per XREVRANGE call.
const listPageSize = 200

// EventChannel returns the pub/sub channel for an event type.
func EventChannel(t domain.EventType) string {
	return EventChannelPrefix + string(t)
}

// EventBus is an event sink that publishes each event on its per-type
// channel and appends it to the shared event stream.
type EventBus struct {
	bus    domain.SignalBus
	logger *slog.Logger
}

// NewEventBus creates an EventBus on top of a SignalBus.
func NewEventBus(bus domain.SignalBus, logger *slog.Logger) *EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBus{
		bus:    bus,
		logger: logger.With(slog.String("component", "event_bus")),
	}
}

// Record publishes ev to events:{type} and appends it to the events stream.
func (b *EventBus) Record(ctx context.Context, ev domain.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("redis: marshal event: %w", err)
	}
	if err := b.bus.Publish(ctx, EventChannel(ev.Type), payload); err != nil {
		return err
	}
	return b.bus.StreamAppend(ctx, EventStream, payload)
}

// Name returns the sink identifier.
func (b *EventBus) Name() string {
	return "redis"
}

// Subscribe streams events published by any process on the bus until ctx is
// cancelled. Payloads that do not decode are logged and skipped.
func (b *EventBus) Subscribe(ctx context.Context) (<-chan domain.Event, error) {
	raw, err := b.bus.Subscribe(ctx, EventChannelPattern)
	if err != nil {
		return nil, err
	}

	out := make(chan domain.Event, 64)
	go func() {
		defer close(out)
		for payload := range raw {
			var ev domain.Event
			if err := json.Unmarshal(payload, &ev); err != nil {
				b.logger.WarnContext(ctx, "undecodable event on bus",
					slog.String("error", err.Error()),
				)
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Append implements domain.EventLogStore.
func (b *EventBus) Append(ctx context.Context, ev domain.Event) error {
	return b.Record(ctx, ev)
}

// List serves the event log from the stream, newest first. Only the capped
// window the stream retains is visible.
func (b *EventBus) List(ctx context.Context, opts domain.ListOpts) ([]domain.Event, error) {
	want := opts.Offset + opts.Limit
	if opts.Limit <= 0 {
		want = -1
	}

	var (
		matched []domain.Event
		before  string
	)
	for want < 0 || len(matched) < want {
		page, err := b.bus.StreamRange(ctx, EventStream, before, listPageSize)
		if err != nil {
			return nil, err
		}
		for _, m := range page {
			var ev domain.Event
			if err := json.Unmarshal(m.Payload, &ev); err != nil {
				b.logger.WarnContext(ctx, "undecodable event in stream",
					slog.String("id", m.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			if matchesOpts(ev, opts) {
				matched = append(matched, ev)
			}
		}
		if len(page) < listPageSize {
			break
		}
		before = page[len(page)-1].ID
	}

	if opts.Offset >= len(matched) {
		return []domain.Event{}, nil
	}
	matched = matched[opts.Offset:]
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func matchesOpts(ev domain.Event, opts domain.ListOpts) bool {
	if opts.Type != "" && ev.Type != opts.Type {
		return false
	}
	if opts.Since != nil && ev.OccurredAt.Before(*opts.Since) {
		return false
	}
	if opts.Until != nil && ev.OccurredAt.After(*opts.Until) {
		return false
	}
	return true
}

var (
	_ domain.EventSink     = (*EventBus)(nil)
	_ domain.EventLogStore = (*EventBus)(nil)
)
