// Package notify fans domain events out to external sinks (event log, bus,
// WebSocket clients, chat webhooks). Each sink can be limited to a subset of
// event types. Sink failures are logged and never reach the code that
// produced the event.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// DefaultQueueSize is the number of events buffered between Publish and the
// dispatch loop.
const DefaultQueueSize = 256

// dispatchTimeout bounds the time spent delivering one event to all sinks.
const dispatchTimeout = 15 * time.Second

type route struct {
	sink   domain.EventSink
	events map[domain.EventType]bool // allowed event types; empty means all
}

func (r route) accepts(t domain.EventType) bool {
	return len(r.events) == 0 || r.events[t]
}

// Notifier dispatches events to registered sinks. Publish is non-blocking:
// events are queued and delivered by Run.
type Notifier struct {
	mu     sync.RWMutex
	routes []route

	queue  chan domain.Event
	logger *slog.Logger
}

// NewNotifier creates a Notifier with an event queue of the given size. A
// non-positive size selects DefaultQueueSize.
func NewNotifier(queueSize int, logger *slog.Logger) *Notifier {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		queue:  make(chan domain.Event, queueSize),
		logger: logger.With(slog.String("component", "notifier")),
	}
}

// Register adds a sink. Only events whose type appears in events are
// forwarded to it; if events is empty, all event types pass.
func (n *Notifier) Register(sink domain.EventSink, events []string) {
	allowed := make(map[domain.EventType]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[domain.EventType(e)] = true
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route{sink: sink, events: allowed})
}

// Sinks returns the names of the registered sinks.
func (n *Notifier) Sinks() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	names := make([]string, 0, len(n.routes))
	for _, r := range n.routes {
		names = append(names, r.sink.Name())
	}
	return names
}

// Publish queues an event for delivery. When the queue is full the event is
// dropped and a warning is logged.
func (n *Notifier) Publish(ctx context.Context, ev domain.Event) {
	select {
	case n.queue <- ev:
	default:
		n.logger.WarnContext(ctx, "event queue full, dropping event",
			slog.String("event", string(ev.Type)),
			slog.String("subject", ev.Subject),
		)
	}
}

// Run delivers queued events until ctx is cancelled, then drains whatever is
// still buffered.
func (n *Notifier) Run(ctx context.Context) error {
	n.logger.InfoContext(ctx, "notifier started", slog.Int("sinks", len(n.Sinks())))
	for {
		select {
		case ev := <-n.queue:
			n.deliver(ctx, ev)
		case <-ctx.Done():
			n.drain()
			n.logger.Info("notifier stopped")
			return nil
		}
	}
}

func (n *Notifier) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()
	for {
		select {
		case ev := <-n.queue:
			_ = n.Dispatch(ctx, ev)
		default:
			return
		}
	}
}

func (n *Notifier) deliver(ctx context.Context, ev domain.Event) {
	dctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	_ = n.Dispatch(dctx, ev)
}

// Dispatch delivers an event synchronously to every sink that accepts its
// type. Errors from individual sinks are collected and returned as a
// combined error; one sink failing does not stop delivery to the rest.
func (n *Notifier) Dispatch(ctx context.Context, ev domain.Event) error {
	n.mu.RLock()
	routes := append([]route(nil), n.routes...)
	n.mu.RUnlock()

	var errs []string
	for _, r := range routes {
		if !r.accepts(ev.Type) {
			continue
		}
		if err := r.sink.Record(ctx, ev); err != nil {
			n.logger.ErrorContext(ctx, "sink failed",
				slog.String("sink", r.sink.Name()),
				slog.String("event", string(ev.Type)),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", r.sink.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "event delivered",
				slog.String("sink", r.sink.Name()),
				slog.String("event", string(ev.Type)),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sink(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

var _ domain.EventPublisher = (*Notifier)(nil)
