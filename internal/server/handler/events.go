package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// EventHandler serves the external event log.
type EventHandler struct {
	store  domain.EventLogStore
	logger *slog.Logger
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(store domain.EventLogStore, logger *slog.Logger) *EventHandler {
	return &EventHandler{store: store, logger: logger}
}

type listEventsResponse struct {
	Events []domain.Event `json:"events"`
}

// ListEvents returns recorded events, newest first.
// GET /api/events?type=bet_placed&since=...&until=...&limit=50&offset=0
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.List(r.Context(), parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list events failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []domain.Event{}
	}
	writeJSON(w, http.StatusOK, listEventsResponse{Events: events})
}
