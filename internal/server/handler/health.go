package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/betledger/internal/catalog"
)

// CatalogStatus reports the state of the catalog cache.
type CatalogStatus interface {
	Status() catalog.Status
}

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	catalog   CatalogStatus
	startedAt time.Time
	logger    *slog.Logger
}

// NewHealthHandler creates a HealthHandler with the provided logger.
func NewHealthHandler(cat CatalogStatus, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{catalog: cat, startedAt: time.Now().UTC(), logger: logger}
}

// HealthCheck reports liveness and catalog readiness. The service stays
// healthy without a catalog; reads simply return empty results.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":         "healthy",
		"service":        "betting-service",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	}
	if h.catalog != nil {
		body["catalog"] = h.catalog.Status()
	}
	writeJSON(w, http.StatusOK, body)
}
