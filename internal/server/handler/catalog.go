package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/betledger/internal/catalog"
)

// CatalogRefresher forces a catalog refresh.
type CatalogRefresher interface {
	Refresh(ctx context.Context) error
	Status() catalog.Status
}

// CatalogHandler exposes manual catalog refresh.
type CatalogHandler struct {
	catalog CatalogRefresher
	logger  *slog.Logger
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(cat CatalogRefresher, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: cat, logger: logger}
}

// Refresh refetches the catalog regardless of the TTL. On failure the
// previous snapshot keeps serving and 503 is returned with the cache status.
// POST /api/catalog/refresh
func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Refresh(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":  err.Error(),
			"status": h.catalog.Status(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": h.catalog.Status(),
	})
}
