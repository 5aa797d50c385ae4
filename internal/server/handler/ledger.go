package handler

import (
	"context"
	"log/slog"
	"net/http"

	s3blob "github.com/alanyoungcy/betledger/internal/blob/s3"
	"github.com/alanyoungcy/betledger/internal/domain"
)

// LedgerExporter writes ledger snapshots to object storage.
type LedgerExporter interface {
	Export(ctx context.Context) (s3blob.ExportResult, error)
	ListExports(ctx context.Context) ([]domain.BlobInfo, error)
}

// LedgerHandler serves ledger export endpoints.
type LedgerHandler struct {
	exporter LedgerExporter
	logger   *slog.Logger
}

// NewLedgerHandler creates a LedgerHandler.
func NewLedgerHandler(exporter LedgerExporter, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{exporter: exporter, logger: logger}
}

// Export snapshots the ledger now.
// POST /api/ledger/export
func (h *LedgerHandler) Export(w http.ResponseWriter, r *http.Request) {
	res, err := h.exporter.Export(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: ledger export failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "ledger export failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListExports lists previous exports.
// GET /api/ledger/exports
func (h *LedgerHandler) ListExports(w http.ResponseWriter, r *http.Request) {
	infos, err := h.exporter.ListExports(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list exports failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to list exports")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exports": infos})
}
