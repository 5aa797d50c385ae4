package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// ExportResult describes one ledger export.
type ExportResult struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
	Bytes int    `json:"bytes"`
}

// LedgerExporter snapshots the bet ledger to object storage as JSONL. The
// ledger itself is never modified and exports are never read back.
type LedgerExporter struct {
	writer domain.BlobWriter
	lister domain.BlobLister
	ledger domain.LedgerStore
	events domain.EventPublisher
	prefix string
	now    func() time.Time
	logger *slog.Logger
}

// NewLedgerExporter creates a LedgerExporter. lister and events may be nil.
func NewLedgerExporter(
	writer domain.BlobWriter,
	lister domain.BlobLister,
	ledger domain.LedgerStore,
	events domain.EventPublisher,
	prefix string,
	logger *slog.Logger,
) *LedgerExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerExporter{
		writer: writer,
		lister: lister,
		ledger: ledger,
		events: events,
		prefix: strings.Trim(prefix, "/"),
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.With(slog.String("component", "ledger_exporter")),
	}
}

// WithClock overrides the clock used to name export objects.
func (e *LedgerExporter) WithClock(now func() time.Time) *LedgerExporter {
	e.now = now
	return e
}

// Export writes every bet in the ledger to a new object. An empty ledger is
// not exported and yields a zero result.
func (e *LedgerExporter) Export(ctx context.Context) (ExportResult, error) {
	bets, err := e.ledger.GetAll(ctx)
	if err != nil {
		return ExportResult{}, fmt.Errorf("s3blob: export ledger query: %w", err)
	}
	if len(bets) == 0 {
		return ExportResult{}, nil
	}

	buf, err := marshalJSONL(bets)
	if err != nil {
		return ExportResult{}, fmt.Errorf("s3blob: export ledger marshal: %w", err)
	}

	at := e.now()
	key := e.exportPath(at)
	if int64(len(buf)) > minPartSize {
		err = e.writer.PutMultipart(ctx, key, bytes.NewReader(buf), minPartSize)
	} else {
		err = e.writer.Put(ctx, key, bytes.NewReader(buf), ContentTypeJSONL)
	}
	if err != nil {
		return ExportResult{}, fmt.Errorf("s3blob: export ledger upload: %w", err)
	}

	res := ExportResult{Path: key, Count: len(bets), Bytes: len(buf)}
	e.logger.InfoContext(ctx, "ledger exported",
		slog.String("path", res.Path),
		slog.Int("bets", res.Count),
		slog.Int("bytes", res.Bytes),
	)

	if e.events != nil {
		e.events.Publish(ctx, domain.Event{
			ID:      uuid.NewString(),
			Type:    domain.EventLedgerExported,
			Subject: res.Path,
			Detail: map[string]any{
				"count": res.Count,
				"bytes": res.Bytes,
			},
			OccurredAt: at,
		})
	}
	return res, nil
}

// ListExports returns previously written export objects.
func (e *LedgerExporter) ListExports(ctx context.Context) ([]domain.BlobInfo, error) {
	if e.lister == nil {
		return []domain.BlobInfo{}, nil
	}
	infos, err := e.lister.List(ctx, e.ledgerPrefix())
	if err != nil {
		return nil, fmt.Errorf("s3blob: list exports: %w", err)
	}
	return infos, nil
}

func (e *LedgerExporter) ledgerPrefix() string {
	if e.prefix == "" {
		return "ledger/"
	}
	return e.prefix + "/ledger/"
}

// exportPath builds the key for an export, partitioned by day:
//
//	{prefix}/ledger/2025/03/01/bets-1740830400.jsonl
func (e *LedgerExporter) exportPath(at time.Time) string {
	return path.Join(
		e.ledgerPrefix(),
		at.Format("2006/01/02"),
		fmt.Sprintf("bets-%d.jsonl", at.Unix()),
	)
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
