package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mannco-trade/mannbot/internal/domain"
)

// TradeArchiver serialises trimmed trade records to JSONL and uploads them
// to cold storage. Deleting the archived rows from Postgres is the caller's
// responsibility, to be done only after the upload has succeeded.
type TradeArchiver struct {
	writer domain.BlobWriter
	audit  domain.AuditStore
}

// NewTradeArchiver creates a TradeArchiver.
func NewTradeArchiver(writer domain.BlobWriter, audit domain.AuditStore) *TradeArchiver {
	return &TradeArchiver{
		writer: writer,
		audit:  audit,
	}
}

// ArchiveTrades uploads the given records as JSONL under
// archive/trades/YYYY-MM.jsonl, partitioned by the cutoff month, and records
// the event in the audit log. It returns the object key the archive was
// written to. An empty batch is a no-op.
func (a *TradeArchiver) ArchiveTrades(ctx context.Context, before time.Time, trades []domain.TradeRecord) (string, error) {
	if len(trades) == 0 {
		return "", nil
	}

	buf, err := marshalJSONL(trades)
	if err != nil {
		return "", fmt.Errorf("s3blob: archive trades marshal: %w", err)
	}

	path := archivePath("trades", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return "", fmt.Errorf("s3blob: archive trades upload: %w", err)
	}

	if err := a.audit.Log(ctx, "archive.trades", map[string]any{
		"path":   path,
		"count":  len(trades),
		"before": before.Format(time.RFC3339),
	}); err != nil {
		return path, fmt.Errorf("s3blob: archive trades audit log: %w", err)
	}

	return path, nil
}

// archivePath builds the object key for an archive file, partitioned by the
// year-month of the cutoff time.
//
//	archive/trades/2026-08.jsonl
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises records as newline-delimited JSON, one compact
// line per record.
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
