package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// TradeLogStore persists completed trade offers. Listing order is the order
// profit accounting replays: chronological, which for this log is also
// insertion order.
type TradeLogStore interface {
	InsertBatch(ctx context.Context, trades []TradeRecord) error
	// ListAll returns the entire log in chronological order.
	ListAll(ctx context.Context) ([]TradeRecord, error)
	// List returns a page of the log, newest first, for API browsing.
	List(ctx context.Context, opts ListOpts) ([]TradeRecord, error)
	// ListBefore returns records received strictly before the cutoff, in
	// chronological order, for archival and trimming.
	ListBefore(ctx context.Context, before time.Time) ([]TradeRecord, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// OptionsStore persists the single live options document.
type OptionsStore interface {
	// Get returns the stored options, or DefaultOptions when none have been
	// saved yet.
	Get(ctx context.Context) (Options, error)
	Put(ctx context.Context, opts Options) error
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
