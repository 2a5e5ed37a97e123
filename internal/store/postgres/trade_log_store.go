package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mannco-trade/mannbot/internal/domain"
)

// TradeLogStore implements domain.TradeLogStore using PostgreSQL. Item
// dictionaries, price tables, and valuations are stored as JSONB so that
// historical records survive schema evolution the same way the bot's old
// poll-data files did.
type TradeLogStore struct {
	pool *pgxpool.Pool
}

// NewTradeLogStore creates a TradeLogStore backed by the given connection pool.
func NewTradeLogStore(pool *pgxpool.Pool) *TradeLogStore {
	return &TradeLogStore{pool: pool}
}

const tradeSelectCols = `offer_id, handled_by_us, is_accepted, dict, prices, value, received_at`

func scanTradeRows(rows pgx.Rows) ([]domain.TradeRecord, error) {
	var trades []domain.TradeRecord
	for rows.Next() {
		var (
			t      domain.TradeRecord
			dict   []byte
			prices []byte
			value  []byte
		)
		if err := rows.Scan(
			&t.OfferID, &t.HandledByUs, &t.IsAccepted,
			&dict, &prices, &value, &t.ReceivedAt,
		); err != nil {
			return nil, err
		}
		if len(dict) > 0 {
			if err := json.Unmarshal(dict, &t.Dict); err != nil {
				return nil, fmt.Errorf("offer %s: decode dict: %w", t.OfferID, err)
			}
		}
		if len(prices) > 0 {
			if err := json.Unmarshal(prices, &t.Prices); err != nil {
				return nil, fmt.Errorf("offer %s: decode prices: %w", t.OfferID, err)
			}
		}
		if len(value) > 0 {
			if err := json.Unmarshal(value, &t.Value); err != nil {
				return nil, fmt.Errorf("offer %s: decode value: %w", t.OfferID, err)
			}
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func marshalNullable(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

// InsertBatch inserts multiple trade records efficiently using pgx Batch.
// Records already present (same offer_id) are silently skipped via
// ON CONFLICT DO NOTHING, so re-ingesting overlapping poll data is safe.
func (s *TradeLogStore) InsertBatch(ctx context.Context, trades []domain.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO trade_log (
			offer_id, handled_by_us, is_accepted, dict, prices, value, received_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (offer_id) DO NOTHING`

	for i := range trades {
		t := &trades[i]
		dict, err := marshalNullable(t.Dict)
		if err != nil {
			return fmt.Errorf("postgres: encode dict for offer %s: %w", t.OfferID, err)
		}
		var prices []byte
		if t.Prices != nil {
			if prices, err = json.Marshal(t.Prices); err != nil {
				return fmt.Errorf("postgres: encode prices for offer %s: %w", t.OfferID, err)
			}
		}
		value, err := marshalNullable(t.Value)
		if err != nil {
			return fmt.Errorf("postgres: encode value for offer %s: %w", t.OfferID, err)
		}
		batch.Queue(query, t.OfferID, t.HandledByUs, t.IsAccepted, dict, prices, value, t.ReceivedAt)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range trades {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert trade batch item %d: %w", i, err)
		}
	}
	return nil
}

// ListAll returns the entire trade log in chronological order. Profit
// accounting replays this slice front to back, so the ordering here IS the
// ordering cost bases are established in.
func (s *TradeLogStore) ListAll(ctx context.Context) ([]domain.TradeRecord, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trade_log ORDER BY received_at ASC, offer_id ASC`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trade log: %w", err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trade log: %w", err)
	}
	return trades, nil
}

// List returns a page of the log, newest first, for API browsing.
func (s *TradeLogStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.TradeRecord, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trade_log ORDER BY received_at DESC, offer_id DESC`
	args := []any{}
	argIdx := 1

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades page: %w", err)
	}
	defer rows.Close()

	trades, err := scanTradeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trades page: %w", err)
	}
	return trades, nil
}

// ListBefore returns all records received strictly before the given cutoff,
// in chronological order (for archiving and baseline roll-up).
func (s *TradeLogStore) ListBefore(ctx context.Context, before time.Time) ([]domain.TradeRecord, error) {
	query := `SELECT ` + tradeSelectCols + ` FROM trade_log WHERE received_at < $1 ORDER BY received_at ASC, offer_id ASC`
	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades before: %w", err)
	}
	defer rows.Close()
	return scanTradeRows(rows)
}

// DeleteBefore deletes all records received before the given cutoff. Returns
// the number deleted.
func (s *TradeLogStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM trade_log WHERE received_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete trades before: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Count returns the number of records in the log.
func (s *TradeLogStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trade_log`).Scan(&n); err != nil {
		return 0, fmt.Errorf("postgres: count trade log: %w", err)
	}
	return n, nil
}

// Compile-time interface check.
var _ domain.TradeLogStore = (*TradeLogStore)(nil)
