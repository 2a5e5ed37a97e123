package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mannco-trade/mannbot/internal/domain"
)

// OptionsStore implements domain.OptionsStore using a single-row JSONB table.
type OptionsStore struct {
	pool *pgxpool.Pool
}

// NewOptionsStore creates an OptionsStore backed by the given connection pool.
func NewOptionsStore(pool *pgxpool.Pool) *OptionsStore {
	return &OptionsStore{pool: pool}
}

// Get returns the stored live options. A bot that has never had its options
// customized gets the defaults rather than ErrNotFound; callers should not
// have to care whether the row exists yet.
func (s *OptionsStore) Get(ctx context.Context) (domain.Options, error) {
	var doc []byte
	err := s.pool.QueryRow(ctx, `SELECT document FROM bot_options WHERE id = 1`).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DefaultOptions(), nil
	}
	if err != nil {
		return domain.Options{}, fmt.Errorf("postgres: get options: %w", err)
	}

	var opts domain.Options
	if err := json.Unmarshal(doc, &opts); err != nil {
		return domain.Options{}, fmt.Errorf("postgres: decode options: %w", err)
	}
	return opts, nil
}

// Put replaces the live options document.
func (s *OptionsStore) Put(ctx context.Context, opts domain.Options) error {
	doc, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("postgres: encode options: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO bot_options (id, document, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = NOW()`,
		doc,
	)
	if err != nil {
		return fmt.Errorf("postgres: put options: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.OptionsStore = (*OptionsStore)(nil)
