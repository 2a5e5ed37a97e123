package domain

import (
	"context"
	"time"

	"github.com/mannco-trade/mannbot/internal/tf2"
)

// RateLimiter limits how often a keyed action may run inside a time window.
type RateLimiter interface {
	// Allow reports whether another request under key is permitted, counting
	// it when allowed.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// PricelistCache provides fast access to the live pricelist: the current key
// price and per-SKU buy/sell prices pushed by the price feed.
type PricelistCache interface {
	SetKeyPrice(ctx context.Context, price tf2.Currencies) error
	// GetKeyPrice returns ErrNoKeyPrice when no key price has been cached.
	GetKeyPrice(ctx context.Context) (tf2.Currencies, error)
	SetEntry(ctx context.Context, sku string, entry PriceEntry) error
	// GetEntry returns ErrNotFound when the SKU has no cached price.
	GetEntry(ctx context.Context, sku string) (PriceEntry, error)
}
