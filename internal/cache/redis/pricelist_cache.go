package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mannco-trade/mannbot/internal/domain"
	"github.com/mannco-trade/mannbot/internal/tf2"
)

const (
	keyPriceKey    = "keyprice"
	pricelistKeyFm = "pricelist:%s"
)

// PricelistCache stores the current key price and per-SKU price entries in
// Redis hashes.
type PricelistCache struct {
	client *Client
	ttl    time.Duration
}

var _ domain.PricelistCache = (*PricelistCache)(nil)

// NewPricelistCache creates a pricelist cache. Entries expire after ttl; a
// zero ttl disables expiry.
func NewPricelistCache(client *Client, ttl time.Duration) *PricelistCache {
	return &PricelistCache{client: client, ttl: ttl}
}

// SetKeyPrice stores the current sell price of a key in refined metal.
func (c *PricelistCache) SetKeyPrice(ctx context.Context, price tf2.Currencies) error {
	rdb := c.client.Underlying()

	fields := map[string]any{
		"keys":  strconv.Itoa(price.Keys),
		"metal": strconv.FormatFloat(price.Metal, 'f', -1, 64),
		"ts":    strconv.FormatInt(time.Now().Unix(), 10),
	}

	if err := rdb.HSet(ctx, keyPriceKey, fields).Err(); err != nil {
		return fmt.Errorf("redis: set key price: %w", err)
	}
	if c.ttl > 0 {
		if err := rdb.Expire(ctx, keyPriceKey, c.ttl).Err(); err != nil {
			return fmt.Errorf("redis: expire key price: %w", err)
		}
	}
	return nil
}

// GetKeyPrice returns the cached key price, or domain.ErrNoKeyPrice when no
// price has been stored yet.
func (c *PricelistCache) GetKeyPrice(ctx context.Context) (tf2.Currencies, error) {
	vals, err := c.client.Underlying().HGetAll(ctx, keyPriceKey).Result()
	if err != nil {
		return tf2.Currencies{}, fmt.Errorf("redis: get key price: %w", err)
	}
	if len(vals) == 0 {
		return tf2.Currencies{}, domain.ErrNoKeyPrice
	}

	return parseCurrencies(vals, "keys", "metal")
}

// SetEntry stores the buy and sell prices for a SKU.
func (c *PricelistCache) SetEntry(ctx context.Context, sku string, entry domain.PriceEntry) error {
	rdb := c.client.Underlying()
	key := fmt.Sprintf(pricelistKeyFm, sku)

	fields := map[string]any{
		"buy_keys":   strconv.Itoa(entry.Buy.Keys),
		"buy_metal":  strconv.FormatFloat(entry.Buy.Metal, 'f', -1, 64),
		"sell_keys":  strconv.Itoa(entry.Sell.Keys),
		"sell_metal": strconv.FormatFloat(entry.Sell.Metal, 'f', -1, 64),
		"ts":         strconv.FormatInt(time.Now().Unix(), 10),
	}

	if err := rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("redis: set entry %s: %w", sku, err)
	}
	if c.ttl > 0 {
		if err := rdb.Expire(ctx, key, c.ttl).Err(); err != nil {
			return fmt.Errorf("redis: expire entry %s: %w", sku, err)
		}
	}
	return nil
}

// GetEntry returns the cached price entry for a SKU, or domain.ErrNotFound
// when the SKU is not priced.
func (c *PricelistCache) GetEntry(ctx context.Context, sku string) (domain.PriceEntry, error) {
	key := fmt.Sprintf(pricelistKeyFm, sku)

	vals, err := c.client.Underlying().HGetAll(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return domain.PriceEntry{}, fmt.Errorf("redis: get entry %s: %w", sku, err)
	}
	if len(vals) == 0 {
		return domain.PriceEntry{}, domain.ErrNotFound
	}

	buy, err := parseCurrencies(vals, "buy_keys", "buy_metal")
	if err != nil {
		return domain.PriceEntry{}, err
	}
	sell, err := parseCurrencies(vals, "sell_keys", "sell_metal")
	if err != nil {
		return domain.PriceEntry{}, err
	}

	return domain.PriceEntry{Buy: buy, Sell: sell}, nil
}

func parseCurrencies(vals map[string]string, keysField, metalField string) (tf2.Currencies, error) {
	keys, err := strconv.Atoi(vals[keysField])
	if err != nil {
		return tf2.Currencies{}, fmt.Errorf("redis: parse %s: %w", keysField, err)
	}
	metal, err := strconv.ParseFloat(vals[metalField], 64)
	if err != nil {
		return tf2.Currencies{}, fmt.Errorf("redis: parse %s: %w", metalField, err)
	}
	return tf2.Currencies{Keys: keys, Metal: metal}, nil
}
