package domain

import (
	"time"

	"github.com/mannco-trade/mannbot/internal/tf2"
)

// ItemDict maps SKU to item count for both sides of an exchange. Their is
// what the bot received, Our is what the bot gave up.
type ItemDict struct {
	Our   map[string]int `json:"our"`
	Their map[string]int `json:"their"`
}

// PriceEntry holds the pricelist prices a trade was evaluated against at the
// time it was accepted.
type PriceEntry struct {
	Buy  tf2.Currencies `json:"buy"`
	Sell tf2.Currencies `json:"sell"`
}

// TradeValue records the total value each side delivered plus the
// metal-per-key rate in effect when the trade happened. Rate 0 means the
// record predates rate tracking and the current key price applies.
type TradeValue struct {
	Our   tf2.Currencies `json:"our"`
	Their tf2.Currencies `json:"their"`
	Rate  float64        `json:"rate"`
}

// TradeRecord is one completed trade offer as persisted in the trade log.
// Dict, Prices, and Value are optional: historical logs contain partially
// written records and the profit aggregator skips what it cannot interpret.
type TradeRecord struct {
	OfferID     string                `json:"offer_id"`
	HandledByUs bool                  `json:"handled_by_us"`
	IsAccepted  bool                  `json:"is_accepted"`
	Dict        *ItemDict             `json:"dict,omitempty"`
	Prices      map[string]PriceEntry `json:"prices,omitempty"`
	Value       *TradeValue           `json:"value,omitempty"`
	ReceivedAt  time.Time             `json:"received_at"`
}

// IsGift reports whether the trade gave away nothing on our side. Gifts
// carry no cost basis and no valuation requirement.
func (t *TradeRecord) IsGift() bool {
	return t.Dict != nil && len(t.Dict.Our) == 0
}

// IsMalformed reports whether a non-gift trade is missing the valuation or
// price table it needs for profit accounting. Malformed trades are counted
// but contribute nothing.
func (t *TradeRecord) IsMalformed() bool {
	if t.Dict == nil || t.IsGift() {
		return false
	}
	return t.Value == nil || len(t.Prices) == 0
}
