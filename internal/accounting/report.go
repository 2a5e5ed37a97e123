package accounting

import (
	"math"

	"github.com/mannco-trade/mannbot/internal/domain"
	"github.com/mannco-trade/mannbot/internal/tf2"
)

// Baseline is the previously persisted running total that seeds a
// computation, so trimmed trade-log history never has to be replayed.
// MadeRef and OverpayRef are in refined metal.
type Baseline struct {
	MadeRef    float64
	OverpayRef float64
	Trades     int
}

// Report is the result of one profit computation. TradeProfit and
// OverpriceProfit are in scrap, rounded to the nearest whole unit.
type Report struct {
	TradeProfit     int64 `json:"trade_profit"`
	OverpriceProfit int64 `json:"overprice_profit"`
	TotalTrades     int   `json:"total_trades"`
}

// Compute replays the trade log in order and returns cumulative realized
// profit, overprice (markup) profit, and the accepted-trade count, with the
// baseline folded in.
//
// Per trade: offers not handled by us or not accepted are ignored entirely;
// accepted offers count toward TotalTrades even when their data is too broken
// to price. Gifts (nothing on our side) are priced at zero cost. Non-gift
// trades missing their valuation or price table are skipped as malformed.
// Currency-equivalent SKUs (per isCurrency) are money, not inventory, and
// never touch the tracker. A trade whose rate was never recorded is valued at
// the current key price.
//
// Each non-gift trade also contributes the spread between what the other side
// delivered and what we delivered to BOTH profit figures. That is deliberate:
// TradeProfit measures cost-basis realization plus negotiated spread, while
// OverpriceProfit isolates the spread alone.
func Compute(log []domain.TradeRecord, keyPrice tf2.Currencies, isCurrency func(sku string) bool, baseline Baseline) Report {
	made := tf2.ScrapFromRefined(baseline.MadeRef)
	overpay := tf2.ScrapFromRefined(baseline.OverpayRef)

	// No history at all: the baseline IS the answer. Returning zeros here
	// would silently erase everything accumulated before the log was
	// trimmed.
	if len(log) == 0 {
		return Report{
			TradeProfit:     int64(math.Round(made)),
			OverpriceProfit: int64(math.Round(overpay)),
			TotalTrades:     baseline.Trades,
		}
	}

	tracker := NewTracker()
	var tradeProfit, overpriceProfit float64
	totalTrades := 0

	for i := range log {
		trade := &log[i]
		if !(trade.HandledByUs && trade.IsAccepted) {
			continue
		}
		totalTrades++

		if trade.Dict == nil {
			// No items involved; should not happen, but old logs surprise.
			continue
		}
		isGift := trade.IsGift()
		if !isGift && trade.IsMalformed() {
			continue
		}

		rate := keyPrice.Metal
		if trade.Value != nil && trade.Value.Rate != 0 {
			rate = trade.Value.Rate
		}

		// Items we acquired.
		for sku, count := range trade.Dict.Their {
			if isCurrency(sku) {
				continue
			}
			var buy tf2.Currencies
			if !isGift {
				entry, ok := trade.Prices[sku]
				if !ok {
					// Not in the pricelist at trade time; skip the SKU.
					continue
				}
				buy = entry.Buy
			}
			tradeProfit += tracker.Purchase(sku, count, buy, rate)
		}

		// Items we gave up.
		for sku, count := range trade.Dict.Our {
			if isCurrency(sku) {
				continue
			}
			entry, ok := trade.Prices[sku]
			if !ok {
				continue
			}
			tradeProfit += tracker.Sale(sku, count, entry.Sell, rate)
		}

		if !isGift {
			spread := trade.Value.Their.ToScrap(rate) - trade.Value.Our.ToScrap(rate)
			tradeProfit += spread
			overpriceProfit += spread
		}
	}

	return Report{
		TradeProfit:     int64(math.Round(tradeProfit + made)),
		OverpriceProfit: int64(math.Round(overpriceProfit + overpay)),
		TotalTrades:     totalTrades,
	}
}
