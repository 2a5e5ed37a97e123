package accounting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mannco-trade/mannbot/internal/domain"
	"github.com/mannco-trade/mannbot/internal/tf2"
)

var (
	testKeyPrice = tf2.Currencies{Metal: 60}
	noWeapons    = tf2.CurrencyPredicate(false, nil)
)

func accepted(offerID string) domain.TradeRecord {
	return domain.TradeRecord{
		OfferID:     offerID,
		HandledByUs: true,
		IsAccepted:  true,
	}
}

func TestComputeBaselineAdditivity(t *testing.T) {
	baseline := Baseline{MadeRef: 12, OverpayRef: 3, Trades: 7}

	for _, log := range [][]domain.TradeRecord{nil, {}} {
		got := Compute(log, testKeyPrice, noWeapons, baseline)
		assert.Equal(t, Report{
			TradeProfit:     108, // 12 ref
			OverpriceProfit: 27,  // 3 ref
			TotalTrades:     7,
		}, got)
	}
}

func TestComputeBuyThenSellRealizesSpread(t *testing.T) {
	buyTrade := accepted("1")
	buyTrade.Dict = &domain.ItemDict{
		Their: map[string]int{"161;3": 1},
		Our:   map[string]int{tf2.SKURefined: 2},
	}
	buyTrade.Prices = map[string]domain.PriceEntry{
		"161;3": {Buy: ref(2), Sell: ref(3)},
	}
	buyTrade.Value = &domain.TradeValue{Our: ref(2), Their: ref(2), Rate: 50}

	sellTrade := accepted("2")
	sellTrade.Dict = &domain.ItemDict{
		Their: map[string]int{tf2.SKURefined: 3},
		Our:   map[string]int{"161;3": 1},
	}
	sellTrade.Prices = buyTrade.Prices
	sellTrade.Value = &domain.TradeValue{Our: ref(3), Their: ref(3), Rate: 50}

	got := Compute([]domain.TradeRecord{buyTrade, sellTrade}, testKeyPrice, noWeapons, Baseline{})

	// Bought at 2 ref, sold at 3 ref: 9 scrap realized. Both trades traded
	// at stated value, so no overprice profit.
	assert.Equal(t, Report{TradeProfit: 9, OverpriceProfit: 0, TotalTrades: 2}, got)
}

func TestComputeOverpriceCountsTwice(t *testing.T) {
	trade := accepted("1")
	trade.Dict = &domain.ItemDict{
		Their: map[string]int{"30448;5": 1},
		Our:   map[string]int{tf2.SKURefined: 4},
	}
	trade.Prices = map[string]domain.PriceEntry{
		"30448;5": {Buy: ref(5), Sell: ref(6)},
	}
	// They delivered 6 ref of value for our 4 ref: 18 scrap of markup.
	trade.Value = &domain.TradeValue{Our: ref(4), Their: ref(6), Rate: 50}

	got := Compute([]domain.TradeRecord{trade}, testKeyPrice, noWeapons, Baseline{})

	// The spread lands in BOTH figures; the purchase itself realizes nothing.
	assert.Equal(t, int64(18), got.TradeProfit)
	assert.Equal(t, int64(18), got.OverpriceProfit)
}

func TestComputeCurrencyOnlyTradeIsNeutral(t *testing.T) {
	trade := accepted("1")
	trade.Dict = &domain.ItemDict{
		Their: map[string]int{tf2.SKUKey: 1},
		Our:   map[string]int{tf2.SKURefined: 50},
	}
	// A price table entry for the key must not matter; keys are money.
	trade.Prices = map[string]domain.PriceEntry{
		tf2.SKUKey: {Buy: ref(999), Sell: ref(999)},
	}
	trade.Value = &domain.TradeValue{
		Our:   ref(50),
		Their: tf2.Currencies{Keys: 1},
		Rate:  50,
	}

	got := Compute([]domain.TradeRecord{trade}, testKeyPrice, noWeapons, Baseline{})

	assert.Equal(t, Report{TradeProfit: 0, OverpriceProfit: 0, TotalTrades: 1}, got)
}

func TestComputeWeaponsAsCurrency(t *testing.T) {
	isCurrency := tf2.CurrencyPredicate(true, []string{"10;6"})

	trade := accepted("1")
	trade.Dict = &domain.ItemDict{
		Their: map[string]int{"10;6": 2},
		Our:   map[string]int{tf2.SKUScrap: 1},
	}
	trade.Prices = map[string]domain.PriceEntry{
		"10;6": {Buy: ref(1), Sell: ref(2)},
	}
	trade.Value = &domain.TradeValue{Our: ref(0.11), Their: ref(0.11), Rate: 50}

	got := Compute([]domain.TradeRecord{trade}, testKeyPrice, isCurrency, Baseline{})
	assert.Zero(t, got.TradeProfit)
}

func TestComputeGiftHandling(t *testing.T) {
	gift := accepted("1")
	gift.Dict = &domain.ItemDict{
		Their: map[string]int{"30911;5": 2},
		Our:   map[string]int{},
	}
	// No price table, no valuation: gifts need neither.

	got := Compute([]domain.TradeRecord{gift}, testKeyPrice, noWeapons, Baseline{})
	assert.Equal(t, Report{TradeProfit: 0, OverpriceProfit: 0, TotalTrades: 1}, got)

	// Selling a gifted item later realizes the full sale price, since its
	// cost basis was established at zero.
	sale := accepted("2")
	sale.Dict = &domain.ItemDict{
		Their: map[string]int{tf2.SKURefined: 4},
		Our:   map[string]int{"30911;5": 2},
	}
	sale.Prices = map[string]domain.PriceEntry{
		"30911;5": {Buy: ref(1), Sell: ref(2)},
	}
	sale.Value = &domain.TradeValue{Our: ref(4), Their: ref(4), Rate: 50}

	got = Compute([]domain.TradeRecord{gift, sale}, testKeyPrice, noWeapons, Baseline{})
	assert.Equal(t, int64(36), got.TradeProfit) // 2 units x 18 scrap
	assert.Equal(t, 2, got.TotalTrades)
}

func TestComputeSkipsUnpricedSKUsOnly(t *testing.T) {
	trade := accepted("1")
	trade.Dict = &domain.ItemDict{
		Their: map[string]int{"100;6": 1, "200;6": 1},
		Our:   map[string]int{tf2.SKURefined: 3},
	}
	// Only one of the two acquired SKUs has a pricelist entry.
	trade.Prices = map[string]domain.PriceEntry{
		"100;6": {Buy: ref(1), Sell: ref(2)},
	}
	trade.Value = &domain.TradeValue{Our: ref(1), Their: ref(2), Rate: 50}

	got := Compute([]domain.TradeRecord{trade}, testKeyPrice, noWeapons, Baseline{})

	// The unpriced SKU is dropped, everything else proceeds: the spread of
	// 1 ref still lands in both figures.
	assert.Equal(t, int64(9), got.TradeProfit)
	assert.Equal(t, int64(9), got.OverpriceProfit)
	assert.Equal(t, 1, got.TotalTrades)
}

func TestComputeSkipsMalformedButCountsThem(t *testing.T) {
	malformed := accepted("1")
	malformed.Dict = &domain.ItemDict{
		Their: map[string]int{"100;6": 1},
		Our:   map[string]int{tf2.SKURefined: 1},
	}
	// Non-gift with no valuation and no prices.

	noDict := accepted("2")

	rejected := domain.TradeRecord{OfferID: "3", HandledByUs: true, IsAccepted: false}

	got := Compute([]domain.TradeRecord{malformed, noDict, rejected}, testKeyPrice, noWeapons, Baseline{})

	// Malformed and itemless offers count once accepted; rejected ones never.
	assert.Equal(t, Report{TradeProfit: 0, OverpriceProfit: 0, TotalTrades: 2}, got)
}

func TestComputeDefaultsMissingRateToKeyPrice(t *testing.T) {
	trade := accepted("1")
	trade.Dict = &domain.ItemDict{
		Their: map[string]int{tf2.SKURefined: 1},
		Our:   map[string]int{"100;6": 1},
	}
	trade.Prices = map[string]domain.PriceEntry{
		"100;6": {Buy: ref(1), Sell: tf2.Currencies{Keys: 1}},
	}
	// Legacy record: valuation present but rate never recorded.
	trade.Value = &domain.TradeValue{
		Our:   tf2.Currencies{Keys: 1},
		Their: ref(0),
	}

	got := Compute([]domain.TradeRecord{trade}, testKeyPrice, noWeapons, Baseline{})

	// At the current key price of 60 ref, the key-denominated sale is 540
	// scrap (sold short, no realization) and the valuation spread is -540.
	assert.Equal(t, int64(-540), got.TradeProfit)
	assert.Equal(t, int64(-540), got.OverpriceProfit)
}

func TestComputeBaselineFoldsIntoNonEmptyLog(t *testing.T) {
	trade := accepted("1")
	trade.Dict = &domain.ItemDict{
		Their: map[string]int{"100;6": 1},
		Our:   map[string]int{tf2.SKURefined: 1},
	}
	trade.Prices = map[string]domain.PriceEntry{
		"100;6": {Buy: ref(1), Sell: ref(2)},
	}
	trade.Value = &domain.TradeValue{Our: ref(1), Their: ref(2), Rate: 50}

	baseline := Baseline{MadeRef: 10, OverpayRef: 2, Trades: 40}
	got := Compute([]domain.TradeRecord{trade}, testKeyPrice, noWeapons, baseline)

	// Fresh spread of 9 scrap on top of the 90/18 scrap baseline. The trade
	// count restarts with the live log; the baseline count only stands in
	// when there is no log at all.
	assert.Equal(t, int64(99), got.TradeProfit)
	assert.Equal(t, int64(27), got.OverpriceProfit)
	assert.Equal(t, 1, got.TotalTrades)
}
