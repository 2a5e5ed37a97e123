package accounting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mannco-trade/mannbot/internal/tf2"
)

const testRate = 50.0

// ref builds a metal-only amount; at any rate, n ref converts to n*9 scrap.
func ref(metal float64) tf2.Currencies {
	return tf2.Currencies{Metal: metal}
}

func TestTrackerWeightedAverage(t *testing.T) {
	tr := NewTracker()

	// 2 units at 1 ref (9 scrap), then 1 unit at 4 ref (36 scrap).
	p1 := tr.Purchase("100;6", 2, ref(1), testRate)
	p2 := tr.Purchase("100;6", 1, ref(4), testRate)

	// Establishing cost basis realizes nothing.
	assert.Zero(t, p1)
	assert.Zero(t, p2)

	count, avg := tr.Stock("100;6")
	assert.Equal(t, 3, count)
	assert.InDelta(t, (2*9.0+1*36.0)/3, avg, 1e-9) // 18 scrap
}

func TestTrackerRoundTripIsZero(t *testing.T) {
	tr := NewTracker()

	buy := tr.Purchase("200;6", 4, ref(2), testRate)
	sell := tr.Sale("200;6", 4, ref(2), testRate)

	assert.Zero(t, buy+sell)
	count, _ := tr.Stock("200;6")
	assert.Zero(t, count)
}

func TestTrackerSaleRealizesSpreadAgainstStock(t *testing.T) {
	tr := NewTracker()

	tr.Purchase("300;6", 2, ref(2), testRate) // basis 18 scrap
	profit := tr.Sale("300;6", 2, ref(3), testRate)

	assert.InDelta(t, (27.0-18.0)*2, profit, 1e-9)
}

func TestTrackerShortClosing(t *testing.T) {
	tr := NewTracker()

	// Sold 3 never-bought units at 5 ref, then bought 3 at 2 ref.
	sale := tr.Sale("400;6", 3, ref(5), testRate)
	assert.Zero(t, sale)

	profit := tr.Purchase("400;6", 3, ref(2), testRate)
	assert.InDelta(t, (45.0-18.0)*3, profit, 1e-9)

	shortCount, _ := tr.Short("400;6")
	stockCount, _ := tr.Stock("400;6")
	assert.Zero(t, shortCount)
	// Closing exactly adds nothing to stock.
	assert.Zero(t, stockCount)
}

func TestTrackerPartialShortClosing(t *testing.T) {
	tr := NewTracker()

	tr.Sale("500;6", 5, ref(4), testRate)                // short 5 @ 36 scrap
	profit := tr.Purchase("500;6", 3, ref(1), testRate)  // closes 3

	assert.InDelta(t, (36.0-9.0)*3, profit, 1e-9)

	shortCount, shortAvg := tr.Short("500;6")
	assert.Equal(t, 2, shortCount)
	assert.InDelta(t, 36.0, shortAvg, 1e-9)
	stockCount, _ := tr.Stock("500;6")
	assert.Zero(t, stockCount)
}

func TestTrackerPurchaseBeyondShortReachesStock(t *testing.T) {
	tr := NewTracker()

	tr.Sale("600;6", 2, ref(3), testRate)               // short 2 @ 27
	profit := tr.Purchase("600;6", 5, ref(1), testRate) // closes 2, stocks 3

	assert.InDelta(t, (27.0-9.0)*2, profit, 1e-9)

	shortCount, _ := tr.Short("600;6")
	assert.Zero(t, shortCount)
	stockCount, stockAvg := tr.Stock("600;6")
	assert.Equal(t, 3, stockCount)
	assert.InDelta(t, 9.0, stockAvg, 1e-9)
}

func TestTrackerSaleBeyondStockGoesShort(t *testing.T) {
	tr := NewTracker()

	tr.Purchase("700;6", 2, ref(1), testRate)       // stock 2 @ 9
	profit := tr.Sale("700;6", 5, ref(2), testRate) // draws 2, shorts 3 @ 18

	// Profit realized only on the stock-covered portion.
	assert.InDelta(t, (18.0-9.0)*2, profit, 1e-9)

	stockCount, _ := tr.Stock("700;6")
	assert.Zero(t, stockCount)
	shortCount, shortAvg := tr.Short("700;6")
	assert.Equal(t, 3, shortCount)
	assert.InDelta(t, 18.0, shortAvg, 1e-9)
}

func TestTrackerShortAverageMergesAcrossOversells(t *testing.T) {
	tr := NewTracker()

	tr.Sale("800;6", 1, ref(2), testRate) // short 1 @ 18
	tr.Sale("800;6", 3, ref(4), testRate) // short 4 @ (18+3*36)/4

	count, avg := tr.Short("800;6")
	assert.Equal(t, 4, count)
	assert.InDelta(t, (18.0+3*36.0)/4, avg, 1e-9)
}

func TestTrackerZeroQuantityIsNoOp(t *testing.T) {
	tr := NewTracker()

	assert.Zero(t, tr.Purchase("900;6", 0, ref(5), testRate))
	assert.Zero(t, tr.Sale("900;6", 0, ref(5), testRate))

	count, _ := tr.Stock("900;6")
	assert.Zero(t, count)
	count, _ = tr.Short("900;6")
	assert.Zero(t, count)
}

func TestTrackerKeyedPricesUseRate(t *testing.T) {
	tr := NewTracker()

	// 1 key at rate 50 ref/key is 450 scrap.
	tr.Purchase("1000;6", 1, tf2.Currencies{Keys: 1}, testRate)
	_, avg := tr.Stock("1000;6")
	assert.InDelta(t, 450.0, avg, 1e-9)
}
