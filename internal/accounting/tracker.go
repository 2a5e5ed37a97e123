// Package accounting implements the profit-accounting core: a
// weighted-average-cost inventory tracker and the aggregator that replays the
// trade log to produce cumulative profit figures. Everything in this package
// is pure computation; skip decisions, persistence, and I/O live with the
// callers.
package accounting

import "github.com/mannco-trade/mannbot/internal/tf2"

// bucket is a per-SKU running position: a unit count and the weighted-average
// unit price, in scrap. A bucket with count 0 carries no meaningful price.
type bucket struct {
	count int
	price float64
}

// merge folds quantity units at unitPrice into the bucket, recomputing the
// weighted average.
func (b *bucket) merge(quantity int, unitPrice float64) {
	b.price = (b.price*float64(b.count) + float64(quantity)*unitPrice) / float64(b.count+quantity)
	b.count += quantity
}

// Tracker maintains per-SKU cost-basis state across a stream of buy and sell
// events and reports the profit each event realizes. Stock holds items
// currently owned at their average purchase price; short holds items sold
// before they were ever bought, at their average sale price, waiting for
// future purchases to close the position.
//
// A Tracker belongs to a single computation: allocate one, replay the log,
// throw it away. It is not safe for concurrent use and is never persisted.
type Tracker struct {
	stock map[string]*bucket
	short map[string]*bucket
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		stock: make(map[string]*bucket),
		short: make(map[string]*bucket),
	}
}

// Purchase records buying quantity units of sku at the given unit price and
// returns the profit realized in scrap. A purchase first closes any open
// short position at the short bucket's average sale price; only the
// remainder, if any, is merged into stock at the converted purchase price.
// Establishing stock realizes nothing.
func (t *Tracker) Purchase(sku string, quantity int, price tf2.Currencies, rate float64) float64 {
	if quantity <= 0 {
		return 0
	}
	unit := price.ToScrap(rate)

	var profit float64
	if s, ok := t.short[sku]; ok && s.count > 0 {
		if s.count >= quantity {
			// The short position absorbs the whole purchase; nothing
			// reaches stock.
			s.count -= quantity
			return (s.price - unit) * float64(quantity)
		}
		closed := s.count
		s.count = 0
		profit += (s.price - unit) * float64(closed)
		quantity -= closed
	}

	if b, ok := t.stock[sku]; ok {
		b.merge(quantity, unit)
	} else {
		t.stock[sku] = &bucket{count: quantity, price: unit}
	}
	return profit
}

// Sale records selling quantity units of sku at the given unit price and
// returns the profit realized in scrap. A sale first draws down stock,
// realizing the spread against the stock average; any excess beyond what is
// owned is merged into the short bucket at the sale price and realizes
// nothing until a later purchase closes it.
func (t *Tracker) Sale(sku string, quantity int, price tf2.Currencies, rate float64) float64 {
	if quantity <= 0 {
		return 0
	}
	unit := price.ToScrap(rate)

	var profit float64
	if b, ok := t.stock[sku]; ok && b.count > 0 {
		if b.count >= quantity {
			b.count -= quantity
			return (unit - b.price) * float64(quantity)
		}
		profit += (unit - b.price) * float64(b.count)
		quantity -= b.count
		b.count = 0
	}

	if s, ok := t.short[sku]; ok {
		s.merge(quantity, unit)
	} else {
		t.short[sku] = &bucket{count: quantity, price: unit}
	}
	return profit
}

// Stock returns the owned count and weighted-average purchase price for sku.
// The price is meaningless when the count is 0.
func (t *Tracker) Stock(sku string) (count int, avgPrice float64) {
	if b, ok := t.stock[sku]; ok {
		return b.count, b.price
	}
	return 0, 0
}

// Short returns the over-sold count and weighted-average sale price for sku.
// The price is meaningless when the count is 0.
func (t *Tracker) Short(sku string) (count int, avgPrice float64) {
	if s, ok := t.short[sku]; ok {
		return s.count, s.price
	}
	return 0, 0
}
