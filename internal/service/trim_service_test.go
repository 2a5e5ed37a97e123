package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mannco-trade/mannbot/internal/domain"
	"github.com/mannco-trade/mannbot/internal/tf2"
)

func newTrimFixture() (*TrimService, *ProfitService, *fakeTradeLogStore, *fakeOptionsStore, *fakePricelistCache, *fakeArchiver, *fakeAuditStore) {
	trades := &fakeTradeLogStore{}
	options := &fakeOptionsStore{}
	prices := &fakePricelistCache{}
	archiver := &fakeArchiver{}
	audit := &fakeAuditStore{}

	trim := NewTrimService(trades, options, prices, archiver, audit, silentNotifier(), testLogger())
	profit := NewProfitService(trades, options, prices, silentNotifier(), testLogger())
	return trim, profit, trades, options, prices, archiver, audit
}

// spreadTrade carries no tracked items, only a valuation spread, so its
// profit contribution is independent of inventory state.
func spreadTrade(offerID string, spreadRef float64, at time.Time) domain.TradeRecord {
	return domain.TradeRecord{
		OfferID:     offerID,
		HandledByUs: true,
		IsAccepted:  true,
		Dict: &domain.ItemDict{
			Our:   map[string]int{tf2.SKURefined: 1},
			Their: map[string]int{tf2.SKURefined: 1},
		},
		Prices: map[string]domain.PriceEntry{
			tf2.SKURefined: {},
		},
		Value: &domain.TradeValue{
			Our:   tf2.Currencies{Metal: 1},
			Their: tf2.Currencies{Metal: 1 + spreadRef},
			Rate:  60,
		},
		ReceivedAt: at,
	}
}

func TestTrimBeforeEmptyLogIsNoop(t *testing.T) {
	trim, _, _, options, _, archiver, _ := newTrimFixture()

	deleted, err := trim.TrimBefore(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Empty(t, archiver.archived)
	assert.Equal(t, 0, options.puts)
}

func TestTrimFoldsPrefixIntoBaseline(t *testing.T) {
	trim, _, trades, options, prices, archiver, audit := newTrimFixture()
	require.NoError(t, prices.SetKeyPrice(context.Background(), tf2.Currencies{Metal: 60}))

	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, trades.InsertBatch(context.Background(), []domain.TradeRecord{
		buyTrade("old-1", 1, 2, cutoff.Add(-48*time.Hour)),
		sellTrade("old-2", 1, 2, cutoff.Add(-24*time.Hour)),
		spreadTrade("new-1", 2, cutoff.Add(24*time.Hour)),
	}))

	deleted, err := trim.TrimBefore(context.Background(), cutoff)
	require.NoError(t, err)

	assert.Equal(t, int64(2), deleted)
	assert.Len(t, archiver.archived, 2)
	assert.Equal(t, "archive/trades/2026-08.jsonl", archiver.path)

	// The prefix realized 9 scrap = 1 ref.
	stored, err := options.Get(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1, stored.Statistics.LastTotalProfitMadeInRef, 1e-9)
	assert.InDelta(t, 0, stored.Statistics.LastTotalProfitOverpayInRef, 1e-9)
	assert.Equal(t, 2, stored.Statistics.LastTotalTrades)

	remaining, err := trades.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "new-1", remaining[0].OfferID)

	assert.Contains(t, audit.events, "trim_complete")
}

func TestTrimAccumulatesAcrossRuns(t *testing.T) {
	trim, _, trades, options, prices, _, _ := newTrimFixture()
	require.NoError(t, prices.SetKeyPrice(context.Background(), tf2.Currencies{Metal: 60}))

	seed := domain.DefaultOptions()
	seed.Statistics = domain.Statistics{
		LastTotalProfitMadeInRef: 5,
		LastTotalTrades:          10,
	}
	require.NoError(t, options.Put(context.Background(), seed))

	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, trades.InsertBatch(context.Background(), []domain.TradeRecord{
		buyTrade("old-1", 1, 2, cutoff.Add(-48*time.Hour)),
		sellTrade("old-2", 1, 2, cutoff.Add(-24*time.Hour)),
	}))

	_, err := trim.TrimBefore(context.Background(), cutoff)
	require.NoError(t, err)

	stored, err := options.Get(context.Background())
	require.NoError(t, err)
	// Old baseline 5 ref plus the prefix's 1 ref.
	assert.InDelta(t, 6, stored.Statistics.LastTotalProfitMadeInRef, 1e-9)
	assert.Equal(t, 12, stored.Statistics.LastTotalTrades)
}

func TestTrimIsProfitNeutral(t *testing.T) {
	trim, profit, trades, _, prices, _, _ := newTrimFixture()
	require.NoError(t, prices.SetKeyPrice(context.Background(), tf2.Currencies{Metal: 60}))

	cutoff := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, trades.InsertBatch(context.Background(), []domain.TradeRecord{
		buyTrade("old-1", 1, 2, cutoff.Add(-48*time.Hour)),
		sellTrade("old-2", 1, 2, cutoff.Add(-24*time.Hour)),
		spreadTrade("new-1", 2, cutoff.Add(24*time.Hour)),
	}))

	before, err := profit.ComputeProfit(context.Background())
	require.NoError(t, err)

	_, err = trim.TrimBefore(context.Background(), cutoff)
	require.NoError(t, err)

	after, err := profit.ComputeProfit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, before.TradeProfitScrap, after.TradeProfitScrap)
	assert.Equal(t, before.OverpriceProfitScrap, after.OverpriceProfitScrap)
}
