package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/mannco-trade/mannbot/internal/domain"
	"github.com/mannco-trade/mannbot/internal/notify"
	"github.com/mannco-trade/mannbot/internal/tf2"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func silentNotifier() *notify.Notifier {
	return notify.NewNotifier(nil, nil, testLogger())
}

type fakeTradeLogStore struct {
	records []domain.TradeRecord
}

func (s *fakeTradeLogStore) InsertBatch(_ context.Context, trades []domain.TradeRecord) error {
	s.records = append(s.records, trades...)
	return nil
}

func (s *fakeTradeLogStore) ListAll(context.Context) ([]domain.TradeRecord, error) {
	out := make([]domain.TradeRecord, len(s.records))
	copy(out, s.records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReceivedAt.Before(out[j].ReceivedAt) })
	return out, nil
}

func (s *fakeTradeLogStore) List(_ context.Context, opts domain.ListOpts) ([]domain.TradeRecord, error) {
	all, _ := s.ListAll(context.Background())
	sort.SliceStable(all, func(i, j int) bool { return all[i].ReceivedAt.After(all[j].ReceivedAt) })
	if opts.Offset >= len(all) {
		return nil, nil
	}
	all = all[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(all) {
		all = all[:opts.Limit]
	}
	return all, nil
}

func (s *fakeTradeLogStore) ListBefore(_ context.Context, before time.Time) ([]domain.TradeRecord, error) {
	var out []domain.TradeRecord
	for _, r := range s.records {
		if r.ReceivedAt.Before(before) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReceivedAt.Before(out[j].ReceivedAt) })
	return out, nil
}

func (s *fakeTradeLogStore) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	var kept []domain.TradeRecord
	var deleted int64
	for _, r := range s.records {
		if r.ReceivedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return deleted, nil
}

func (s *fakeTradeLogStore) Count(context.Context) (int64, error) {
	return int64(len(s.records)), nil
}

type fakeOptionsStore struct {
	stored *domain.Options
	puts   int
}

func (s *fakeOptionsStore) Get(context.Context) (domain.Options, error) {
	if s.stored == nil {
		return domain.DefaultOptions(), nil
	}
	return *s.stored, nil
}

func (s *fakeOptionsStore) Put(_ context.Context, opts domain.Options) error {
	s.stored = &opts
	s.puts++
	return nil
}

type fakePricelistCache struct {
	keyPrice *tf2.Currencies
	entries  map[string]domain.PriceEntry
}

func (c *fakePricelistCache) SetKeyPrice(_ context.Context, price tf2.Currencies) error {
	c.keyPrice = &price
	return nil
}

func (c *fakePricelistCache) GetKeyPrice(context.Context) (tf2.Currencies, error) {
	if c.keyPrice == nil {
		return tf2.Currencies{}, domain.ErrNoKeyPrice
	}
	return *c.keyPrice, nil
}

func (c *fakePricelistCache) SetEntry(_ context.Context, sku string, entry domain.PriceEntry) error {
	if c.entries == nil {
		c.entries = make(map[string]domain.PriceEntry)
	}
	c.entries[sku] = entry
	return nil
}

func (c *fakePricelistCache) GetEntry(_ context.Context, sku string) (domain.PriceEntry, error) {
	entry, ok := c.entries[sku]
	if !ok {
		return domain.PriceEntry{}, domain.ErrNotFound
	}
	return entry, nil
}

type fakeAuditStore struct {
	events []string
}

func (s *fakeAuditStore) Log(_ context.Context, event string, _ map[string]any) error {
	s.events = append(s.events, event)
	return nil
}

func (s *fakeAuditStore) List(context.Context, domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, nil
}

type fakeArchiver struct {
	archived []domain.TradeRecord
	path     string
}

func (a *fakeArchiver) ArchiveTrades(_ context.Context, before time.Time, trades []domain.TradeRecord) (string, error) {
	a.archived = append(a.archived, trades...)
	a.path = "archive/trades/" + before.Format("2006-01") + ".jsonl"
	return a.path, nil
}
