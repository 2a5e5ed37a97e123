// Package service implements the bot's use cases on top of the domain
// stores and the pricelist cache: profit reporting, live options management,
// and trade-log trimming.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mannco-trade/mannbot/internal/accounting"
	"github.com/mannco-trade/mannbot/internal/domain"
	"github.com/mannco-trade/mannbot/internal/notify"
	"github.com/mannco-trade/mannbot/internal/tf2"
)

// ProfitReport is the result of a full profit computation, expressed in both
// scrap and refined metal.
type ProfitReport struct {
	TradeProfitScrap     int64     `json:"trade_profit_scrap"`
	OverpriceProfitScrap int64     `json:"overprice_profit_scrap"`
	TradeProfitRef       float64   `json:"trade_profit_ref"`
	OverpriceProfitRef   float64   `json:"overprice_profit_ref"`
	TotalTrades          int       `json:"total_trades"`
	KeyPriceMetal        float64   `json:"key_price_metal"`
	GeneratedAt          time.Time `json:"generated_at"`
}

// ProfitService replays the trade log through the profit aggregator.
type ProfitService struct {
	trades   domain.TradeLogStore
	options  domain.OptionsStore
	prices   domain.PricelistCache
	notifier *notify.Notifier
	logger   *slog.Logger
}

// NewProfitService creates a ProfitService.
func NewProfitService(
	trades domain.TradeLogStore,
	options domain.OptionsStore,
	prices domain.PricelistCache,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *ProfitService {
	return &ProfitService{
		trades:   trades,
		options:  options,
		prices:   prices,
		notifier: notifier,
		logger:   logger,
	}
}

// ComputeProfit loads the options, the current key price, and the full trade
// log, and replays the log seeded with the persisted baseline. It is a pure
// read with no side effects.
func (s *ProfitService) ComputeProfit(ctx context.Context) (ProfitReport, error) {
	opts, err := s.options.Get(ctx)
	if err != nil {
		return ProfitReport{}, fmt.Errorf("profit_service: load options: %w", err)
	}

	keyPrice, err := s.prices.GetKeyPrice(ctx)
	if err != nil {
		return ProfitReport{}, fmt.Errorf("profit_service: key price: %w", err)
	}

	log, err := s.trades.ListAll(ctx)
	if err != nil {
		return ProfitReport{}, fmt.Errorf("profit_service: load trade log: %w", err)
	}

	isCurrency := tf2.CurrencyPredicate(opts.WeaponsAsCurrency.Enable, opts.WeaponsAsCurrency.Weapons)
	report := accounting.Compute(log, keyPrice, isCurrency, baselineFrom(opts))

	s.logger.InfoContext(ctx, "profit_service: computed profit",
		slog.Int64("trade_profit_scrap", report.TradeProfit),
		slog.Int64("overprice_profit_scrap", report.OverpriceProfit),
		slog.Int("total_trades", report.TotalTrades),
	)

	return ProfitReport{
		TradeProfitScrap:     report.TradeProfit,
		OverpriceProfitScrap: report.OverpriceProfit,
		TradeProfitRef:       tf2.RefinedFromScrap(float64(report.TradeProfit)),
		OverpriceProfitRef:   tf2.RefinedFromScrap(float64(report.OverpriceProfit)),
		TotalTrades:          report.TotalTrades,
		KeyPriceMetal:        keyPrice.Metal,
		GeneratedAt:          time.Now().UTC(),
	}, nil
}

// ReportAndNotify computes the current profit figures and announces them on
// the notification channels. Used by the one-shot profit mode.
func (s *ProfitService) ReportAndNotify(ctx context.Context) (ProfitReport, error) {
	report, err := s.ComputeProfit(ctx)
	if err != nil {
		return ProfitReport{}, err
	}

	msg := fmt.Sprintf("Profit: %.2f ref\nOverprice: %.2f ref\nTrades: %d\nKey price: %.2f ref",
		report.TradeProfitRef, report.OverpriceProfitRef, report.TotalTrades, report.KeyPriceMetal)
	if err := s.notifier.Notify(ctx, notify.EventProfitReport, "Profit report", msg); err != nil {
		s.logger.WarnContext(ctx, "profit_service: notify failed",
			slog.String("error", err.Error()),
		)
	}

	return report, nil
}

// baselineFrom extracts the accounting baseline from the persisted options
// document.
func baselineFrom(opts domain.Options) accounting.Baseline {
	return accounting.Baseline{
		MadeRef:    opts.Statistics.LastTotalProfitMadeInRef,
		OverpayRef: opts.Statistics.LastTotalProfitOverpayInRef,
		Trades:     opts.Statistics.LastTotalTrades,
	}
}
