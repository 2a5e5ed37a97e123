package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mannco-trade/mannbot/internal/accounting"
	"github.com/mannco-trade/mannbot/internal/domain"
	"github.com/mannco-trade/mannbot/internal/notify"
	"github.com/mannco-trade/mannbot/internal/tf2"
)

// Archiver uploads a batch of trimmed trades to cold storage and returns the
// object key it wrote.
type Archiver interface {
	ArchiveTrades(ctx context.Context, before time.Time, trades []domain.TradeRecord) (string, error)
}

// TrimService folds aged trades into the persisted profit baseline and
// removes them from the primary store. Each pass is profit-neutral: the
// trimmed trades' contribution moves from the replayed log into the
// baseline, so a full computation before and after a trim reports the same
// figures as long as the key price is unchanged and no remaining trade
// sells inventory that was bought inside the trimmed range.
type TrimService struct {
	trades   domain.TradeLogStore
	options  domain.OptionsStore
	prices   domain.PricelistCache
	archiver Archiver
	audit    domain.AuditStore
	notifier *notify.Notifier
	logger   *slog.Logger
}

// NewTrimService creates a TrimService.
func NewTrimService(
	trades domain.TradeLogStore,
	options domain.OptionsStore,
	prices domain.PricelistCache,
	archiver Archiver,
	audit domain.AuditStore,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *TrimService {
	return &TrimService{
		trades:   trades,
		options:  options,
		prices:   prices,
		archiver: archiver,
		audit:    audit,
		notifier: notifier,
		logger:   logger,
	}
}

// TrimBefore trims all trades received strictly before cutoff. The aged
// prefix is replayed seeded with the current baseline, archived to cold
// storage, folded into the persisted statistics, and only then deleted.
// Returns the number of trades removed from the primary store.
func (s *TrimService) TrimBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	runID := uuid.NewString()

	prefix, err := s.trades.ListBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("trim_service: list trades: %w", err)
	}
	if len(prefix) == 0 {
		s.logger.InfoContext(ctx, "trim_service: nothing to trim",
			slog.String("run_id", runID),
			slog.Time("cutoff", cutoff),
		)
		return 0, nil
	}

	opts, err := s.options.Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("trim_service: load options: %w", err)
	}

	keyPrice, err := s.prices.GetKeyPrice(ctx)
	if err != nil {
		return 0, fmt.Errorf("trim_service: key price: %w", err)
	}

	// Replay only the aged prefix, seeded with the current baseline. The
	// result is the cumulative profit through the end of the prefix, which
	// becomes the new baseline.
	isCurrency := tf2.CurrencyPredicate(opts.WeaponsAsCurrency.Enable, opts.WeaponsAsCurrency.Weapons)
	report := accounting.Compute(prefix, keyPrice, isCurrency, baselineFrom(opts))

	path, err := s.archiver.ArchiveTrades(ctx, cutoff, prefix)
	if err != nil {
		return 0, fmt.Errorf("trim_service: archive: %w", err)
	}

	opts.Statistics = domain.Statistics{
		LastTotalProfitMadeInRef:    tf2.RefinedFromScrap(float64(report.TradeProfit)),
		LastTotalProfitOverpayInRef: tf2.RefinedFromScrap(float64(report.OverpriceProfit)),
		LastTotalTrades:             opts.Statistics.LastTotalTrades + report.TotalTrades,
	}
	if err := s.options.Put(ctx, opts); err != nil {
		return 0, fmt.Errorf("trim_service: save baseline: %w", err)
	}

	deleted, err := s.trades.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("trim_service: delete trades: %w", err)
	}

	if auditErr := s.audit.Log(ctx, "trim_complete", map[string]any{
		"run_id":           runID,
		"cutoff":           cutoff.Format(time.RFC3339),
		"archive_path":     path,
		"trimmed":          deleted,
		"baseline_made":    opts.Statistics.LastTotalProfitMadeInRef,
		"baseline_overpay": opts.Statistics.LastTotalProfitOverpayInRef,
		"baseline_trades":  opts.Statistics.LastTotalTrades,
	}); auditErr != nil {
		s.logger.WarnContext(ctx, "trim_service: audit log failed",
			slog.String("run_id", runID),
			slog.String("error", auditErr.Error()),
		)
	}

	msg := fmt.Sprintf("Trimmed %d trades before %s\nArchive: %s\nBaseline: %.2f ref over %d trades",
		deleted, cutoff.Format("2006-01-02"), path,
		opts.Statistics.LastTotalProfitMadeInRef, opts.Statistics.LastTotalTrades)
	if notifyErr := s.notifier.Notify(ctx, notify.EventTrimComplete, "Trade log trimmed", msg); notifyErr != nil {
		s.logger.WarnContext(ctx, "trim_service: notify failed",
			slog.String("run_id", runID),
			slog.String("error", notifyErr.Error()),
		)
	}

	s.logger.InfoContext(ctx, "trim_service: trim complete",
		slog.String("run_id", runID),
		slog.Int64("trimmed", deleted),
		slog.String("archive_path", path),
	)

	return deleted, nil
}
