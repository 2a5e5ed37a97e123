package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mannco-trade/mannbot/internal/feed"
	"github.com/mannco-trade/mannbot/internal/pipeline"
	"github.com/mannco-trade/mannbot/internal/server"
	"github.com/mannco-trade/mannbot/internal/server/handler"
	"github.com/mannco-trade/mannbot/internal/service"
)

// ServeMode runs the HTTP API and, when enabled, the pricelist feed.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)

	a.startPricefeed(ctx, g, deps)
	a.startHTTPServer(ctx, g, deps)

	return g.Wait()
}

// ProfitMode runs one profit computation, announces it, and prints the
// report as JSON on stdout.
func (a *App) ProfitMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting profit mode")

	profitSvc := service.NewProfitService(deps.TradeLog, deps.Options, deps.Pricelist, deps.Notifier, a.logger)

	report, err := profitSvc.ReportAndNotify(ctx)
	if err != nil {
		return fmt.Errorf("profit mode: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("profit mode: encode report: %w", err)
	}
	return nil
}

// TrimMode runs a single trade-log trim pass.
func (a *App) TrimMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting trim mode")

	if !a.cfg.Trim.Enabled {
		a.logger.WarnContext(ctx, "trim.enabled is false, but trim mode always runs one pass")
	}

	trimmer := pipeline.NewTrimmer(a.newTrimService(deps), a.cfg.Trim.RetentionDays, a.logger)
	return trimmer.Run(ctx)
}

// FullMode runs everything: HTTP API, pricelist feed, and the cron trimmer.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	a.startPricefeed(ctx, g, deps)
	a.startHTTPServer(ctx, g, deps)

	if a.cfg.Trim.Enabled {
		trimmer := pipeline.NewTrimmer(a.newTrimService(deps), a.cfg.Trim.RetentionDays, a.logger)
		g.Go(func() error {
			err := trimmer.RunCron(ctx, a.cfg.Trim.Cron)
			if ctx.Err() != nil {
				return nil
			}
			return err
		})
	} else {
		a.logger.InfoContext(ctx, "trim.enabled is false, cron trimmer not started")
	}

	return g.Wait()
}

func (a *App) newTrimService(deps *Dependencies) *service.TrimService {
	return service.NewTrimService(
		deps.TradeLog, deps.Options, deps.Pricelist,
		deps.Archiver, deps.Audit, deps.Notifier, a.logger,
	)
}

// startPricefeed adds the pricelist feed goroutine when the feed is enabled.
func (a *App) startPricefeed(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if !a.cfg.Pricefeed.Enabled {
		a.logger.InfoContext(ctx, "pricefeed disabled, relying on cached prices")
		return
	}

	wsFeed := feed.NewPricefeedWS(a.cfg.Pricefeed.WsURL, deps.Pricelist, a.logger)
	g.Go(func() error {
		defer wsFeed.Close()
		err := wsFeed.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		return err
	})
}

// startHTTPServer adds the HTTP server and its graceful-shutdown watcher to
// the errgroup.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if !a.cfg.Server.Enabled {
		a.logger.InfoContext(ctx, "server disabled")
		return
	}

	profitSvc := service.NewProfitService(deps.TradeLog, deps.Options, deps.Pricelist, deps.Notifier, a.logger)
	optionsSvc := service.NewOptionsService(deps.Options, deps.Audit, deps.Notifier, a.logger)

	srv := server.NewServer(
		server.Config{
			Port:            a.cfg.Server.Port,
			CORSOrigins:     a.cfg.Server.CORSOrigins,
			APIKey:          a.cfg.Server.APIKey,
			RateLimitPerMin: a.cfg.Server.RateLimitPerMin,
		},
		server.Handlers{
			Health:  handler.NewHealthHandler(a.logger),
			Profit:  handler.NewProfitHandler(profitSvc, a.logger),
			Options: handler.NewOptionsHandler(optionsSvc, a.logger),
			Trades:  handler.NewTradesHandler(deps.TradeLog, a.logger),
		},
		deps.RateLimiter,
		a.logger,
	)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
