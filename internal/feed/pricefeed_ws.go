// Package feed subscribes to a backpack.tf style pricelist WebSocket and
// keeps the Redis pricelist cache current. Price updates for the key SKU
// also refresh the cached key-to-metal conversion rate.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mannco-trade/mannbot/internal/domain"
	"github.com/mannco-trade/mannbot/internal/tf2"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second
)

// priceEvent is the wire format of a single pricelist update.
type priceEvent struct {
	Event   string `json:"event"`
	Payload struct {
		SKU  string         `json:"sku"`
		Buy  tf2.Currencies `json:"buy"`
		Sell tf2.Currencies `json:"sell"`
	} `json:"payload"`
}

// PricefeedWS maintains a WebSocket subscription to the pricelist feed and
// writes every update into the pricelist cache. It reconnects with
// exponential backoff on disconnect.
type PricefeedWS struct {
	wsURL  string
	cache  domain.PricelistCache
	logger *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewPricefeedWS creates a feed writing updates into cache.
func NewPricefeedWS(wsURL string, cache domain.PricelistCache, logger *slog.Logger) *PricefeedWS {
	return &PricefeedWS{
		wsURL:  wsURL,
		cache:  cache,
		logger: logger.With(slog.String("component", "pricefeed_ws")),
		done:   make(chan struct{}),
	}
}

// Run connects and consumes price updates until ctx is cancelled or Close is
// called. Disconnects trigger a reconnect with exponential backoff.
func (f *PricefeedWS) Run(ctx context.Context) error {
	delay := reconnectDelay
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		err := f.runConnection(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		f.logger.Warn("pricefeed disconnected, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("delay", delay),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// runConnection dials the feed and reads messages until the connection drops
// or ctx is cancelled.
func (f *PricefeedWS) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}

	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("feed: connect: %w", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Close the connection when ctx or the feed shuts down so ReadMessage
	// unblocks.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-f.done:
		case <-stop:
			return
		}
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		_ = conn.Close()
	}()

	go f.pingLoop(conn, stop)

	f.logger.Info("pricefeed connected", slog.String("url", f.wsURL))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-f.done:
				return nil
			default:
			}
			return fmt.Errorf("feed: read: %w", err)
		}
		f.handleMessage(ctx, message)
	}
}

// pingLoop sends periodic pings to keep the connection alive.
func (f *PricefeedWS) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-f.done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage parses one frame. The feed batches events into arrays; a
// single object frame is accepted as well. Unparseable frames are dropped.
func (f *PricefeedWS) handleMessage(ctx context.Context, raw []byte) {
	var events []priceEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		var single priceEvent
		if err := json.Unmarshal(raw, &single); err != nil {
			return
		}
		events = []priceEvent{single}
	}

	for _, ev := range events {
		if ev.Event != "price" || ev.Payload.SKU == "" {
			continue
		}
		f.applyUpdate(ctx, ev)
	}
}

func (f *PricefeedWS) applyUpdate(ctx context.Context, ev priceEvent) {
	entry := domain.PriceEntry{Buy: ev.Payload.Buy, Sell: ev.Payload.Sell}

	if err := f.cache.SetEntry(ctx, ev.Payload.SKU, entry); err != nil {
		f.logger.Error("cache price entry",
			slog.String("sku", ev.Payload.SKU),
			slog.String("error", err.Error()),
		)
		return
	}

	// The key's sell price doubles as the key-to-metal conversion rate.
	if ev.Payload.SKU == tf2.SKUKey {
		if err := f.cache.SetKeyPrice(ctx, ev.Payload.Sell); err != nil {
			f.logger.Error("cache key price", slog.String("error", err.Error()))
			return
		}
		f.logger.Info("key price updated",
			slog.Float64("metal", ev.Payload.Sell.Metal),
		)
	}
}

// Close stops the feed.
func (f *PricefeedWS) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}
