package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mannco-trade/mannbot/internal/domain"
)

// TradesHandler serves the trade log.
type TradesHandler struct {
	trades domain.TradeLogStore
	logger *slog.Logger
}

// NewTradesHandler creates a TradesHandler.
func NewTradesHandler(trades domain.TradeLogStore, logger *slog.Logger) *TradesHandler {
	return &TradesHandler{
		trades: trades,
		logger: logHandler(logger, "trades"),
	}
}

// ListTrades returns a page of the trade log, newest first.
// GET /api/trades?limit=50&offset=0
func (h *TradesHandler) ListTrades(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	records, err := h.trades.List(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list trades failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list trades")
		return
	}

	total, err := h.trades.Count(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "count trades failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to count trades")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"trades": records,
		"total":  total,
		"limit":  opts.Limit,
		"offset": opts.Offset,
	})
}

// RecordTrades ingests a batch of completed trade offers from the trading
// frontend. Offers already recorded are ignored.
// POST /api/trades
func (h *TradesHandler) RecordTrades(w http.ResponseWriter, r *http.Request) {
	var batch []domain.TradeRecord
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(batch) == 0 {
		writeError(w, http.StatusBadRequest, "empty batch")
		return
	}
	for i := range batch {
		if batch[i].OfferID == "" {
			writeError(w, http.StatusBadRequest, "trade missing offer_id")
			return
		}
	}

	if err := h.trades.InsertBatch(r.Context(), batch); err != nil {
		h.logger.ErrorContext(r.Context(), "insert trades failed",
			slog.Int("batch", len(batch)),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to record trades")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"recorded": len(batch),
	})
}
