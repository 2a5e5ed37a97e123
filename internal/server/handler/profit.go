package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mannco-trade/mannbot/internal/domain"
	"github.com/mannco-trade/mannbot/internal/service"
)

// ProfitHandler serves profit reports.
type ProfitHandler struct {
	profit *service.ProfitService
	logger *slog.Logger
}

// NewProfitHandler creates a ProfitHandler.
func NewProfitHandler(profit *service.ProfitService, logger *slog.Logger) *ProfitHandler {
	return &ProfitHandler{
		profit: profit,
		logger: logHandler(logger, "profit"),
	}
}

// GetProfit replays the trade log and returns the current profit report.
// GET /api/profit
func (h *ProfitHandler) GetProfit(w http.ResponseWriter, r *http.Request) {
	report, err := h.profit.ComputeProfit(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNoKeyPrice) {
			writeError(w, http.StatusServiceUnavailable, "key price not available yet")
			return
		}
		h.logger.ErrorContext(r.Context(), "compute profit failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "profit computation failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}
