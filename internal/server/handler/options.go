package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mannco-trade/mannbot/internal/domain"
	"github.com/mannco-trade/mannbot/internal/service"
)

// OptionsHandler serves the live options document.
type OptionsHandler struct {
	options *service.OptionsService
	logger  *slog.Logger
}

// NewOptionsHandler creates an OptionsHandler.
func NewOptionsHandler(options *service.OptionsService, logger *slog.Logger) *OptionsHandler {
	return &OptionsHandler{
		options: options,
		logger:  logHandler(logger, "options"),
	}
}

// GetOptions returns the current options document.
// GET /api/options
func (h *OptionsHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.options.View(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "view options failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load options")
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// PatchOptions applies a partial update to the options document and returns
// the merged result.
// PATCH /api/options
func (h *OptionsHandler) PatchOptions(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	merged, err := h.options.Update(r.Context(), patch)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidOptions) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "update options failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to update options")
		return
	}

	writeJSON(w, http.StatusOK, merged)
}
