package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mannco-trade/mannbot/internal/domain"
	"github.com/mannco-trade/mannbot/internal/notify"
)

// OptionsService reads and updates the live options document.
type OptionsService struct {
	options  domain.OptionsStore
	audit    domain.AuditStore
	notifier *notify.Notifier
	logger   *slog.Logger
}

// NewOptionsService creates an OptionsService.
func NewOptionsService(
	options domain.OptionsStore,
	audit domain.AuditStore,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *OptionsService {
	return &OptionsService{
		options:  options,
		audit:    audit,
		notifier: notifier,
		logger:   logger,
	}
}

// View returns the current options document.
func (s *OptionsService) View(ctx context.Context) (domain.Options, error) {
	opts, err := s.options.Get(ctx)
	if err != nil {
		return domain.Options{}, fmt.Errorf("options_service: load options: %w", err)
	}
	return opts, nil
}

// Update applies a partial update to the options document. The patch is
// deep-merged over the current document, so nested fields can be changed
// without resending their siblings. The merged result is validated before it
// is persisted; an invalid patch leaves the stored document untouched.
func (s *OptionsService) Update(ctx context.Context, patch map[string]any) (domain.Options, error) {
	if len(patch) == 0 {
		return domain.Options{}, fmt.Errorf("options_service: %w: empty patch", domain.ErrInvalidOptions)
	}

	current, err := s.options.Get(ctx)
	if err != nil {
		return domain.Options{}, fmt.Errorf("options_service: load options: %w", err)
	}

	merged, err := mergeOptions(current, patch)
	if err != nil {
		return domain.Options{}, err
	}

	if err := validateOptions(merged); err != nil {
		return domain.Options{}, err
	}

	if err := s.options.Put(ctx, merged); err != nil {
		return domain.Options{}, fmt.Errorf("options_service: save options: %w", err)
	}

	if auditErr := s.audit.Log(ctx, "options_updated", map[string]any{
		"patch": patch,
	}); auditErr != nil {
		s.logger.WarnContext(ctx, "options_service: audit log failed",
			slog.String("error", auditErr.Error()),
		)
	}

	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	if notifyErr := s.notifier.Notify(ctx, notify.EventOptionsUpdated, "Options updated",
		fmt.Sprintf("Changed: %s", strings.Join(keys, ", "))); notifyErr != nil {
		s.logger.WarnContext(ctx, "options_service: notify failed",
			slog.String("error", notifyErr.Error()),
		)
	}

	s.logger.InfoContext(ctx, "options_service: options updated",
		slog.Int("patched_fields", len(patch)),
	)

	return merged, nil
}

// mergeOptions round-trips the current document through its JSON form,
// deep-merges the patch over it, and decodes the result back. Unknown patch
// keys are rejected by the strict decode.
func mergeOptions(current domain.Options, patch map[string]any) (domain.Options, error) {
	raw, err := json.Marshal(current)
	if err != nil {
		return domain.Options{}, fmt.Errorf("options_service: marshal options: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Options{}, fmt.Errorf("options_service: unmarshal options: %w", err)
	}

	deepMerge(doc, patch)

	mergedRaw, err := json.Marshal(doc)
	if err != nil {
		return domain.Options{}, fmt.Errorf("options_service: marshal merged: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(mergedRaw))
	dec.DisallowUnknownFields()

	var merged domain.Options
	if err := dec.Decode(&merged); err != nil {
		return domain.Options{}, fmt.Errorf("options_service: %w: %v", domain.ErrInvalidOptions, err)
	}

	return merged, nil
}

// deepMerge merges src into dst in place. Nested maps merge recursively;
// everything else, including arrays, is replaced wholesale.
func deepMerge(dst, src map[string]any) {
	for k, v := range src {
		if srcMap, ok := v.(map[string]any); ok {
			if dstMap, ok := dst[k].(map[string]any); ok {
				deepMerge(dstMap, srcMap)
				continue
			}
		}
		dst[k] = v
	}
}

// validateOptions checks the invariants the rest of the bot relies on.
func validateOptions(opts domain.Options) error {
	for i, w := range opts.WeaponsAsCurrency.Weapons {
		if strings.TrimSpace(w) == "" {
			return fmt.Errorf("options_service: %w: weapons[%d] is empty", domain.ErrInvalidOptions, i)
		}
	}

	st := opts.Statistics
	if st.LastTotalTrades < 0 {
		return fmt.Errorf("options_service: %w: statistics.last_total_trades is negative", domain.ErrInvalidOptions)
	}

	return nil
}
