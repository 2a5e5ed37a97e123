// Package pipeline schedules background maintenance work. The only job today
// is the trade-log trimmer, which folds aged trades into the profit baseline
// and moves them to cold storage on a cron schedule.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// TrimRunner executes one trim pass over all trades received before cutoff
// and returns the number of trades trimmed.
type TrimRunner interface {
	TrimBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Trimmer runs the trade-log trim on a schedule.
type Trimmer struct {
	runner        TrimRunner
	retentionDays int
	logger        *slog.Logger
}

// NewTrimmer creates a Trimmer that keeps retentionDays of trades in the
// primary store.
func NewTrimmer(runner TrimRunner, retentionDays int, logger *slog.Logger) *Trimmer {
	return &Trimmer{
		runner:        runner,
		retentionDays: retentionDays,
		logger:        logger.With(slog.String("component", "trimmer")),
	}
}

// Run executes a single trim pass. The cutoff is retentionDays before now.
func (t *Trimmer) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-time.Duration(t.retentionDays) * 24 * time.Hour)
	t.logger.Info("starting trim run",
		slog.Time("cutoff", cutoff),
		slog.Int("retention_days", t.retentionDays),
	)

	trimmed, err := t.runner.TrimBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("trimming trades before %v: %w", cutoff, err)
	}

	t.logger.Info("trim run complete", slog.Int64("trimmed", trimmed))
	return nil
}

// RunCron runs the trimmer on a cron schedule until the context is cancelled.
// It supports cron expressions in the standard 5-field format:
// "minute hour day-of-month month day-of-week"
//
// Example: "0 3 1 * *" runs at 3:00 AM on the 1st of every month.
func (t *Trimmer) RunCron(ctx context.Context, cronExpr string) error {
	t.logger.Info("trimmer cron started", slog.String("cron", cronExpr))

	for {
		next, err := nextCronTime(cronExpr, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("parsing cron expression %q: %w", cronExpr, err)
		}

		waitDuration := time.Until(next)
		t.logger.Info("trimmer waiting for next cron trigger",
			slog.Time("next_run", next),
			slog.Duration("wait", waitDuration),
		)

		timer := time.NewTimer(waitDuration)
		select {
		case <-ctx.Done():
			timer.Stop()
			t.logger.Info("trimmer cron stopped")
			return ctx.Err()
		case <-timer.C:
			if err := t.Run(ctx); err != nil {
				t.logger.Error("trim run failed", slog.String("error", err.Error()))
			}
		}
	}
}

// cronField is a parsed cron field that can match against a value.
type cronField struct {
	wildcard bool
	values   []int
}

func (f cronField) matches(val int) bool {
	if f.wildcard {
		return true
	}
	for _, v := range f.values {
		if v == val {
			return true
		}
	}
	return false
}

// parseCronField parses a single cron field (e.g. "0", "*", "1,15").
func parseCronField(field string) (cronField, error) {
	if field == "*" {
		return cronField{wildcard: true}, nil
	}

	parts := strings.Split(field, ",")
	values := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.Atoi(p)
		if err != nil {
			return cronField{}, fmt.Errorf("invalid cron field value %q: %w", p, err)
		}
		values = append(values, v)
	}
	return cronField{values: values}, nil
}

// parsedCron holds the five parsed cron fields.
type parsedCron struct {
	minute     cronField
	hour       cronField
	dayOfMonth cronField
	month      cronField
	dayOfWeek  cronField
}

func (c parsedCron) matchesTime(t time.Time) bool {
	return c.minute.matches(t.Minute()) &&
		c.hour.matches(t.Hour()) &&
		c.dayOfMonth.matches(t.Day()) &&
		c.month.matches(int(t.Month())) &&
		c.dayOfWeek.matches(int(t.Weekday()))
}

// parseCron parses a 5-field cron expression.
func parseCron(expr string) (parsedCron, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return parsedCron{}, fmt.Errorf("cron expression must have 5 fields, got %d", len(fields))
	}

	minute, err := parseCronField(fields[0])
	if err != nil {
		return parsedCron{}, fmt.Errorf("parsing minute field: %w", err)
	}
	hour, err := parseCronField(fields[1])
	if err != nil {
		return parsedCron{}, fmt.Errorf("parsing hour field: %w", err)
	}
	dayOfMonth, err := parseCronField(fields[2])
	if err != nil {
		return parsedCron{}, fmt.Errorf("parsing day-of-month field: %w", err)
	}
	month, err := parseCronField(fields[3])
	if err != nil {
		return parsedCron{}, fmt.Errorf("parsing month field: %w", err)
	}
	dayOfWeek, err := parseCronField(fields[4])
	if err != nil {
		return parsedCron{}, fmt.Errorf("parsing day-of-week field: %w", err)
	}

	return parsedCron{
		minute:     minute,
		hour:       hour,
		dayOfMonth: dayOfMonth,
		month:      month,
		dayOfWeek:  dayOfWeek,
	}, nil
}

// nextCronTime finds the next time after 'after' matching the expression,
// searching minute-by-minute up to one year ahead.
func nextCronTime(cronExpr string, after time.Time) (time.Time, error) {
	cron, err := parseCron(cronExpr)
	if err != nil {
		return time.Time{}, err
	}

	candidate := after.Truncate(time.Minute).Add(time.Minute)
	limit := after.Add(366 * 24 * time.Hour)

	for candidate.Before(limit) {
		if cron.matchesTime(candidate) {
			return candidate, nil
		}
		candidate = candidate.Add(time.Minute)
	}

	return time.Time{}, fmt.Errorf("no matching cron time found within one year for %q", cronExpr)
}
