package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTrimRunner struct {
	cutoffs []time.Time
	trimmed int64
	err     error
}

func (f *fakeTrimRunner) TrimBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.trimmed, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunUsesRetentionCutoff(t *testing.T) {
	runner := &fakeTrimRunner{trimmed: 3}
	trimmer := NewTrimmer(runner, 90, testLogger())

	before := time.Now().UTC()
	require.NoError(t, trimmer.Run(context.Background()))
	after := time.Now().UTC()

	require.Len(t, runner.cutoffs, 1)
	cutoff := runner.cutoffs[0]
	assert.False(t, cutoff.Before(before.Add(-90*24*time.Hour)))
	assert.False(t, cutoff.After(after.Add(-90*24*time.Hour)))
}

func TestRunPropagatesRunnerError(t *testing.T) {
	runner := &fakeTrimRunner{err: errors.New("store down")}
	trimmer := NewTrimmer(runner, 30, testLogger())

	err := trimmer.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store down")
}

func TestRunCronStopsOnContextCancel(t *testing.T) {
	runner := &fakeTrimRunner{}
	trimmer := NewTrimmer(runner, 30, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := trimmer.RunCron(ctx, "0 3 1 * *")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, runner.cutoffs)
}

func TestRunCronRejectsBadExpression(t *testing.T) {
	trimmer := NewTrimmer(&fakeTrimRunner{}, 30, testLogger())

	err := trimmer.RunCron(context.Background(), "not a cron")
	require.Error(t, err)
}

func TestParseCron(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{name: "monthly", expr: "0 3 1 * *"},
		{name: "all wildcards", expr: "* * * * *"},
		{name: "step syntax unsupported", expr: "0 */2 * * *", wantErr: true},
		{name: "comma list", expr: "0,30 6 * * *"},
		{name: "too few fields", expr: "0 3 1 *", wantErr: true},
		{name: "non numeric", expr: "x 3 1 * *", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCron(tt.expr)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNextCronTime(t *testing.T) {
	after := time.Date(2026, time.August, 31, 12, 30, 45, 0, time.UTC)

	tests := []struct {
		name string
		expr string
		want time.Time
	}{
		{
			name: "next minute on wildcards",
			expr: "* * * * *",
			want: time.Date(2026, time.August, 31, 12, 31, 0, 0, time.UTC),
		},
		{
			name: "monthly rolls into next month",
			expr: "0 3 1 * *",
			want: time.Date(2026, time.September, 1, 3, 0, 0, 0, time.UTC),
		},
		{
			name: "same day later hour",
			expr: "0 18 * * *",
			want: time.Date(2026, time.August, 31, 18, 0, 0, 0, time.UTC),
		},
		{
			name: "day of week",
			expr: "0 0 * * 0",
			want: time.Date(2026, time.September, 6, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nextCronTime(tt.expr, after)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextCronTimeNoMatch(t *testing.T) {
	_, err := nextCronTime("0 0 31 2 *", time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
}
