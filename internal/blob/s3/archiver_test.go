package s3blob

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mannco-trade/mannbot/internal/domain"
)

type fakeBlobWriter struct {
	path        string
	contentType string
	data        []byte
	puts        int
}

func (f *fakeBlobWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.path = path
	f.contentType = contentType
	f.data = b
	f.puts++
	return nil
}

func (f *fakeBlobWriter) PutMultipart(ctx context.Context, path string, data io.Reader, _ int64) error {
	return f.Put(ctx, path, data, "")
}

type fakeAuditStore struct {
	events []string
}

func (f *fakeAuditStore) Log(_ context.Context, event string, _ map[string]any) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAuditStore) List(_ context.Context, _ domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, nil
}

func TestArchiveTradesEmptyBatchIsNoop(t *testing.T) {
	writer := &fakeBlobWriter{}
	archiver := NewTradeArchiver(writer, &fakeAuditStore{})

	path, err := archiver.ArchiveTrades(context.Background(), time.Now(), nil)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Zero(t, writer.puts)
}

func TestArchiveTradesWritesJSONL(t *testing.T) {
	writer := &fakeBlobWriter{}
	audit := &fakeAuditStore{}
	archiver := NewTradeArchiver(writer, audit)

	cutoff := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	trades := []domain.TradeRecord{
		{OfferID: "1", HandledByUs: true, IsAccepted: true, ReceivedAt: cutoff.Add(-48 * time.Hour)},
		{OfferID: "2", HandledByUs: true, IsAccepted: true, ReceivedAt: cutoff.Add(-24 * time.Hour)},
	}

	path, err := archiver.ArchiveTrades(context.Background(), cutoff, trades)
	require.NoError(t, err)

	assert.Equal(t, "archive/trades/2026-08.jsonl", path)
	assert.Equal(t, path, writer.path)
	assert.Equal(t, "application/x-ndjson", writer.contentType)
	assert.Contains(t, audit.events, "archive.trades")

	lines := strings.Split(strings.TrimRight(string(writer.data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"offer_id":"1"`)
	assert.Contains(t, lines[1], `"offer_id":"2"`)
}

func TestArchivePathPartitionsByMonth(t *testing.T) {
	before := time.Date(2025, time.December, 15, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "archive/trades/2025-12.jsonl", archivePath("trades", before))
}
