package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Priya8975/merchant-activity-service/internal/domain"
)

const csvHeader = "event_id,merchant_id,event_timestamp,product,event_type,amount,status,channel,region,merchant_tier"

var errStorageDown = errors.New("storage down")

// memWriter is an in-memory Writer with insert-if-absent semantics.
type memWriter struct {
	rows      map[uuid.UUID]domain.ActivityRecord
	order     []uuid.UUID
	batches   []int
	failAfter int // fail on the Nth BulkWrite call when > 0
	countErr  error
}

func newMemWriter() *memWriter {
	return &memWriter{rows: make(map[uuid.UUID]domain.ActivityRecord)}
}

func (w *memWriter) CountExisting(ctx context.Context) (uint64, error) {
	if w.countErr != nil {
		return 0, w.countErr
	}
	return uint64(len(w.rows)), nil
}

func (w *memWriter) BulkWrite(ctx context.Context, records []domain.ActivityRecord) (uint64, error) {
	if w.failAfter > 0 && len(w.batches)+1 >= w.failAfter {
		return 0, errStorageDown
	}
	w.batches = append(w.batches, len(records))
	for _, rec := range records {
		if _, ok := w.rows[rec.EventID]; ok {
			continue
		}
		w.rows[rec.EventID] = rec
		w.order = append(w.order, rec.EventID)
	}
	return uint64(len(records)), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func csvLine(id, merchant, ts, product, eventType, amount, status string) string {
	return strings.Join([]string{id, merchant, ts, product, eventType, amount, status, "APP", "LAGOS", "STARTER"}, ",")
}

func goodLine(id string) string {
	return csvLine(id, "MRC-000001", "2024-01-15T09:30:00", "POS", "CARD_TRANSACTION", "100.00", "SUCCESS")
}

func writeCSV(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := csvHeader + "\n" + strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}
