package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/Priya8975/merchant-activity-service/internal/domain"
	"github.com/Priya8975/merchant-activity-service/internal/metrics"
)

const DefaultBatchSize = 5000

// Batcher buffers records and writes them synchronously once the buffer
// reaches its size. Memory stays bounded by the batch size.
type Batcher struct {
	writer  Writer
	size    int
	buf     []domain.ActivityRecord
	written int
}

func NewBatcher(w Writer, size int) *Batcher {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &Batcher{
		writer: w,
		size:   size,
		buf:    make([]domain.ActivityRecord, 0, size),
	}
}

// Add appends a record and flushes when the threshold is reached.
func (b *Batcher) Add(ctx context.Context, rec domain.ActivityRecord) error {
	b.buf = append(b.buf, rec)
	if len(b.buf) >= b.size {
		return b.Flush(ctx)
	}
	return nil
}

// Flush writes whatever is buffered. An empty buffer is a no-op.
// The buffer is kept on failure so the caller can inspect Pending.
func (b *Batcher) Flush(ctx context.Context) error {
	if len(b.buf) == 0 {
		return nil
	}

	start := time.Now()
	n, err := b.writer.BulkWrite(ctx, b.buf)
	metrics.FlushDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("%w: flushing %d records: %w", ErrWrite, len(b.buf), err)
	}

	b.written += int(n)
	b.buf = b.buf[:0]
	return nil
}

// Pending returns the number of buffered, unwritten records.
func (b *Batcher) Pending() int {
	return len(b.buf)
}

// TakeWritten returns the attempted-record count reported by the writer
// since the last call and resets it.
func (b *Batcher) TakeWritten() int {
	n := b.written
	b.written = 0
	return n
}
