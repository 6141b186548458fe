package ingest

import (
	"context"

	"github.com/Priya8975/merchant-activity-service/internal/domain"
)

// Writer is the storage contract the pipeline depends on.
//
// BulkWrite must skip records whose event_id already exists instead of
// failing the batch, and returns the number of records it attempted.
// The records slice is reused after BulkWrite returns and must not be
// retained. CountExisting returns the total number of stored records.
type Writer interface {
	CountExisting(ctx context.Context) (uint64, error)
	BulkWrite(ctx context.Context, records []domain.ActivityRecord) (uint64, error)
}
