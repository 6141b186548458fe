package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Priya8975/merchant-activity-service/internal/domain"
	"github.com/Priya8975/merchant-activity-service/internal/metrics"
)

const insertActivitySQL = `
	INSERT INTO merchant_activities (
		event_id, merchant_id, event_timestamp, product, event_type,
		amount, status, channel, region, merchant_tier
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (event_id) DO NOTHING
`

// ActivityWriter writes activity batches over a single pooled connection.
type ActivityWriter struct {
	conn   *pgxpool.Conn
	logger *slog.Logger
}

func (w *ActivityWriter) CountExisting(ctx context.Context) (uint64, error) {
	var count int64
	err := w.conn.QueryRow(ctx, `SELECT COUNT(*) FROM merchant_activities`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting activities: %w", err)
	}
	return uint64(count), nil
}

// BulkWrite inserts the batch in one transaction. Rows whose event_id is
// already stored are ignored. The returned count is the number of records
// attempted, not the number the database kept.
func (w *ActivityWriter) BulkWrite(ctx context.Context, records []domain.ActivityRecord) (uint64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := w.conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i := range records {
		queueInsert(batch, &records[i])
	}

	results := tx.SendBatch(ctx, batch)
	var kept int64
	for i := range records {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return 0, fmt.Errorf("inserting activity %s: %w", records[i].EventID, err)
		}
		kept += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("closing batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing activities: %w", err)
	}

	conflicted := int64(len(records)) - kept
	if conflicted > 0 {
		metrics.RowsConflicted.Add(float64(conflicted))
		w.logger.Debug("existing activities ignored", "attempted", len(records), "ignored", conflicted)
	}

	return uint64(len(records)), nil
}

func queueInsert(batch *pgx.Batch, r *domain.ActivityRecord) {
	var channel *string
	if r.Channel != nil {
		c := string(*r.Channel)
		channel = &c
	}
	batch.Queue(insertActivitySQL,
		r.EventID,
		r.MerchantID,
		r.EventTimestamp,
		string(r.Product),
		r.EventType,
		r.Amount.StringFixed(2),
		string(r.Status),
		channel,
		r.Region,
		r.MerchantTier,
	)
}
