package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Priya8975/merchant-activity-service/internal/domain"
	"github.com/Priya8975/merchant-activity-service/internal/ingest"
	"github.com/Priya8975/merchant-activity-service/internal/metrics"
)

const sqliteInsertActivitySQL = `INSERT OR IGNORE INTO merchant_activities
	(event_id, merchant_id, event_timestamp, product, event_type,
	 amount, status, channel, region, merchant_tier)
	VALUES (?,?,?,?,?,?,?,?,?,?)`

// SQLiteStore is the embedded backend used for local runs and tests. It
// carries the same table as the Postgres schema but no analytics.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// InitSQLite opens (or creates) a SQLite database at the given path and
// ensures the activity table exists. Pass ":memory:" for an in-memory
// database.
func InitSQLite(dsn string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// Every connection to ":memory:" is its own database.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting wal mode: %w", err)
	}

	if err := createSQLiteTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

func createSQLiteTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS merchant_activities (
			event_id TEXT PRIMARY KEY,
			merchant_id TEXT NOT NULL,
			event_timestamp DATETIME NOT NULL,
			product TEXT NOT NULL,
			event_type TEXT NOT NULL,
			amount TEXT NOT NULL DEFAULT '0.00',
			status TEXT NOT NULL,
			channel TEXT,
			region TEXT,
			merchant_tier TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS ix_ma_merchant_id ON merchant_activities(merchant_id)`,
		`CREATE INDEX IF NOT EXISTS ix_ma_status_product ON merchant_activities(status, product)`,
		`CREATE INDEX IF NOT EXISTS ix_ma_event_timestamp ON merchant_activities(event_timestamp)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// AcquireWriter pins one connection for the duration of a run.
func (s *SQLiteStore) AcquireWriter(ctx context.Context) (ingest.Writer, func(), error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquiring connection: %w", err)
	}
	release := func() {
		if err := conn.Close(); err != nil {
			s.logger.Warn("closing sqlite connection", "error", err)
		}
	}
	return &SQLiteWriter{conn: conn, logger: s.logger}, release, nil
}

type SQLiteWriter struct {
	conn   *sql.Conn
	logger *slog.Logger
}

func (w *SQLiteWriter) CountExisting(ctx context.Context) (uint64, error) {
	var count int64
	err := w.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM merchant_activities`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting activities: %w", err)
	}
	return uint64(count), nil
}

func (w *SQLiteWriter) BulkWrite(ctx context.Context, records []domain.ActivityRecord) (uint64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := w.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, sqliteInsertActivitySQL)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	var kept int64
	for i := range records {
		r := &records[i]
		res, err := stmt.ExecContext(ctx,
			r.EventID.String(),
			r.MerchantID,
			r.EventTimestamp.UTC().Format(time.RFC3339Nano),
			string(r.Product),
			r.EventType,
			r.Amount.StringFixed(2),
			string(r.Status),
			nullableChannel(r.Channel),
			nullableString(r.Region),
			nullableString(r.MerchantTier),
		)
		if err != nil {
			return 0, fmt.Errorf("inserting activity %s: %w", r.EventID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("reading rows affected: %w", err)
		}
		kept += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing activities: %w", err)
	}

	if conflicted := int64(len(records)) - kept; conflicted > 0 {
		metrics.RowsConflicted.Add(float64(conflicted))
		w.logger.Debug("existing activities ignored", "attempted", len(records), "ignored", conflicted)
	}

	return uint64(len(records)), nil
}

func nullableChannel(c *domain.Channel) sql.NullString {
	if c == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*c), Valid: true}
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
