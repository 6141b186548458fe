package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Priya8975/merchant-activity-service/internal/ingest"
)

const sqliteScheme = "sqlite://"

// Backend is the activity store selected by the database URL: Postgres for
// postgres:// URLs, or an embedded SQLite file for sqlite://<path>.
type Backend struct {
	Postgres *PostgresStore
	SQLite   *SQLiteStore
}

// Open connects to the store named by databaseURL. Postgres schemas are
// migrated up first; SQLite creates its table on open.
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*Backend, error) {
	if path, ok := strings.CutPrefix(databaseURL, sqliteScheme); ok {
		db, err := InitSQLite(path, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("using sqlite store", "path", path)
		return &Backend{SQLite: db}, nil
	}

	if err := RunMigrations(databaseURL, "up"); err != nil {
		return nil, err
	}
	logger.Info("database migrations applied")

	pg, err := NewPostgres(ctx, databaseURL, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("connected to PostgreSQL")
	return &Backend{Postgres: pg}, nil
}

func (b *Backend) AcquireWriter(ctx context.Context) (ingest.Writer, func(), error) {
	if b.Postgres != nil {
		return b.Postgres.AcquireWriter(ctx)
	}
	if b.SQLite != nil {
		return b.SQLite.AcquireWriter(ctx)
	}
	return nil, nil, fmt.Errorf("no store configured")
}

func (b *Backend) Close() {
	if b.Postgres != nil {
		b.Postgres.Close()
	}
	if b.SQLite != nil {
		b.SQLite.Close()
	}
}
