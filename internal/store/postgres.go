package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Priya8975/merchant-activity-service/internal/ingest"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgres(ctx context.Context, databaseURL string, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// AcquireWriter checks out one pool connection and binds a writer to it.
// The returned release func must be called once the run is over.
func (s *PostgresStore) AcquireWriter(ctx context.Context) (ingest.Writer, func(), error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquiring connection: %w", err)
	}
	return &ActivityWriter{conn: conn, logger: s.logger}, conn.Release, nil
}

// RunMigrations applies the embedded migrations in the given direction
// ("up" or "down"). Being already at the target version is not an error.
func RunMigrations(databaseURL, direction string) error {
	if databaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if strings.HasPrefix(databaseURL, sqliteScheme) {
		return errors.New("migrations apply to PostgreSQL only; the sqlite store creates its schema on open")
	}
	if direction != "up" && direction != "down" {
		return fmt.Errorf("direction must be up or down, got %q", direction)
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("initializing migrations: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if direction == "up" {
		err = m.Up()
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations %s: %w", direction, err)
	}
	return nil
}
