package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cf_finder/internal/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver
)

// Open connects to the store selected by cfg.StoreDriver and verifies the
// connection.
func Open(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	var (
		driver string
		dsn    string
	)
	switch cfg.StoreDriver {
	case "postgres":
		driver, dsn = "pgx", cfg.DBConnStr
	case "sqlite":
		driver, dsn = "sqlite", cfg.SQLitePath
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if driver == "sqlite" {
		// SQLite serialises writers; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	slog.Info("database connected", "driver", driver)
	return db, nil
}

// Migrate creates the schema if it does not exist. The statements are valid
// on both PostgreSQL and SQLite.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS saved_queries (
			id         TEXT PRIMARY KEY,
			query_key  TEXT NOT NULL UNIQUE,
			targets    TEXT NOT NULL,
			practices  TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_saved_queries_created_at ON saved_queries (created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("database.Migrate: %w", err)
		}
	}
	return nil
}

func Close(db *sqlx.DB) {
	if db != nil {
		db.Close()
		slog.Info("database connection closed")
	}
}
