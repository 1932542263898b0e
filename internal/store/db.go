package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// NewDB opens a Postgres connection pool and verifies it is reachable
func NewDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS aggregation_runs (
	id                     UUID PRIMARY KEY,
	started_at             TIMESTAMPTZ NOT NULL,
	finished_at            TIMESTAMPTZ NOT NULL,
	selection_mode         TEXT,
	selection_start        TEXT,
	selection_end          TEXT,
	limit_per_source       INTEGER NOT NULL,
	source_count           INTEGER NOT NULL DEFAULT 0,
	item_count             INTEGER NOT NULL DEFAULT 0,
	skipped_subcollections INTEGER NOT NULL DEFAULT 0,
	status                 TEXT NOT NULL,
	error                  TEXT
);

CREATE INDEX IF NOT EXISTS aggregation_runs_started_at_idx
	ON aggregation_runs (started_at DESC);
`

// EnsureSchema creates the run history table when it does not exist
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
