package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// schema holds the registry tables. verification_id and document_hash carry
// storage-level uniqueness so concurrent writers are resolved by the
// constraint, not by application locks.
const schema = `
CREATE TABLE IF NOT EXISTS document_records (
    id SERIAL PRIMARY KEY,
    verification_id VARCHAR(64) UNIQUE NOT NULL,
    document_hash VARCHAR(128) UNIQUE NOT NULL,
    creator_address VARCHAR(42) NOT NULL,
    registered_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
    block_number BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_document_records_creator ON document_records(creator_address);
CREATE INDEX IF NOT EXISTS idx_document_records_block ON document_records(block_number);

CREATE TABLE IF NOT EXISTS audit_events (
    id UUID PRIMARY KEY,
    action VARCHAR(64) NOT NULL,
    verification_id VARCHAR(64),
    document_hash VARCHAR(128),
    outcome VARCHAR(32) NOT NULL,
    occurred_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_events_occurred ON audit_events(occurred_at);
`

// Open connects, pings, and bootstraps the schema.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the tables when they do not exist yet. Exposed so
// integration tests can bootstrap a throwaway database.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
