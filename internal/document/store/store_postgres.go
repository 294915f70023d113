package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"docseal/internal/document"
	"docseal/pkg/platform/sentinel"
)

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

// PostgresStore persists document records in PostgreSQL. This store is pure
// I/O; uniqueness decisions and retry policy belong in the service.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed document store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Insert writes a record. A duplicate identifier is absorbed by
// ON CONFLICT DO NOTHING; a duplicate content hash under a new identifier
// trips the document_hash constraint and maps to sentinel.ErrConflict.
func (s *PostgresStore) Insert(ctx context.Context, record *document.Record) error {
	query := `
		INSERT INTO document_records (verification_id, document_hash, creator_address, block_number)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (verification_id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		record.Identifier,
		record.ContentHash,
		record.CreatorAddress,
		record.BlockNumber,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert document record: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByIdentifier(ctx context.Context, identifier string) (*document.Record, error) {
	query := `
		SELECT verification_id, document_hash, creator_address, registered_at, block_number
		FROM document_records
		WHERE verification_id = $1
	`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get document by identifier: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) GetByHash(ctx context.Context, contentHash string) (*document.Record, error) {
	query := `
		SELECT verification_id, document_hash, creator_address, registered_at, block_number
		FROM document_records
		WHERE document_hash = $1
	`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, contentHash))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get document by hash: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ExistsByHash(ctx context.Context, contentHash string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM document_records WHERE document_hash = $1)`,
		contentHash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check hash exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListByCreator(ctx context.Context, creatorAddress string) ([]*document.Record, error) {
	query := `
		SELECT verification_id, document_hash, creator_address, registered_at, block_number
		FROM document_records
		WHERE creator_address = $1
		ORDER BY block_number
	`
	rows, err := s.db.QueryContext(ctx, query, creatorAddress)
	if err != nil {
		return nil, fmt.Errorf("list documents by creator: %w", err)
	}
	defer rows.Close()

	var records []*document.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list documents by creator: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents by creator: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*document.Record, error) {
	var record document.Record
	err := row.Scan(
		&record.Identifier,
		&record.ContentHash,
		&record.CreatorAddress,
		&record.RegisteredAt,
		&record.BlockNumber,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
