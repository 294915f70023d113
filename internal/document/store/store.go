// Package store persists document records for the local index. Postgres is
// the durable implementation; the in-memory one backs unit tests and local
// development.
package store

import (
	"context"

	"docseal/internal/document"
)

// Store is the local index of registered documents.
//
// Insert is idempotent on identifier: re-inserting an existing identifier is
// a silent no-op. A different identifier carrying an already-stored content
// hash surfaces sentinel.ErrConflict, since the hash uniqueness constraint
// rejected the write. Lookups return sentinel.ErrNotFound for absent records.
type Store interface {
	Insert(ctx context.Context, record *document.Record) error
	GetByIdentifier(ctx context.Context, identifier string) (*document.Record, error)
	GetByHash(ctx context.Context, contentHash string) (*document.Record, error)
	ExistsByHash(ctx context.Context, contentHash string) (bool, error)
	ListByCreator(ctx context.Context, creatorAddress string) ([]*document.Record, error)
}
