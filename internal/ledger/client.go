// Package ledger is the client-side boundary to the document registry
// contract. The contract itself is an opaque append-only store; this package
// only speaks its query and event surface.
package ledger

import "context"

// Document is the on-chain view of a registered document.
type Document struct {
	Identifier     string
	ContentHash    string
	CreatorAddress string
	BlockNumber    int64
}

// Event is one DocumentStored contract event. The identifier is not carried
// by the event; the reconciliation worker resolves it through the creator's
// document list.
type Event struct {
	CreatorAddress  string
	BlockNumber     int64
	TransactionHash string
}

// Client queries the ledger. Transport failures wrap
// sentinel.ErrUnavailable so callers decide the safe default; absent
// documents wrap sentinel.ErrNotFound. No method panics or crashes the
// caller.
type Client interface {
	IsConnected(ctx context.Context) bool
	HashExists(ctx context.Context, contentHash string) (bool, error)
	DocumentByID(ctx context.Context, identifier string) (*Document, error)
	DocumentByHash(ctx context.Context, contentHash string) (*Document, error)
	DocumentsByCreator(ctx context.Context, creatorAddress string) ([]string, error)
	CreatorDocumentCount(ctx context.Context, creatorAddress string) (int64, error)
	LatestBlockNumber(ctx context.Context) (int64, error)
	StoredEvents(ctx context.Context, fromBlock, toBlock int64) ([]Event, error)
}
