// Package cache decorates a document store with a Redis read-through layer
// for verification lookups. Records are immutable once written, so cached
// entries never go stale; the TTL only bounds memory.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"docseal/internal/document"
	"docseal/internal/document/store"
)

const (
	idKeyPrefix   = "doc:id:"
	hashKeyPrefix = "doc:hash:"
)

// Cache wraps a store.Store. Cache failures degrade to the underlying store;
// a broken Redis never fails a verification request.
type Cache struct {
	next   store.Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func New(next store.Store, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{next: next, client: client, ttl: ttl, logger: logger}
}

// Insert delegates to the underlying store and primes both cache keys on
// success so a follow-up verification hits the cache.
func (c *Cache) Insert(ctx context.Context, record *document.Record) error {
	if err := c.next.Insert(ctx, record); err != nil {
		return err
	}
	c.put(ctx, record)
	return nil
}

func (c *Cache) GetByIdentifier(ctx context.Context, identifier string) (*document.Record, error) {
	if record, ok := c.get(ctx, idKeyPrefix+identifier); ok {
		return record, nil
	}
	record, err := c.next.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	c.put(ctx, record)
	return record, nil
}

func (c *Cache) GetByHash(ctx context.Context, contentHash string) (*document.Record, error) {
	if record, ok := c.get(ctx, hashKeyPrefix+contentHash); ok {
		return record, nil
	}
	record, err := c.next.GetByHash(ctx, contentHash)
	if err != nil {
		return nil, err
	}
	c.put(ctx, record)
	return record, nil
}

// ExistsByHash backs the registration dedupe decision, which must see the
// freshest state, so it always goes to the store.
func (c *Cache) ExistsByHash(ctx context.Context, contentHash string) (bool, error) {
	return c.next.ExistsByHash(ctx, contentHash)
}

func (c *Cache) ListByCreator(ctx context.Context, creatorAddress string) ([]*document.Record, error) {
	return c.next.ListByCreator(ctx, creatorAddress)
}

func (c *Cache) get(ctx context.Context, key string) (*document.Record, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("verify cache read failed", "key", key, "error", err)
		return nil, false
	}
	var record document.Record
	if err := json.Unmarshal(payload, &record); err != nil {
		c.logger.Warn("verify cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	return &record, true
}

func (c *Cache) put(ctx context.Context, record *document.Record) {
	payload, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, idKeyPrefix+record.Identifier, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("verify cache write failed", "identifier", record.Identifier, "error", err)
		return
	}
	if err := c.client.Set(ctx, hashKeyPrefix+record.ContentHash, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("verify cache write failed", "identifier", record.Identifier, "error", err)
	}
}
