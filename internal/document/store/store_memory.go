package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"docseal/internal/document"
	"docseal/pkg/platform/sentinel"
)

// MemoryStore is a map-backed Store with the same uniqueness semantics as the
// Postgres implementation.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]*document.Record
	byHash map[string]*document.Record
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]*document.Record),
		byHash: make(map[string]*document.Record),
	}
}

func (s *MemoryStore) Insert(_ context.Context, record *document.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[record.Identifier]; exists {
		// Conflict on identifier is the idempotent no-op path.
		return nil
	}
	if _, exists := s.byHash[record.ContentHash]; exists {
		return sentinel.ErrConflict
	}

	stored := *record
	if stored.RegisteredAt.IsZero() {
		stored.RegisteredAt = time.Now()
	}
	s.byID[stored.Identifier] = &stored
	s.byHash[stored.ContentHash] = &stored
	return nil
}

func (s *MemoryStore) GetByIdentifier(_ context.Context, identifier string) (*document.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.byID[identifier]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (s *MemoryStore) GetByHash(_ context.Context, contentHash string) (*document.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.byHash[contentHash]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (s *MemoryStore) ExistsByHash(_ context.Context, contentHash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.byHash[contentHash]
	return exists, nil
}

func (s *MemoryStore) ListByCreator(_ context.Context, creatorAddress string) ([]*document.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*document.Record
	for _, record := range s.byID {
		if record.CreatorAddress == creatorAddress {
			copied := *record
			records = append(records, &copied)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].BlockNumber < records[j].BlockNumber
	})
	return records, nil
}
