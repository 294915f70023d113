package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docseal/internal/document"
	"docseal/internal/document/store"
	"docseal/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *store.MemoryStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = store.NewMemory()
}

func makeRecord(id, hash string) *document.Record {
	return &document.Record{
		Identifier:     id,
		ContentHash:    hash,
		CreatorAddress: "0xABC",
		RegisteredAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		BlockNumber:    500,
	}
}

func (s *MemoryStoreSuite) TestInsertAndLookup() {
	ctx := context.Background()
	record := makeRecord("XYZ12345", "aaaa")

	s.Require().NoError(s.store.Insert(ctx, record))

	byID, err := s.store.GetByIdentifier(ctx, "XYZ12345")
	s.Require().NoError(err)
	s.Equal("aaaa", byID.ContentHash)
	s.Equal("0xABC", byID.CreatorAddress)
	s.Equal(int64(500), byID.BlockNumber)

	byHash, err := s.store.GetByHash(ctx, "aaaa")
	s.Require().NoError(err)
	s.Equal("XYZ12345", byHash.Identifier)

	exists, err := s.store.ExistsByHash(ctx, "aaaa")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *MemoryStoreSuite) TestInsertIdempotentOnIdentifier() {
	ctx := context.Background()

	s.Require().NoError(s.store.Insert(ctx, makeRecord("XYZ12345", "aaaa")))
	// Same identifier again: silent no-op, first write wins.
	s.Require().NoError(s.store.Insert(ctx, makeRecord("XYZ12345", "bbbb")))

	record, err := s.store.GetByIdentifier(ctx, "XYZ12345")
	s.Require().NoError(err)
	s.Equal("aaaa", record.ContentHash)

	_, err = s.store.GetByHash(ctx, "bbbb")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestInsertConflictingHash() {
	ctx := context.Background()

	s.Require().NoError(s.store.Insert(ctx, makeRecord("XYZ12345", "aaaa")))
	err := s.store.Insert(ctx, makeRecord("ABC99999", "aaaa"))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *MemoryStoreSuite) TestLookupMissing() {
	ctx := context.Background()

	_, err := s.store.GetByIdentifier(ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.GetByHash(ctx, "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)

	exists, err := s.store.ExistsByHash(ctx, "missing")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *MemoryStoreSuite) TestListByCreatorOrderedByBlock() {
	ctx := context.Background()

	later := makeRecord("ID2AAAAA", "hash2")
	later.BlockNumber = 700
	s.Require().NoError(s.store.Insert(ctx, later))
	s.Require().NoError(s.store.Insert(ctx, makeRecord("ID1AAAAA", "hash1")))

	other := makeRecord("ID3AAAAA", "hash3")
	other.CreatorAddress = "0xDEF"
	s.Require().NoError(s.store.Insert(ctx, other))

	records, err := s.store.ListByCreator(ctx, "0xABC")
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal("ID1AAAAA", records[0].Identifier)
	s.Equal("ID2AAAAA", records[1].Identifier)
}
