//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docseal/internal/document"
	"docseal/internal/document/store"
	"docseal/internal/platform/postgres"
	"docseal/pkg/platform/sentinel"
	"docseal/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(postgres.EnsureSchema(context.Background(), s.postgres.DB))
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	_ = s.postgres.DB.Close()
	_ = s.postgres.Container.Terminate(context.Background())
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "document_records"))
}

func (s *PostgresStoreSuite) record(identifier, hash string) *document.Record {
	return &document.Record{
		Identifier:     identifier,
		ContentHash:    hash,
		CreatorAddress: "0xabc0000000000000000000000000000000000001",
		BlockNumber:    500,
	}
}

func (s *PostgresStoreSuite) TestInsertAndLookup() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, s.record("XYZ12345", "hash-1")))

	byID, err := s.store.GetByIdentifier(ctx, "XYZ12345")
	s.Require().NoError(err)
	s.Equal("hash-1", byID.ContentHash)
	s.Equal(int64(500), byID.BlockNumber)
	s.WithinDuration(time.Now(), byID.RegisteredAt, time.Minute)

	byHash, err := s.store.GetByHash(ctx, "hash-1")
	s.Require().NoError(err)
	s.Equal("XYZ12345", byHash.Identifier)
}

func (s *PostgresStoreSuite) TestInsertIdempotentOnIdentifier() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, s.record("XYZ12345", "hash-1")))

	// Re-scan of the same ledger event: same identifier, absorbed silently.
	s.Require().NoError(s.store.Insert(ctx, s.record("XYZ12345", "hash-1")))

	record, err := s.store.GetByIdentifier(ctx, "XYZ12345")
	s.Require().NoError(err)
	s.Equal("hash-1", record.ContentHash)
}

func (s *PostgresStoreSuite) TestInsertConflictingHash() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, s.record("XYZ12345", "hash-1")))

	err := s.store.Insert(ctx, s.record("OTHER001", "hash-1"))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestLookupMissing() {
	ctx := context.Background()

	_, err := s.store.GetByIdentifier(ctx, "NOPE0000")
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.GetByHash(ctx, "missing-hash")
	s.ErrorIs(err, sentinel.ErrNotFound)

	exists, err := s.store.ExistsByHash(ctx, "missing-hash")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *PostgresStoreSuite) TestExistsByHash() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, s.record("XYZ12345", "hash-1")))

	exists, err := s.store.ExistsByHash(ctx, "hash-1")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *PostgresStoreSuite) TestListByCreatorOrderedByBlock() {
	ctx := context.Background()

	later := s.record("BBB22222", "hash-b")
	later.BlockNumber = 700
	earlier := s.record("AAA11111", "hash-a")
	earlier.BlockNumber = 300
	other := s.record("CCC33333", "hash-c")
	other.CreatorAddress = "0xdef0000000000000000000000000000000000002"

	s.Require().NoError(s.store.Insert(ctx, later))
	s.Require().NoError(s.store.Insert(ctx, earlier))
	s.Require().NoError(s.store.Insert(ctx, other))

	records, err := s.store.ListByCreator(ctx, "0xabc0000000000000000000000000000000000001")
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal("AAA11111", records[0].Identifier)
	s.Equal("BBB22222", records[1].Identifier)
}
