package document_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"docseal/internal/audit"
	"docseal/internal/document"
	"docseal/internal/document/store"
	"docseal/pkg/apperrors"
)

const testPDF = "%PDF-1.4 test"

// sha-512 of testPDF, the digest Register must report for those exact bytes.
const testPDFHash = "0c2b7641e7978b7292d31b200c064d683a863b20869da2e3566906fd569fb93f" +
	"064768e262b44c196f0712da3826aeea1a05b7fb139bf8d8bfecbb299610294a"

type ServiceSuite struct {
	suite.Suite
	store   *store.MemoryStore
	service *document.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewMemory()

	var err error
	s.service, err = document.NewService(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestNewService() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.Run("nil store returns error", func() {
		_, err := document.NewService(nil, logger)
		s.Error(err)
	})

	s.Run("nil logger returns error", func() {
		_, err := document.NewService(s.store, nil)
		s.Error(err)
	})
}

func (s *ServiceSuite) TestRegisterUniqueDocument() {
	result, err := s.service.Register(context.Background(), []byte(testPDF), "test.pdf")
	s.Require().NoError(err)

	s.True(result.IsUnique)
	s.Len(result.Identifier, document.IdentifierLength)
	s.Equal(testPDFHash, result.ContentHash)
	s.Contains(result.Message, "ready for ledger registration")
}

func (s *ServiceSuite) TestRegisterRejectsNonPDF() {
	cases := map[string][]byte{
		"plain text": []byte("not a pdf"),
		"empty":      nil,
		"truncated":  []byte("%PD"),
	}
	for name, data := range cases {
		s.Run(name, func() {
			_, err := s.service.Register(context.Background(), data, "bad.bin")
			var appErr *apperrors.Error
			s.Require().ErrorAs(err, &appErr)
			s.Equal(apperrors.CodeInvalidFormat, appErr.Code)
		})
	}
}

func (s *ServiceSuite) TestRegisterDuplicateHashNamesExistingIdentifier() {
	ctx := context.Background()

	first, err := s.service.Register(ctx, []byte(testPDF), "test.pdf")
	s.Require().NoError(err)
	s.Require().True(first.IsUnique)

	// The record lands in the index once the ledger round trip completes;
	// simulate the reconciliation worker's insert.
	s.Require().NoError(s.store.Insert(ctx, &document.Record{
		Identifier:  first.Identifier,
		ContentHash: first.ContentHash,
	}))

	second, err := s.service.Register(ctx, []byte(testPDF), "copy.pdf")
	s.Require().NoError(err)
	s.False(second.IsUnique)
	s.Equal(first.Identifier, second.Identifier)
	s.Contains(second.Message, first.Identifier)
}

// Hash equality must dominate even when the fresh candidate identifier is
// free: the generator is pinned to a brand-new identifier and the duplicate
// must still be reported.
func (s *ServiceSuite) TestRegisterHashPriorityOverIdentifier() {
	ctx := context.Background()

	s.Require().NoError(s.store.Insert(ctx, &document.Record{
		Identifier:  "EXISTING1",
		ContentHash: document.Hash([]byte(testPDF)),
	}))

	svc, err := document.NewService(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)),
		document.WithGenerator(func(int) string { return "FRESHID1" }))
	s.Require().NoError(err)

	result, err := svc.Register(ctx, []byte(testPDF), "test.pdf")
	s.Require().NoError(err)
	s.False(result.IsUnique)
	s.Equal("EXISTING1", result.Identifier)
}

func (s *ServiceSuite) TestRegisterRetriesCollidingIdentifiers() {
	ctx := context.Background()

	// The first three candidates are already taken; the fourth is free.
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.store.Insert(ctx, &document.Record{
			Identifier:  fmt.Sprintf("TAKEN%03d", i),
			ContentHash: fmt.Sprintf("hash-%d", i),
		}))
	}
	svc, err := document.NewService(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)),
		document.WithGenerator(func(attempt int) string {
			if attempt < 3 {
				return fmt.Sprintf("TAKEN%03d", attempt)
			}
			return "FREEID01"
		}))
	s.Require().NoError(err)

	result, err := svc.Register(ctx, []byte(testPDF), "test.pdf")
	s.Require().NoError(err)
	s.True(result.IsUnique)
	s.Equal("FREEID01", result.Identifier)
}

func (s *ServiceSuite) TestRegisterGivesUpWhenEveryCandidateCollides() {
	ctx := context.Background()

	s.Require().NoError(s.store.Insert(ctx, &document.Record{
		Identifier:  "TAKEN001",
		ContentHash: "some-hash",
	}))
	svc, err := document.NewService(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)),
		document.WithGenerator(func(int) string { return "TAKEN001" }))
	s.Require().NoError(err)

	_, err = svc.Register(ctx, []byte(testPDF), "test.pdf")
	var appErr *apperrors.Error
	s.Require().ErrorAs(err, &appErr)
	s.Equal(apperrors.CodeInternal, appErr.Code)
}

func (s *ServiceSuite) TestVerifyByIdentifier() {
	ctx := context.Background()
	registered := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.Insert(ctx, &document.Record{
		Identifier:     "XYZ12345",
		ContentHash:    "abcd",
		CreatorAddress: "0xABC",
		RegisteredAt:   registered,
		BlockNumber:    500,
	}))

	result, err := s.service.Verify(ctx, document.VerifyRequest{Identifier: "XYZ12345"})
	s.Require().NoError(err)
	s.True(result.Verified)
	s.Equal("0xABC", result.Creator)
	s.Equal(registered.Format(time.RFC3339), result.Timestamp)
}

func (s *ServiceSuite) TestVerifyUnknownIdentifier() {
	result, err := s.service.Verify(context.Background(), document.VerifyRequest{Identifier: "NOPE0000"})
	s.Require().NoError(err)
	s.False(result.Verified)
	s.Empty(result.Timestamp)
	s.Empty(result.Creator)
}

func (s *ServiceSuite) TestVerifyByFile() {
	ctx := context.Background()

	s.Require().NoError(s.store.Insert(ctx, &document.Record{
		Identifier:     "XYZ12345",
		ContentHash:    document.Hash([]byte(testPDF)),
		CreatorAddress: "0xABC",
		RegisteredAt:   time.Now(),
	}))

	result, err := s.service.Verify(ctx, document.VerifyRequest{FileContent: []byte(testPDF)})
	s.Require().NoError(err)
	s.True(result.Verified)
}

// File beats identifier beats hash when several keys arrive together.
func (s *ServiceSuite) TestVerifyPrecedence() {
	ctx := context.Background()

	s.Require().NoError(s.store.Insert(ctx, &document.Record{
		Identifier:     "FILEDOC1",
		ContentHash:    document.Hash([]byte(testPDF)),
		CreatorAddress: "0xF11E",
		RegisteredAt:   time.Now(),
	}))
	s.Require().NoError(s.store.Insert(ctx, &document.Record{
		Identifier:     "IDDOC001",
		ContentHash:    "other-hash",
		CreatorAddress: "0x1D",
		RegisteredAt:   time.Now(),
	}))

	result, err := s.service.Verify(ctx, document.VerifyRequest{
		FileContent: []byte(testPDF),
		Identifier:  "IDDOC001",
		ContentHash: "other-hash",
	})
	s.Require().NoError(err)
	s.Require().True(result.Verified)
	s.Equal("0xF11E", result.Creator)

	result, err = s.service.Verify(ctx, document.VerifyRequest{
		Identifier:  "IDDOC001",
		ContentHash: document.Hash([]byte(testPDF)),
	})
	s.Require().NoError(err)
	s.Require().True(result.Verified)
	s.Equal("0x1D", result.Creator)
}

func (s *ServiceSuite) TestVerifyWithoutKeyFails() {
	_, err := s.service.Verify(context.Background(), document.VerifyRequest{})
	var appErr *apperrors.Error
	s.Require().ErrorAs(err, &appErr)
	s.Equal(apperrors.CodeMissingInput, appErr.Code)
}

type recordingSink struct {
	events []audit.Event
}

func (r *recordingSink) Emit(_ context.Context, event audit.Event) {
	r.events = append(r.events, event)
}

func (s *ServiceSuite) TestAuditEventsEmitted() {
	sink := &recordingSink{}
	svc, err := document.NewService(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)),
		document.WithAuditor(sink))
	s.Require().NoError(err)

	_, err = svc.Register(context.Background(), []byte(testPDF), "test.pdf")
	s.Require().NoError(err)

	_, err = svc.Verify(context.Background(), document.VerifyRequest{Identifier: "NOPE0000"})
	s.Require().NoError(err)

	s.Require().Len(sink.events, 2)
	s.Equal(audit.ActionRegister, sink.events[0].Action)
	s.Equal("unique", sink.events[0].Outcome)
	s.Equal(audit.ActionVerify, sink.events[1].Action)
	s.Equal("unverified", sink.events[1].Outcome)
}

// The sentinel conflict from the storage layer is not silently treated as
// success: identifier candidates that fail lookup with a real error surface.
func (s *ServiceSuite) TestRegisterPropagatesStoreFailures() {
	svc, err := document.NewService(failingStore{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)

	_, err = svc.Register(context.Background(), []byte(testPDF), "test.pdf")
	s.Error(err)
}

type failingStore struct{}

func (failingStore) GetByIdentifier(context.Context, string) (*document.Record, error) {
	return nil, fmt.Errorf("boom")
}

func (failingStore) GetByHash(context.Context, string) (*document.Record, error) {
	return nil, fmt.Errorf("boom")
}
