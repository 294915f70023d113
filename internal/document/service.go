package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"docseal/internal/audit"
	"docseal/internal/document/metrics"
	"docseal/pkg/apperrors"
	"docseal/pkg/platform/sentinel"
	"docseal/pkg/requestcontext"
)

// Store is the subset of the local index the service needs. The storage layer
// implements it; tests substitute fakes.
type Store interface {
	GetByIdentifier(ctx context.Context, identifier string) (*Record, error)
	GetByHash(ctx context.Context, contentHash string) (*Record, error)
}

// AuditSink records registry operations. Emitting must never block or fail
// the request path.
type AuditSink interface {
	Emit(ctx context.Context, event audit.Event)
}

// maxIdentifierAttempts bounds the collision-regeneration loop. The
// identifier space is 62^8, so the birthday bound makes even a handful of
// retries astronomically unlikely; the ceiling exists so termination is a
// property, not an assumption.
const maxIdentifierAttempts = 4096

// Service orchestrates document hashing, local uniqueness resolution, and
// verification lookups. It never writes to the ledger: on-chain submission
// happens out of band after the caller receives a unique identifier.
type Service struct {
	store   Store
	auditor AuditSink
	metrics *metrics.Metrics
	logger  *slog.Logger

	// generate yields identifier candidates per attempt; injectable so
	// collision tests control the sequence.
	generate func(attempt int) string
}

// Option configures the Service.
type Option func(*Service)

// WithGenerator overrides the identifier candidate source.
func WithGenerator(generate func(attempt int) string) Option {
	return func(s *Service) {
		if generate != nil {
			s.generate = generate
		}
	}
}

// WithAuditor attaches an audit sink.
func WithAuditor(auditor AuditSink) Option {
	return func(s *Service) {
		s.auditor = auditor
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func NewService(store Store, logger *slog.Logger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	s := &Service{
		store:    store,
		logger:   logger,
		generate: defaultGenerate,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// defaultGenerate seeds the first candidate from Unix seconds; retries use a
// nanosecond seed so a regeneration inside the same second cannot reproduce
// the colliding identifier.
func defaultGenerate(attempt int) string {
	if attempt == 0 {
		return NewIdentifier()
	}
	return GenerateIdentifier(time.Now().UnixNano())
}

// Register validates the upload, computes its content hash, and resolves a
// unique identifier against the local index. Content equality always wins
// over identifier collision: an already-registered hash is reported as
// non-unique regardless of the candidate identifier.
func (s *Service) Register(ctx context.Context, data []byte, filename string) (*RegisterResult, error) {
	if !ValidatePDF(data) {
		s.metrics.RecordRegistration("rejected")
		s.emit(ctx, audit.ActionRegister, "", "", "rejected")
		return nil, apperrors.New(apperrors.CodeInvalidFormat, "file is not a PDF document")
	}

	contentHash := Hash(data)

	existing, err := s.store.GetByHash(ctx, contentHash)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("look up content hash: %w", err)
	}
	if existing != nil {
		s.metrics.RecordRegistration("duplicate")
		s.emit(ctx, audit.ActionRegister, existing.Identifier, contentHash, "duplicate")
		s.logger.Info("duplicate document rejected",
			"filename", filename, "existing_id", existing.Identifier)
		return &RegisterResult{
			Identifier:  existing.Identifier,
			ContentHash: contentHash,
			IsUnique:    false,
			Message:     fmt.Sprintf("document already registered with ID: %s", existing.Identifier),
		}, nil
	}

	identifier, err := s.resolveIdentifier(ctx)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordRegistration("unique")
	s.emit(ctx, audit.ActionRegister, identifier, contentHash, "unique")
	s.logger.Info("document processed",
		"filename", filename, "verification_id", identifier)
	return &RegisterResult{
		Identifier:  identifier,
		ContentHash: contentHash,
		IsUnique:    true,
		Message:     "document is ready for ledger registration",
	}, nil
}

// resolveIdentifier loops until a generated candidate is free in the index.
// Identifier collisions are expected for registrations within the same
// second; each retry draws a fresh timestamp seed.
func (s *Service) resolveIdentifier(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxIdentifierAttempts; attempt++ {
		candidate := s.generate(attempt)
		_, err := s.store.GetByIdentifier(ctx, candidate)
		if errors.Is(err, sentinel.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("look up identifier candidate: %w", err)
		}
		s.metrics.RecordIdentifierCollision()
		s.logger.Debug("identifier collision, regenerating", "candidate", candidate)
	}
	return "", apperrors.New(apperrors.CodeInternal, "could not allocate a unique identifier")
}

// Verify resolves exactly one lookup key against the local index. Precedence
// when several are supplied: file content, then identifier, then hash.
// An absent record is a successful Verified=false outcome.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	var (
		record *Record
		err    error
	)
	switch {
	case len(req.FileContent) > 0:
		if !ValidatePDF(req.FileContent) {
			return nil, apperrors.New(apperrors.CodeInvalidFormat, "file is not a PDF document")
		}
		record, err = s.store.GetByHash(ctx, Hash(req.FileContent))
	case req.Identifier != "":
		record, err = s.store.GetByIdentifier(ctx, req.Identifier)
	case req.ContentHash != "":
		record, err = s.store.GetByHash(ctx, req.ContentHash)
	default:
		return nil, apperrors.New(apperrors.CodeMissingInput, "provide a file, verification_id, or document_hash")
	}

	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("verification lookup: %w", err)
	}

	if record == nil {
		s.metrics.RecordVerification(false)
		s.emit(ctx, audit.ActionVerify, req.Identifier, req.ContentHash, "unverified")
		return &VerifyResult{
			Verified: false,
			Message:  "document not found in the registry",
		}, nil
	}

	s.metrics.RecordVerification(true)
	s.emit(ctx, audit.ActionVerify, record.Identifier, record.ContentHash, "verified")
	return &VerifyResult{
		Verified:  true,
		Message:   "document found in the registry",
		Timestamp: record.RegisteredAt.Format(time.RFC3339),
		Creator:   record.CreatorAddress,
	}, nil
}

func (s *Service) emit(ctx context.Context, action audit.Action, identifier, contentHash, outcome string) {
	if s.auditor == nil {
		return
	}
	s.auditor.Emit(ctx, audit.Event{
		Action:      action,
		Identifier:  identifier,
		ContentHash: contentHash,
		Outcome:     outcome,
		OccurredAt:  requestcontext.Now(ctx),
	})
}
