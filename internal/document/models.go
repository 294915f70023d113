package document

import "time"

// Record is the unit of registered-document truth held by the local index.
// Identifier and ContentHash are each globally unique; the storage layer
// enforces both so the index doubles as the concurrency guard.
type Record struct {
	Identifier     string
	ContentHash    string
	CreatorAddress string
	RegisteredAt   time.Time
	BlockNumber    int64
}

// RegisterResult is the outcome of processing an uploaded document. IsUnique
// false means the content hash is already registered; the message names the
// existing identifier.
type RegisterResult struct {
	Identifier  string `json:"verification_id"`
	ContentHash string `json:"document_hash"`
	IsUnique    bool   `json:"is_unique"`
	Message     string `json:"message"`
}

// VerifyResult reports whether a lookup key resolved to a registered record.
// Not-found is a successful Verified=false outcome, not an error.
type VerifyResult struct {
	Verified  bool   `json:"verified"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
	Creator   string `json:"creator,omitempty"`
}

// VerifyRequest carries exactly one lookup key. Precedence when several are
// supplied: file content, then identifier, then hash.
type VerifyRequest struct {
	FileContent []byte
	Identifier  string
	ContentHash string
}
