package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and the ledger client
// return these (optionally wrapped) so services can translate them into
// domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in the index
// - ErrConflict: a storage uniqueness constraint rejected the write
// - ErrUnavailable: the ledger (or another backing resource) cannot be reached
//
// For validation errors (bad input, missing fields), use pkg/apperrors.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
