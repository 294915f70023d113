package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action identifies the operation an audit event describes.
type Action string

const (
	ActionRegister Action = "document.register"
	ActionVerify   Action = "document.verify"
)

// Event is one audited registry operation. Identifier and ContentHash are
// optional; rejected uploads have neither.
type Event struct {
	ID          uuid.UUID
	Action      Action
	Identifier  string
	ContentHash string
	Outcome     string
	OccurredAt  time.Time
}

// Store is an append-only sink for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
