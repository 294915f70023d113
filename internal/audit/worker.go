package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from the publisher channel and persists them.
// Append failures are logged and skipped; the trail is best-effort and must
// never take the worker down.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.Error("audit append failed",
					"action", event.Action, "error", err)
			}
		}
	}
}
