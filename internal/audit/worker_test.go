package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisherAssignsIDAndTimestamp(t *testing.T) {
	pub := NewPublisher(4, discardLogger())
	pub.Emit(context.Background(), Event{Action: ActionRegister, Outcome: "unique"})

	select {
	case event := <-pub.Inbox():
		assert.NotEqual(t, uuid.Nil, event.ID)
		assert.False(t, event.OccurredAt.IsZero())
	default:
		t.Fatal("expected a queued event")
	}
}

func TestPublisherDropsWhenFull(t *testing.T) {
	pub := NewPublisher(1, discardLogger())
	ctx := context.Background()

	pub.Emit(ctx, Event{Action: ActionRegister, Outcome: "unique"})
	// Buffer is full; this must not block.
	done := make(chan struct{})
	go func() {
		pub.Emit(ctx, Event{Action: ActionVerify, Outcome: "verified"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full buffer")
	}
}

func TestWorkerDrainsToStore(t *testing.T) {
	store := NewMemoryStore()
	pub := NewPublisher(4, discardLogger())
	worker := NewWorker(store, pub.Inbox(), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan error, 1)
	go func() { finished <- worker.Run(ctx) }()

	pub.Emit(ctx, Event{Action: ActionRegister, Identifier: "XYZ12345", Outcome: "unique"})

	require.Eventually(t, func() bool {
		events, err := store.ListRecent(context.Background(), 10)
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-finished, context.Canceled)

	events, err := store.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "XYZ12345", events[0].Identifier)
	assert.Equal(t, ActionRegister, events[0].Action)
}
