// Package reconcile tails DocumentStored ledger events and converges the
// local index with on-chain state. Convergence is best-effort and
// at-most-once per identifier: re-scans after a crash are safe because index
// inserts are idempotent.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"docseal/internal/document"
	"docseal/internal/ledger"
	"docseal/internal/reconcile/metrics"
	"docseal/pkg/platform/sentinel"
)

// backfillWindow bounds the first-run scan: with no persisted cursor the
// worker starts at latest-100 instead of replaying the whole chain. A deleted
// cursor file on a long-lived deployment therefore silently skips older
// events; the WARN log on fallback is the operator's tripwire.
const backfillWindow = 100

// defaultScanInterval matches the original deployment's poll cadence.
const defaultScanInterval = 10 * time.Second

// State is the worker lifecycle state.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// ErrLedgerUnreachable is the only worker-fatal condition: the connectivity
// check at Start failed. The worker does not retry connecting; the operator
// restarts it.
var ErrLedgerUnreachable = errors.New("ledger unreachable, worker not started")

// Store is the slice of the local index the worker writes through.
type Store interface {
	Insert(ctx context.Context, record *document.Record) error
}

// Worker is the reconciliation loop. A single instance runs per process and
// never overlaps iterations: each one fully completes, sleep included, before
// the next begins.
type Worker struct {
	ledger   ledger.Client
	store    Store
	cursor   CursorStore
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics

	state  atomic.Int32
	mu     sync.Mutex
	stopCh chan struct{}
}

// Option configures the Worker.
type Option func(*Worker)

// WithInterval overrides the poll interval (tests use milliseconds).
func WithInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func NewWorker(client ledger.Client, store Store, cursor CursorStore, logger *slog.Logger, opts ...Option) (*Worker, error) {
	if client == nil {
		return nil, fmt.Errorf("ledger client is required")
	}
	if store == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if cursor == nil {
		return nil, fmt.Errorf("cursor store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	w := &Worker{
		ledger:   client,
		store:    store,
		cursor:   cursor,
		interval: defaultScanInterval,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// State reports the current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Start runs the poll loop until Stop is called or ctx is cancelled. It
// returns ErrLedgerUnreachable without entering the loop when the initial
// connectivity check fails. Once Start has returned, the worker is back in
// StateStopped and Start may be called again.
func (w *Worker) Start(ctx context.Context) error {
	if !w.state.CompareAndSwap(int32(StateStopped), int32(StateStarting)) {
		return fmt.Errorf("worker already %s", w.State())
	}

	w.mu.Lock()
	stopCh := make(chan struct{})
	w.stopCh = stopCh
	w.mu.Unlock()

	if !w.ledger.IsConnected(ctx) {
		w.state.Store(int32(StateStopped))
		w.logger.Error("ledger connectivity check failed, worker not started")
		return ErrLedgerUnreachable
	}

	w.state.Store(int32(StateRunning))
	w.logger.Info("reconciliation worker started", "interval", w.interval)

	for {
		if err := w.ProcessNewEvents(ctx); err != nil {
			// Iteration failures are transient by assumption: log and let
			// the next tick retry. Only Start-time connectivity is fatal.
			w.logger.Error("reconciliation iteration failed", "error", err)
		}
		w.metrics.RecordIteration()

		select {
		case <-ctx.Done():
			w.shutdown()
			return ctx.Err()
		case <-stopCh:
			w.shutdown()
			return nil
		case <-time.After(w.interval):
		}
	}
}

// Stop requests a cooperative shutdown: the loop exits after its current
// iteration and sleep. Not preemptive; in-flight ledger calls complete first.
// Stop on a worker that is not running is a no-op.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		return
	}
	w.logger.Info("reconciliation worker stopping")
	close(w.stopCh)
}

func (w *Worker) shutdown() {
	w.state.Store(int32(StateStopped))
	w.logger.Info("reconciliation worker stopped")
}

// ProcessNewEvents executes one poll iteration: read cursor, fetch the block
// range, resolve each event, persist the cursor. Exported so tests can drive
// iterations without timers.
func (w *Worker) ProcessNewEvents(ctx context.Context) error {
	lastBlock, err := w.loadCursor(ctx)
	if err != nil {
		return err
	}

	currentBlock, err := w.ledger.LatestBlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("read latest block: %w", err)
	}
	if currentBlock <= lastBlock {
		w.logger.Debug("no new blocks", "last", lastBlock, "current", currentBlock)
		return nil
	}

	w.logger.Info("scanning blocks", "from", lastBlock+1, "to", currentBlock)
	events, err := w.ledger.StoredEvents(ctx, lastBlock+1, currentBlock)
	if err != nil {
		// Cursor stays put so the range is re-scanned next tick.
		return fmt.Errorf("fetch events [%d,%d]: %w", lastBlock+1, currentBlock, err)
	}

	for _, event := range events {
		if err := w.resolveEvent(ctx, event); err != nil {
			// A single bad event never blocks the rest of the batch.
			w.metrics.RecordEventSkipped()
			w.logger.Error("event skipped",
				"creator", event.CreatorAddress,
				"block", event.BlockNumber,
				"tx", event.TransactionHash,
				"error", err)
			continue
		}
		w.metrics.RecordEventProcessed()
	}

	// Persist only after the whole batch was attempted: a crash mid-batch
	// re-scans the range, which idempotent inserts make safe.
	if err := w.cursor.Save(ctx, currentBlock); err != nil {
		return fmt.Errorf("persist cursor: %w", err)
	}
	w.metrics.SetCursorBlock(currentBlock)
	if len(events) > 0 {
		w.logger.Info("events processed", "count", len(events), "cursor", currentBlock)
	}
	return nil
}

func (w *Worker) loadCursor(ctx context.Context) (int64, error) {
	lastBlock, found, err := w.cursor.Load(ctx)
	if err == nil && found {
		return lastBlock, nil
	}

	currentBlock, heightErr := w.ledger.LatestBlockNumber(ctx)
	if heightErr != nil {
		return 0, fmt.Errorf("read latest block for cursor default: %w", heightErr)
	}
	fallback := currentBlock - backfillWindow
	if fallback < 0 {
		fallback = 0
	}
	if err != nil {
		w.logger.Warn("cursor unreadable, using backfill default", "default", fallback, "error", err)
	} else {
		w.logger.Warn("no cursor found, using backfill default", "default", fallback)
	}
	return fallback, nil
}

// resolveEvent maps a DocumentStored event to a concrete record. The event
// does not carry the identifier, so the creator's document list is consulted
// and its last element taken as the freshly registered document. This assumes
// the ledger appends per creator; concurrent registrations by one creator
// inside a single poll window can misattribute, which is accepted behavior.
func (w *Worker) resolveEvent(ctx context.Context, event ledger.Event) error {
	ids, err := w.ledger.DocumentsByCreator(ctx, event.CreatorAddress)
	if err != nil {
		return fmt.Errorf("list creator documents: %w", err)
	}
	if len(ids) == 0 {
		return fmt.Errorf("creator has no documents on ledger")
	}

	identifier := ids[len(ids)-1]
	doc, err := w.ledger.DocumentByID(ctx, identifier)
	if err != nil {
		return fmt.Errorf("fetch document %s: %w", identifier, err)
	}

	record := &document.Record{
		Identifier:     doc.Identifier,
		ContentHash:    doc.ContentHash,
		CreatorAddress: event.CreatorAddress,
		BlockNumber:    event.BlockNumber,
	}
	if err := w.store.Insert(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Hash already indexed under another identifier; converged enough.
			w.logger.Debug("record already indexed", "identifier", doc.Identifier)
			return nil
		}
		return fmt.Errorf("insert record %s: %w", doc.Identifier, err)
	}
	w.logger.Info("record reconciled",
		"identifier", doc.Identifier, "creator", event.CreatorAddress, "block", event.BlockNumber)
	return nil
}
