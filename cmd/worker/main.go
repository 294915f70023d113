// Command worker runs the ledger reconciliation loop as a standalone process,
// for deployments that separate the HTTP registry from event ingestion.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"docseal/internal/document/store"
	"docseal/internal/ledger"
	"docseal/internal/platform/config"
	"docseal/internal/platform/logger"
	"docseal/internal/platform/postgres"
	"docseal/internal/reconcile"
	reconcilemetrics "docseal/internal/reconcile/metrics"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ledgerClient := ledger.NewRPCClient(cfg.Ledger.RPCURL, cfg.Ledger.ContractAddress, log)

	worker, err := reconcile.NewWorker(ledgerClient, store.NewPostgres(db),
		reconcile.NewFileCursor(cfg.CursorFile), log,
		reconcile.WithInterval(cfg.ScanInterval),
		reconcile.WithMetrics(reconcilemetrics.New()),
	)
	if err != nil {
		log.Error("worker construction failed", "error", err)
		os.Exit(1)
	}

	// Unlike the combined server, a dedicated worker process has nothing to
	// serve without the ledger, so an unreachable node is fatal.
	if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker exited", "error", err)
		os.Exit(1)
	}
	log.Info("worker stopped")
}
