package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"docseal/internal/audit"
	"docseal/internal/document"
	"docseal/internal/document/handler"
	docmetrics "docseal/internal/document/metrics"
	"docseal/internal/document/store"
	"docseal/internal/document/store/cache"
	"docseal/internal/ledger"
	"docseal/internal/platform/config"
	"docseal/internal/platform/httpserver"
	"docseal/internal/platform/logger"
	"docseal/internal/platform/postgres"
	"docseal/internal/platform/redis"
	"docseal/internal/reconcile"
	reconcilemetrics "docseal/internal/reconcile/metrics"
	httptransport "docseal/internal/transport/http"
)

// main wires dependencies and delegates to run so every exit path releases
// resources through defers.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	var docStore store.Store = store.NewPostgres(db)

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		// The cache is an optimization; a broken Redis must not keep the
		// registry down.
		log.Warn("redis unavailable, verification cache disabled", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		docStore = cache.New(docStore, redisClient.Client, cfg.Redis.CacheTTL, log)
		log.Info("verification cache enabled", "ttl", cfg.Redis.CacheTTL)
	}

	ledgerClient := ledger.NewRPCClient(cfg.Ledger.RPCURL, cfg.Ledger.ContractAddress, log)

	publisher := audit.NewPublisher(256, log)
	auditWorker := audit.NewWorker(audit.NewPostgresStore(db), publisher.Inbox(), log)

	service, err := document.NewService(docStore, log,
		document.WithAuditor(publisher),
		document.WithMetrics(docmetrics.New()),
	)
	if err != nil {
		return err
	}

	reconciler, err := reconcile.NewWorker(ledgerClient, docStore,
		reconcile.NewFileCursor(cfg.CursorFile), log,
		reconcile.WithInterval(cfg.ScanInterval),
		reconcile.WithMetrics(reconcilemetrics.New()),
	)
	if err != nil {
		return err
	}

	router := httptransport.New(log, ledgerClient, handler.New(service, log))
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		if err := auditWorker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := reconciler.Start(gctx)
		switch {
		case errors.Is(err, reconcile.ErrLedgerUnreachable):
			// The registry still answers local verifications; reconciliation
			// resumes on the next process restart.
			log.Warn("reconciliation disabled", "error", err)
			return nil
		case errors.Is(err, context.Canceled):
			return nil
		default:
			return err
		}
	})

	err = g.Wait()
	log.Info("server stopped")
	return err
}
