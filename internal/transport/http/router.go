// Package httptransport assembles the public HTTP surface: middleware chain,
// health endpoint, metrics, and the document registry routes.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docseal/pkg/platform/httputil"
	"docseal/pkg/platform/middleware/requestid"
	"docseal/pkg/platform/middleware/requestlog"
	"docseal/pkg/platform/middleware/requesttime"
)

// Registrar mounts a group of routes on the router. Domain handlers
// implement it.
type Registrar interface {
	Register(r chi.Router)
}

// LedgerStatus reports ledger connectivity for the health endpoint.
type LedgerStatus interface {
	IsConnected(ctx context.Context) bool
}

// New builds the router. A nil ledger reports ledger_connected=false rather
// than failing health outright; the registry serves local lookups either way.
func New(logger *slog.Logger, ledger LedgerStatus, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(requestlog.Middleware(logger))

	r.Get("/", healthHandler(ledger))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	for _, h := range handlers {
		h.Register(r)
	}
	return r
}

func healthHandler(ledger LedgerStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connected := false
		if ledger != nil {
			connected = ledger.IsConnected(r.Context())
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"status":           "running",
			"service":          "document verification",
			"ledger_connected": connected,
		})
	}
}
