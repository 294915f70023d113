// Package requestid assigns every request a correlation ID. Inbound
// X-Request-ID values are honored so IDs survive proxy hops; otherwise a
// fresh UUID is minted. The ID is echoed on the response and placed in the
// context for handlers and log lines.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"docseal/pkg/requestcontext"
)

// Header is the request ID header read and written by the middleware.
const Header = "X-Request-ID"

// Middleware injects a request ID into the context and response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(Header, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
