// Package httpserver builds the registry's HTTP server.
package httpserver

import (
	"net/http"
	"time"
)

// New builds the server for the registry endpoints. Header reads are bounded
// to shed stalled connections; there is no whole-request ReadTimeout because
// document uploads are multipart bodies of unpredictable size.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}
