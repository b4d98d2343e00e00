// Package httpserver holds the http.Server defaults so main stays small.
package httpserver

import (
	"net/http"
	"time"
)

// New returns an http.Server with timeouts suitable for a public endpoint.
// The write timeout leaves room for a slow federation call plus response
// encoding.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
