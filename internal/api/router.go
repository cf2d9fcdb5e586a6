// Package api implements the HTTP surface of gistrelay: route
// registration, the gist document and file handlers, filename validation
// and the CORS/security-header middleware.
package api

import (
	"net/http"

	"github.com/relaykit/gistrelay/internal/auth"
	"github.com/relaykit/gistrelay/internal/server"
)

// NewHandler builds the full handler tree: routes, the authentication
// gate on /api, and the CORS, security-header and request-logging
// middleware around everything.
func NewHandler(srv server.Server) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/", http.HandlerFunc(rootHandler))

	gists := auth.Middleware(srv.Config, srv.Logger, GistHandler(srv))
	mux.Handle("/api/gist", gists)
	mux.Handle("/api/gist/", gists)

	// Unknown /api paths still pass through the gate so they cannot be
	// used to probe the route table unauthenticated.
	mux.Handle("/api/", auth.Middleware(srv.Config, srv.Logger,
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Not found", http.StatusNotFound)
		})))

	return WithCORS(WithSecurityHeaders(WithRequestLogging(srv.Logger, mux)))
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("GitHub Gist API - Use /api/gist endpoints"))
}
