// Package httpapi exposes the secret lifecycle over HTTP. Routing is a
// plain net/http mux with method patterns; the real behavior lives in the
// lifecycle service this package delegates to.
package httpapi

import (
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sealbox/sealbox/internal/lifecycle"
	"github.com/sealbox/sealbox/internal/logging"
	"github.com/sealbox/sealbox/pkg/schema"
)

// maxBodyBytes caps POST /secret bodies.
const maxBodyBytes = 1 << 20

// Deps holds the dependencies for the API server.
type Deps struct {
	Service   *lifecycle.Service
	Validator *schema.RequestValidator
	Logger    *slog.Logger
}

// Server serves the secret-sharing HTTP API.
type Server struct {
	deps Deps
}

// NewServer creates a Server.
func NewServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return &Server{deps: deps}
}

// Handler returns the HTTP handler for the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /secret", s.handleCreate)
	mux.HandleFunc("GET /secret/{key}", s.handleRead)
	mux.HandleFunc("DELETE /secret/{key}", s.handleDelete)

	return s.middleware(mux)
}

// middleware adds correlation context, access logging and the no-store
// response headers that keep proxies from retaining secret payloads.
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequestID(r.Context(), uuid.NewString())
		ctx = logging.WithOrigin(ctx, clientAddr(r))

		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		s.deps.Logger.InfoContext(ctx, "request",
			"method", r.Method, "path", r.URL.Path, "duration_ms", time.Since(start).Milliseconds())
	})
}

// clientAddr resolves the originating address, honoring the first
// X-Forwarded-For hop when present.
func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
