// Package gateway serves the HTTP API: agent listings, single-agent chat,
// streamed single-agent and collaboration sessions, and the company profile.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"engram/internal/agent"
	"engram/internal/channels"
	"engram/internal/company"
	"engram/internal/orchestrator"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const Version = "2.0"

// ProfileStore reads and merges the company profile.
type ProfileStore interface {
	Load(ctx context.Context) (company.Profile, error)
	Save(ctx context.Context, update map[string]string) (company.Profile, error)
}

type Options struct {
	Heartbeat      time.Duration
	AllowedOrigins []string
}

type Server struct {
	orch      *orchestrator.Orchestrator
	catalog   *agent.Catalog
	profiles  ProfileStore
	heartbeat time.Duration
	origins   map[string]bool
	mux       *http.ServeMux
}

func NewServer(orch *orchestrator.Orchestrator, catalog *agent.Catalog, profiles ProfileStore, opts Options, chs ...channels.Channel) *Server {
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = time.Second
	}
	s := &Server{
		orch:      orch,
		catalog:   catalog,
		profiles:  profiles,
		heartbeat: opts.Heartbeat,
		origins:   make(map[string]bool, len(opts.AllowedOrigins)),
		mux:       http.NewServeMux(),
	}
	for _, o := range opts.AllowedOrigins {
		s.origins[strings.TrimRight(o, "/")] = true
	}
	s.routes()
	for _, ch := range chs {
		ch.RegisterRoutes(s.mux)
	}
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /agents", s.handleAgents)
	s.mux.HandleFunc("POST /chat", s.handleChat)
	s.mux.HandleFunc("POST /chat/stream", s.handleChatStream)
	s.mux.HandleFunc("POST /agora/collaborate", s.handleCollaborate)
	s.mux.HandleFunc("GET /api/company-profile", s.handleGetProfile)
	s.mux.HandleFunc("PATCH /api/company-profile", s.handlePatchProfile)
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.cors(otelhttp.NewHandler(s.mux, "gateway"))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gateway: listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("gateway: shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (s.origins[origin] || s.origins["*"]) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Expose-Headers", "X-Session-ID")
			h.Add("Vary", "Origin")
			if r.Method == http.MethodOptions {
				h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
				if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
					h.Set("Access-Control-Allow-Headers", req)
				} else {
					h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
