package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"
)

// Option configures a Server at construction time.
type Option func(*Server)

// WithReadyCheck installs the probe /readyz reports. Without one,
// /readyz always reports ready.
func WithReadyCheck(check ReadyCheck) Option {
	return func(s *Server) {
		s.ready = check
	}
}

// New initializes the server with its default routers.
func New(l hclog.Logger, opts ...Option) (*Server, error) {
	s := Server{
		l: l.Named("http"),
		r: chi.NewRouter(),
		n: &http.Server{},
	}

	for _, opt := range opts {
		opt(&s)
	}

	s.r.Use(middleware.Logger)
	s.r.Use(middleware.Heartbeat("/healthz"))

	s.r.Get("/", s.rootIndex)
	s.r.Get("/readyz", s.readyIndex)

	return &s, nil
}

// Serve binds, initializes the mux, and serves forever.
func (s *Server) Serve(bind string) error {
	s.l.Info("HTTP is starting")
	s.n.Addr = bind
	s.n.Handler = s.r
	return s.n.ListenAndServe()
}

func (s *Server) rootIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"service": "lockarbiter",
		"status":  "running",
		"time":    time.Now().UTC(),
	})
}

// readyIndex reports whether the daemon's configured ReadyCheck
// passes. A 503 here tells an orchestrator to hold off routing build
// events to this instance rather than have them fail against a
// registry or lock store that isn't up yet.
func (s *Server) readyIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.ready == nil {
		_ = json.NewEncoder(w).Encode(map[string]any{"ready": true})
		return
	}
	if err := s.ready(); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]any{"ready": false, "error": err.Error()})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"ready": true})
}

// Mount attaches a set of routes to the subpath specified by the path
// argument.
func (s *Server) Mount(path string, router chi.Router) {
	s.r.Mount(path, router)
}
