package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lazypower/lethe/internal/system"
)

// Server is the lethe HTTP API server. It is a read-mostly window onto
// a running system, plus a few control endpoints.
type Server struct {
	sys     *system.System
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server over the given system and version string.
func New(sys *system.System, version string) *Server {
	s := &Server{
		sys:     sys,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/capabilities", s.handleCapabilities)
		r.Get("/capabilities/{name}", s.handleCapability)
		r.Get("/history", s.handleHistory)
		r.Get("/checks", s.handleChecks)
		r.Get("/narrative", s.handleNarrative)

		r.Post("/decay", s.handleForceDecay)
		r.Post("/pause", s.handlePause)
		r.Post("/resume", s.handleResume)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sum := s.sys.Introspector().Summary()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"health":  sum.Health,
		"trend":   sum.Trend,
		"state":   s.sys.State(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
