// Package server provides the HTTP server setup and wiring.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pendergraft/launchcache/internal/apperror"
	companyTransport "github.com/pendergraft/launchcache/internal/company/transport"
	"github.com/pendergraft/launchcache/internal/config"
	launchesTransport "github.com/pendergraft/launchcache/internal/launches/transport"
	"github.com/pendergraft/launchcache/internal/middleware/logging"
	"github.com/pendergraft/launchcache/internal/middleware/ratelimit"
	"github.com/pendergraft/launchcache/internal/middleware/realip"
	"github.com/pendergraft/launchcache/internal/middleware/security"
	"github.com/pendergraft/launchcache/internal/observability/metrics"
	"github.com/pendergraft/launchcache/internal/preferences"
	preferencesTransport "github.com/pendergraft/launchcache/internal/preferences/transport"
	"github.com/pendergraft/launchcache/internal/repositories"
	rocketsTransport "github.com/pendergraft/launchcache/internal/rockets/transport"
)

// Check is one readiness probe, e.g. a store round trip
type Check func(ctx context.Context) error

// Upstream reports whether the remote API is currently reachable
type Upstream interface {
	IsConnected() bool
}

// Deps are the services the routes are built on
type Deps struct {
	Repos       *repositories.Repositories
	Preferences preferences.Service
	Checks      map[string]Check
	Upstream    Upstream
}

// Server is the HTTP server
type Server struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger
	router *chi.Mux

	stopRateLimit func()
}

// New creates a new server
func New(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		router: chi.NewRouter(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases background work owned by the middleware stack
func (s *Server) Close() {
	if s.stopRateLimit != nil {
		s.stopRateLimit()
	}
}

func (s *Server) setupMiddleware() {
	// Request ID and client IP come first so every later layer can log them.
	s.router.Use(middleware.RequestID)
	s.router.Use(realip.Middleware(realip.FromConfig(s.cfg.Proxy)))

	s.router.Use(security.MaxBodySize(s.cfg.Security.MaxBodySizeKB))

	limit, stop := ratelimit.Middleware(s.cfg.RateLimit)
	s.stopRateLimit = stop
	s.router.Use(limit)

	s.router.Use(logging.Middleware(s.logger))
	s.router.Use(metrics.Middleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Retry-After", "X-Request-ID"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apperror.WriteBody(w, http.StatusNotFound, apperror.NotFound("No route for "+r.URL.Path))
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apperror.WriteBody(w, http.StatusMethodNotAllowed, apperror.InvalidRequest(r.Method+" is not allowed on "+r.URL.Path))
	})

	// Health checks
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/readyz", s.handleReady)

	if metrics.Enabled() {
		s.router.Handle("/metrics", metrics.Handler())
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/launches", launchesTransport.NewHandler(s.deps.Repos.Launches).RegisterRoutes)
		r.Route("/rockets", rocketsTransport.NewHandler(s.deps.Repos.Rockets).RegisterRoutes)
		r.Route("/company", companyTransport.NewHandler(s.deps.Repos.Company).RegisterRoutes)
		r.Route("/preferences", preferencesTransport.NewHandler(s.deps.Preferences).RegisterRoutes)
	})
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyResponse is the body of /readyz
type ReadyResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks"`
	Upstream string            `json:"upstream"`
}

// handleReady runs every check. An unreachable upstream does not fail
// readiness since cached data can still be served
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := ReadyResponse{Status: "ok", Checks: make(map[string]string, len(s.deps.Checks)), Upstream: "unknown"}
	status := http.StatusOK

	names := make([]string, 0, len(s.deps.Checks))
	for name := range s.deps.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.deps.Checks[name](ctx); err != nil {
			s.logger.Warn("readiness check failed", "check", name, "error", err)
			resp.Checks[name] = err.Error()
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}

	if s.deps.Upstream != nil {
		resp.Upstream = "unreachable"
		if s.deps.Upstream.IsConnected() {
			resp.Upstream = "reachable"
		}
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
