// Package api provides the HTTP API server and handlers for the GetOnAPod
// prospect dashboard.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jonathangetonapod/getonapod-app-sub000/internal/session"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/sse"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/store"
	"github.com/jonathangetonapod/getonapod-app-sub000/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	sessions   *session.Manager
	store      *store.Store
	sseManager *sse.Manager
	sseHandler *sse.Handler
	validator  *validation.Validator
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger
}

// NewServer creates an HTTP server with all routes configured.
func NewServer(
	sessions *session.Manager,
	st *store.Store,
	sseManager *sse.Manager,
	sseHandler *sse.Handler,
	logger *slog.Logger,
) *Server {
	s := &Server{
		sessions:   sessions,
		store:      st,
		sseManager: sseManager,
		sseHandler: sseHandler,
		validator:  validation.New(),
		router:     chi.NewRouter(),
		logger:     logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("GetOnAPod Dashboard API", "1.0.0")
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerDashboardRoutes()

	// The SSE stream bypasses Huma; it writes raw text/event-stream frames.
	s.router.Get("/api/v1/dashboards/{sessionKey}/events", s.handleEvents)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// handleEvents streams dashboard events for one session.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionKey := chi.URLParam(r, "sessionKey")
	if sessionKey == "" {
		http.Error(w, "session key is required", http.StatusBadRequest)
		return
	}
	if _, err := s.sessions.Get(sessionKey); err != nil {
		http.Error(w, "no open dashboard for this session", http.StatusNotFound)
		return
	}
	s.sseHandler.Serve(w, r, sessionKey)
}
