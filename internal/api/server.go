// Package api provides the HTTP API server and handlers for Inkwell.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/inkwellapp/inkwell-server/internal/http/response"
	"github.com/inkwellapp/inkwell-server/internal/metrics"
	"github.com/inkwellapp/inkwell-server/internal/ratelimit"
	"github.com/inkwellapp/inkwell-server/internal/sse"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

// Options tunes the HTTP surface.
type Options struct {
	// Version is reported in the OpenAPI document.
	Version string
	// CORSOrigins lists allowed browser origins. Empty allows any origin.
	CORSOrigins []string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           *store.Store
	services        *Services
	router          *chi.Mux
	api             huma.API
	sseManager      *sse.Manager
	sseHandler      *sse.Handler
	metrics         *metrics.Metrics
	authRateLimiter *ratelimit.KeyedRateLimiter
	logger          *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured. m and
// authLimiter may be nil.
func NewServer(
	st *store.Store,
	services *Services,
	sseManager *sse.Manager,
	m *metrics.Metrics,
	authLimiter *ratelimit.KeyedRateLimiter,
	opts Options,
	logger *slog.Logger,
) *Server {
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	router := chi.NewRouter()

	s := &Server{
		store:           st,
		services:        services,
		router:          router,
		sseManager:      sseManager,
		metrics:         m,
		authRateLimiter: authLimiter,
		logger:          logger,
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("Inkwell API", opts.Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	// Bodies are wrapped in the envelope, so no $schema links.
	humaConfig.CreateHooks = nil
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.sseHandler = sse.NewHandler(sseManager, s.sseUserID, logger)
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(recoverer(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	s.router.Use(s.metrics.Middleware)
	s.router.Use(middleware.Compress(5))
	s.router.Use(authMiddleware(s.services.Session, s.logger))

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, s.logger)
	})
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerPostRoutes()
	s.registerUserRoutes()
	s.registerGenerateRoutes()
	s.registerSearchRoutes()
	s.registerImageRoutes()

	// Streaming and scrape endpoints sit outside huma and its envelope.
	s.router.Get("/api/v1/events", s.sseHandler.ServeHTTP)
	if s.metrics != nil {
		s.router.Handle("/api/v1/metrics", s.metrics.Handler())
	}
}

// sseUserID ties an event stream to the signed-in user so targeted events
// reach them.
func (s *Server) sseUserID(r *http.Request) string {
	if u := currentUser(r.Context()); u != nil {
		return store.IDKey(u.ID)
	}
	return ""
}
