// Package server provides the HTTP server and routing for equitylab.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/Colin123/equitylab-ui/internal/config"
	"github.com/Colin123/equitylab-ui/internal/modules/auth"
	authhandlers "github.com/Colin123/equitylab-ui/internal/modules/auth/handlers"
	"github.com/Colin123/equitylab-ui/internal/modules/charts"
	chartshandlers "github.com/Colin123/equitylab-ui/internal/modules/charts/handlers"
	"github.com/Colin123/equitylab-ui/internal/modules/equities"
	equitieshandlers "github.com/Colin123/equitylab-ui/internal/modules/equities/handlers"
	pageshandlers "github.com/Colin123/equitylab-ui/internal/modules/pages/handlers"
	"github.com/Colin123/equitylab-ui/internal/modules/snapshots"
	snapshotshandlers "github.com/Colin123/equitylab-ui/internal/modules/snapshots/handlers"
	"github.com/Colin123/equitylab-ui/internal/session"
	"github.com/Colin123/equitylab-ui/pkg/embedded"
)

// Config holds server dependencies
type Config struct {
	Log      zerolog.Logger
	Config   *config.Config
	Sessions *session.Manager
	Provider auth.Provider
	Charts   *charts.Service
	Equities *equities.Loader
	Resolver *snapshots.Resolver
	Renderer *embedded.Renderer
	Metrics  *Metrics
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	sessions       *session.Manager
	metrics        *Metrics
	systemHandlers *SystemHandlers

	authHandler      *authhandlers.Handler
	pagesHandler     *pageshandlers.Handler
	chartsHandler    *chartshandlers.Handler
	equitiesHandler  *equitieshandlers.Handler
	snapshotsHandler *snapshotshandlers.Handler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	resolver := cfg.Resolver
	if resolver == nil {
		resolver = snapshots.NewResolver(cfg.Log)
	}

	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		cfg:      cfg.Config,
		sessions: cfg.Sessions,
		metrics:  metrics,
		systemHandlers: NewSystemHandlers(
			cfg.Log,
			cfg.Config,
			resolver,
		),
		authHandler: authhandlers.NewHandler(
			cfg.Provider,
			cfg.Sessions,
			cfg.Renderer,
			cfg.Config.BaseURL,
			metrics,
			cfg.Log,
		),
		pagesHandler: pageshandlers.NewHandler(
			cfg.Charts,
			cfg.Equities,
			cfg.Sessions,
			cfg.Renderer,
			cfg.Log,
		),
		chartsHandler:    chartshandlers.NewHandler(cfg.Charts, cfg.Log),
		equitiesHandler:  equitieshandlers.NewHandler(cfg.Equities, cfg.Log),
		snapshotsHandler: snapshotshandlers.NewHandler(resolver, snapshotDirs(cfg.Config), cfg.Log),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Metrics
	s.router.Use(s.metrics.Middleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.BaseURL},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Unauthenticated endpoints
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())
	s.router.Handle("/static/*", http.StripPrefix("/static", embedded.Static()))

	s.router.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware)
		r.Use(auth.Identity)

		s.authHandler.RegisterRoutes(r)
		s.pagesHandler.RegisterRoutes(r)

		r.Route("/api", func(r chi.Router) {
			r.Use(auth.RequireProfile)

			s.chartsHandler.RegisterRoutes(r)
			s.equitiesHandler.RegisterRoutes(r)
			s.snapshotsHandler.RegisterRoutes(r)

			r.Route("/system", func(r chi.Router) {
				r.Get("/status", s.systemHandlers.HandleSystemStatus)
			})
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
