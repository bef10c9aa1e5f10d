package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	v1 "github.com/gosuda/tenantry/internal/api/v1"
	"github.com/gosuda/tenantry/internal/api/ws"
	"github.com/gosuda/tenantry/internal/config"
	"github.com/gosuda/tenantry/internal/domain"
	"github.com/gosuda/tenantry/internal/server/middleware"
)

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	cfg        *config.Config
}

// Store is the persistence the server reads directly, outside the services.
// *postgres.Store satisfies it.
type Store interface {
	Companies() domain.CompanyRepository
	Users() domain.UserRepository
	Audit() domain.AuditRepository
}

// New creates a Server with all routes wired. events may be nil, in which
// case the WebSocket routes are not mounted. ctx bounds the background
// cleanup of the rate limiters.
func New(ctx context.Context, cfg *config.Config, store Store, events ws.EventSubscriber, authSvc v1.AuthService, svc v1.TenancyService) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s := &Server{
		router: router,
		cfg:    cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	authenticate := middleware.Auth(cfg.JWT.Secret, store.Users())

	// Mount API routes on /api/v1 with two sub-groups:
	// 1. Unauthenticated group for signup, login and refresh.
	// 2. Authenticated group for all other endpoints.
	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ctx, cfg.Server.IPRPS, cfg.Server.IPBurst))

			api := humachi.New(r, apiConfig("Tenantry Auth API"))
			registerAuthRoutes(api, svc, authSvc)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireCompany())
			r.Use(middleware.RateLimit(ctx, store.Companies(), cfg.Server.CompanyRPS, cfg.Server.CompanyBurst))

			api := humachi.New(r, apiConfig("Tenantry API"))
			registerAPIRoutes(api, svc, store.Audit())
		})
	})

	// WebSocket routes.
	if events != nil {
		hub := ws.NewHub(events)
		router.Route("/ws", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireCompany())
			registerWSRoutes(r, hub)
		})
	} else {
		log.Info().Msg("redis not configured; websocket event streams disabled")
	}

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

func apiConfig(title string) huma.Config {
	c := huma.DefaultConfig(title, "1.0.0")
	c.Servers = []*huma.Server{
		{URL: "/api/v1"},
	}
	return c
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
