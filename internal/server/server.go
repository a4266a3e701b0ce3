// Package server assembles the HTTP surface: router, middleware, CORS,
// and the feature packages' route registrations.
package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lawdesk/matterflow/internal/actor"
	"github.com/lawdesk/matterflow/internal/audit"
	"github.com/lawdesk/matterflow/internal/authz"
	"github.com/lawdesk/matterflow/internal/gateway"
	"github.com/lawdesk/matterflow/internal/handoff"
)

// Config holds server configuration.
type Config struct {
	ListenAddr     string
	AllowedOrigins []string
}

// Deps are the wired feature components the server exposes over HTTP.
type Deps struct {
	Actor         *actor.Actor
	Authenticator authz.Authenticator
	AuditStore    *audit.Store
	HandoffStore  *handoff.Store
	Gateway       *gateway.Gateway
}

// Server is the matterflow intake server.
type Server struct {
	cfg        Config
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server and registers all feature routes.
func New(cfg Config, deps Deps) *Server {
	s := &Server{cfg: cfg}
	s.router = s.buildRouter(deps)
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter(deps Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	})

	actor.RegisterRoutes(r, deps.Actor, deps.Authenticator)
	audit.RegisterRoutes(r, deps.AuditStore, deps.Authenticator)
	handoff.RegisterRoutes(r, deps.HandoffStore, deps.Authenticator)
	if deps.Gateway != nil {
		deps.Gateway.RegisterRoutes(r)
	}

	return r
}

// Router returns the chi router, useful in tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured address.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("matterflow server listening on %s", s.cfg.ListenAddr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
