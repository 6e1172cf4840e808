// Package server exposes the prior-art checker over HTTP: the check endpoint,
// audit lookups, health probes, Prometheus metrics, and the embedded web UI.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noveltylab/priorart/internal/agent"
	"github.com/noveltylab/priorart/internal/config"
	"github.com/noveltylab/priorart/internal/store"
	"github.com/noveltylab/priorart/pkg/otel"
)

const ReadTimeout = 30 * time.Second

// Checker runs one check session. *agent.Controller is the production
// implementation.
type Checker interface {
	Run(ctx context.Context, idea string) (*agent.State, error)
}

type Server struct {
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
	checker Checker
	store   *store.Store
}

// NewServer wires the router. store may be nil; audit endpoints then answer
// 404 and finished checks are not persisted.
func NewServer(cfg *config.Config, checker Checker, s *store.Store) *Server {
	router := chi.NewRouter()

	router.Use(otel.Middleware("priorart-api"))
	router.Use(Recovery)
	router.Use(Logger)
	router.Use(Metrics)
	router.Use(CORS(cfg.Server.AllowedOrigins))

	srv := &Server{
		cfg:     cfg,
		router:  router,
		checker: checker,
		store:   s,
	}

	router.Get("/health", srv.handleReadiness)
	router.Get("/health/ready", srv.handleReadiness)
	router.Get("/health/live", srv.handleLiveness)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.With(httprate.LimitByIP(cfg.Server.RateLimit, time.Minute)).
			Post("/check", srv.handleCheck)

		if s != nil {
			r.Get("/checks", srv.handleListChecks)
			r.Get("/checks/{id}", srv.handleGetCheck)
		}
	})

	router.Handle("/*", staticHandler())
	return srv
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: ReadTimeout,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Router exposes the handler tree for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
