// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-passkey.
//
// go-passkey is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jeremyhahn/go-passkey/internal/config"
	"github.com/jeremyhahn/go-passkey/pkg/correlation"
	"github.com/jeremyhahn/go-passkey/pkg/health"
	"github.com/jeremyhahn/go-passkey/pkg/logging"
	"github.com/jeremyhahn/go-passkey/pkg/metrics"
	"github.com/jeremyhahn/go-passkey/pkg/passkey"
	passkeyhttp "github.com/jeremyhahn/go-passkey/pkg/passkey/http"
	"github.com/jeremyhahn/go-passkey/pkg/ratelimit"
	"github.com/jeremyhahn/go-passkey/pkg/storage"
	"github.com/jeremyhahn/go-passkey/pkg/storage/memory"
	"github.com/jeremyhahn/go-passkey/pkg/storage/pogreb"
	"github.com/jeremyhahn/go-passkey/pkg/storage/redis"
)

// Server hosts the passkey ceremony endpoints plus health and metrics.
type Server struct {
	config  *config.Config
	backend storage.Backend
	service *passkey.Service
	server  *http.Server
	limiter *ratelimit.Limiter
	checker *health.Checker
	logger  *logging.Logger
}

// New creates a server from the given configuration, wiring the
// configured storage backend into the passkey service.
func New(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := logging.NewLogger(cfg.Debug())

	backend, err := newBackend(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage backend: %w", err)
	}

	var tokens passkey.TokenGenerator
	if cfg.JWT.Secret != "" {
		issuer := cfg.JWT.Issuer
		if issuer == "" {
			issuer = cfg.WebAuthn.RPID
		}
		tokens, err = passkey.NewJWTGenerator(&passkey.JWTConfig{
			SigningKey: []byte(cfg.JWT.Secret),
			Issuer:     issuer,
			Audience:   cfg.JWT.Audience,
			TTL:        cfg.JWT.TTL,
		})
		if err != nil {
			_ = backend.Close()
			return nil, fmt.Errorf("failed to initialize token generator: %w", err)
		}
	}

	service, err := passkey.NewService(&passkey.ServiceParams{
		Config:  &cfg.WebAuthn,
		Backend: backend,
		Tokens:  tokens,
		Logger:  logger,
	})
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("failed to initialize passkey service: %w", err)
	}

	s := &Server{
		config:  cfg,
		backend: backend,
		service: service,
		limiter: ratelimit.New(&cfg.RateLimit),
		checker: health.NewChecker(),
		logger:  logger,
	}
	s.checker.RegisterCheck("storage", health.BackendCheck(backend))

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.setupRouter(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s, nil
}

// newBackend constructs the storage backend named by the configuration.
func newBackend(cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return memory.New(), nil
	case "pogreb":
		return pogreb.New(cfg.Storage.Path)
	case "redis":
		return redis.New(redis.Config{
			Addr:     cfg.Storage.Redis.Addr,
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		}), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

// setupRouter configures the chi router with all routes and middleware.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(s.RecoveryMiddleware())
	r.Use(correlation.Middleware)
	r.Use(s.LoggingMiddleware())
	if s.config.Metrics.Enabled {
		r.Use(metrics.HTTPMiddleware)
	}
	r.Use(CORSMiddleware)

	if s.config.Health.Enabled {
		path := s.config.Health.Path
		if path == "" {
			path = "/healthz"
		}
		r.Get(path, s.healthHandler)
		r.Head(path, s.healthHandler)
	}

	if s.config.Metrics.Enabled {
		path := s.config.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, promhttp.Handler())
	}

	handler := passkeyhttp.NewHandler(s.service).WithLogger(s.logger)
	r.Route("/auth", func(r chi.Router) {
		if s.limiter.IsEnabled() {
			r.Use(ratelimit.Middleware(s.limiter))
		}
		passkeyhttp.MountChi(r, handler)
	})

	return r
}

// healthHandler reports readiness. The plain response keeps load
// balancer probes cheap; ?verbose=1 returns the individual check
// results as JSON.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	results := s.checker.Ready(r.Context())
	status := health.AggregateStatus(results)

	code := http.StatusOK
	if status != health.StatusHealthy {
		for _, result := range results {
			if result.Status != health.StatusHealthy {
				s.logger.Warn("health check failed", "check", result.Name, "error", result.Error)
			}
		}
		code = http.StatusServiceUnavailable
	}

	if r.URL.Query().Get("verbose") != "" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": status,
			"uptime": s.checker.Uptime().Round(time.Second).String(),
			"checks": results,
		})
		return
	}

	w.WriteHeader(code)
	if code == http.StatusOK {
		_, _ = w.Write([]byte("ok"))
	} else {
		_, _ = w.Write([]byte("unhealthy"))
	}
}

// Service exposes the passkey service, for tests and embedding.
func (s *Server) Service() *passkey.Service {
	return s.service
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start runs the HTTP server until Stop is called.
func (s *Server) Start() error {
	s.logger.Info("starting server",
		"addr", s.server.Addr,
		"rpID", s.config.WebAuthn.RPID,
		"storage", s.config.Storage.Backend)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Stop gracefully stops the server and closes the storage backend.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("shutting down server")

	s.limiter.Stop()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	if err := s.backend.Close(); err != nil {
		return fmt.Errorf("failed to close storage backend: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
