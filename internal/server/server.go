// Package server exposes a running monitor over HTTP: its status as JSON
// and its metrics in the Prometheus format.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/haskel/powermon/internal/config"
	"github.com/haskel/powermon/internal/host"
	"github.com/haskel/powermon/internal/lifecycle"
	"github.com/haskel/powermon/internal/server/middleware"
)

const shutdownTimeout = 5 * time.Second

// StatusSource provides the live view of a run.
type StatusSource interface {
	Status() lifecycle.Status
}

type Server struct {
	httpServer *http.Server
	status     StatusSource
	metrics    http.Handler
	logger     *slog.Logger
	version    string

	// hostInfo is replaceable in tests.
	hostInfo func(ctx context.Context) (*host.State, error)

	mu   sync.Mutex
	addr net.Addr
}

// New builds the server. metrics may be nil, in which case /metrics is not
// served.
func New(cfg *config.Config, status StatusSource, metrics http.Handler, logger *slog.Logger, version string) *Server {
	s := &Server{
		status:   status,
		metrics:  metrics,
		logger:   logger,
		version:  version,
		hostInfo: host.Collect,
	}

	handler := middleware.Chain(
		s.setupRoutes(),
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.SecurityHeaders(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Enabled:           cfg.Server.RateLimit.Enabled,
			RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
			Burst:             cfg.Server.RateLimit.Burst,
		}),
		middleware.Auth(middleware.AuthConfig{
			Enabled:  cfg.Auth.Enabled,
			User:     cfg.Auth.User,
			Password: cfg.Auth.Password,
		}, "/health"),
	)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.logger.Info("status server listening", "addr", ln.Addr().String())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("status server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	s.logger.Info("status server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down status server: %w", err)
	}
	return nil
}

// Addr returns the bound address once Run is listening, otherwise the
// configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr != nil {
		return s.addr.String()
	}
	return s.httpServer.Addr
}
