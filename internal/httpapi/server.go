// Package httpapi exposes the CDN flow solver over plain net/http:
// scenario CRUD, solve, report downloads, health and metrics.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cdnflow/internal/service"
	"cdnflow/internal/store"
	"cdnflow/internal/telemetry"
	"cdnflow/pkg/config"
	"cdnflow/pkg/passhash"
)

// Server wraps http.Server with the same start/serve/graceful-shutdown
// lifecycle the rest of this codebase uses for its network listeners.
type Server struct {
	httpServer *http.Server
	config     *config.Config
	logger     *slog.Logger
	telemetry  *telemetry.Provider
	solver     *service.SolverService
}

// Deps are the constructed dependencies a Server needs beyond config.
type Deps struct {
	Logger     *slog.Logger
	Telemetry  *telemetry.Provider
	Solver     *service.SolverService
	JWTManager *passhash.JWTManager
	Scenarios  store.ScenarioRepository
	Solves     store.SolveRepository
}

// New builds the HTTP server and wires its route table and middleware
// chain, but does not start listening.
func New(cfg *config.Config, deps Deps) *Server {
	mux := http.NewServeMux()

	h := &handlers{
		logger:    deps.Logger,
		solver:    deps.Solver,
		scenarios: deps.Scenarios,
		solves:    deps.Solves,
	}
	h.register(mux)

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", h.handleHealthz)

	var handler http.Handler = mux
	handler = telemetry.HTTPMiddleware(handler)
	handler = requestLoggingMiddleware(deps.Logger)(handler)
	handler = jwtAuthMiddleware(deps.JWTManager)(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
			Handler:      handler,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		},
		config:    cfg,
		logger:    deps.Logger,
		telemetry: deps.Telemetry,
		solver:    deps.Solver,
	}
}

// Run starts listening and blocks until a shutdown signal arrives or
// the listener fails, then drains in-flight requests gracefully.
func (s *Server) Run(ctx context.Context) error {
	lc := net.ListenConfig{}
	lis, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"addr", s.httpServer.Addr,
			"environment", s.config.App.Environment,
			"version", s.config.App.Version,
		)
		if err := s.httpServer.Serve(lis); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	return s.waitForShutdown(errCh)
}

func (s *Server) waitForShutdown(errCh chan error) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		s.logger.Info("received shutdown signal", "signal", sig)
	}

	timeout := s.config.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if s.solver != nil {
		if err := s.solver.Shutdown(ctx); err != nil {
			s.logger.Warn("solver shutdown did not complete cleanly", "error", err)
		}
	}

	if s.telemetry != nil {
		if err := s.telemetry.Shutdown(ctx); err != nil {
			s.logger.Warn("failed to shut down telemetry", "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		_ = s.httpServer.Shutdown(ctx)
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("server stopped gracefully")
	case <-ctx.Done():
		s.logger.Warn("forcing server close")
		_ = s.httpServer.Close()
	}

	return nil
}
