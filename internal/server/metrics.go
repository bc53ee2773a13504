package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/teemow/roombook/internal/instrumentation"
)

// Metrics server defaults.
const (
	DefaultMetricsAddr         = ":9090"
	DefaultMetricsReadTimeout  = 10 * time.Second
	DefaultMetricsWriteTimeout = 10 * time.Second
	DefaultMetricsIdleTimeout  = 60 * time.Second

	// DefaultShutdownTimeout bounds the drain of the MCP HTTP transport.
	DefaultShutdownTimeout = 30 * time.Second
)

// MetricsServerConfig configures NewMetricsServer. Addr defaults to
// DefaultMetricsAddr and Path to "/metrics".
type MetricsServerConfig struct {
	Addr                    string
	Path                    string
	InstrumentationProvider *instrumentation.Provider
	Logger                  *slog.Logger
}

// MetricsServer serves Prometheus metrics on a dedicated port, apart from
// the MCP transport.
type MetricsServer struct {
	addr    string
	handler http.Handler
	logger  *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
}

// NewMetricsServer validates config. The provider must be enabled and use
// the Prometheus exporter.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.Addr == "" {
		config.Addr = DefaultMetricsAddr
	}
	if config.Path == "" {
		config.Path = "/metrics"
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	provider := config.InstrumentationProvider
	if provider == nil {
		return nil, errors.New("instrumentation provider is required for metrics server")
	}
	if !provider.Enabled() {
		return nil, errors.New("instrumentation provider is not enabled")
	}
	metricsHandler := provider.PrometheusHandler()
	if metricsHandler == nil {
		return nil, errors.New("instrumentation provider has no prometheus exporter")
	}

	r := chi.NewRouter()
	r.Handle(config.Path, metricsHandler)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &MetricsServer{
		addr:    config.Addr,
		handler: r,
		logger:  config.Logger,
	}, nil
}

// Listen binds the configured address. After Listen, Addr reports the bound
// address, which matters for ":0".
func (s *MetricsServer) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	s.addr = ln.Addr().String()
	return nil
}

// Start serves until Shutdown. It calls Listen if that has not happened
// yet. http.ErrServerClosed is returned after a clean shutdown.
func (s *MetricsServer) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.mu.Lock()
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: DefaultMetricsReadTimeout,
		WriteTimeout:      DefaultMetricsWriteTimeout,
		IdleTimeout:       DefaultMetricsIdleTimeout,
	}
	srv, ln := s.httpServer, s.listener
	s.mu.Unlock()

	s.logger.Info("starting metrics server", "addr", s.Addr())
	return srv.Serve(ln)
}

// Shutdown drains a started server, or releases the listener of one that
// was only bound.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv, ln := s.httpServer, s.listener
	s.mu.Unlock()

	if srv != nil {
		s.logger.Info("shutting down metrics server")
		return srv.Shutdown(ctx)
	}
	if ln != nil {
		return ln.Close()
	}
	return nil
}

// Addr returns the configured address, or the bound one after Listen.
func (s *MetricsServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}
