package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/roombook/internal/instrumentation"
	"github.com/teemow/roombook/internal/logging"
)

const (
	// DefaultHTTPAddr is the default listen address of the streamable-http transport.
	DefaultHTTPAddr = ":8081"

	// MCPEndpointPath is where the MCP streamable-http endpoint is mounted.
	MCPEndpointPath = "/mcp"
)

// HTTPServerConfig configures the streamable-http transport.
type HTTPServerConfig struct {
	Addr             string
	DisableStreaming bool
	Health           *HealthChecker
	Metrics          *instrumentation.Metrics
	Logger           logging.Logger
}

// HTTPServer serves the MCP streamable-http endpoint next to the health
// endpoints.
type HTTPServer struct {
	router     chi.Router
	httpServer *http.Server
	logger     logging.Logger
}

// NewHTTPServer builds the router. Nothing listens until Start.
func NewHTTPServer(mcpServer *mcpserver.MCPServer, cfg HTTPServerConfig) *HTTPServer {
	if cfg.Addr == "" {
		cfg.Addr = DefaultHTTPAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewSlogAdapter(nil)
	}
	if cfg.Health == nil {
		cfg.Health = NewHealthChecker(nil)
	}

	s := &HTTPServer{logger: cfg.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(accessLog(cfg.Logger, cfg.Metrics))

	r.Method(http.MethodGet, "/healthz", cfg.Health.LivenessHandler())
	r.Method(http.MethodGet, "/readyz", cfg.Health.ReadinessHandler())
	r.Method(http.MethodGet, "/healthz/detailed", cfg.Health.DetailedHealthHandler())

	streamOpts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath(MCPEndpointPath),
	}
	if cfg.DisableStreaming {
		streamOpts = append(streamOpts, mcpserver.WithDisableStreaming(true))
	}
	r.Handle(MCPEndpointPath, mcpserver.NewStreamableHTTPServer(mcpServer, streamOpts...))

	s.router = r
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Start listens and serves until Shutdown.
func (s *HTTPServer) Start() error {
	s.logger.Info("starting streamable-http server", "addr", s.httpServer.Addr, "endpoint", MCPEndpointPath)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// accessLog logs one line per request and records the HTTP request metric.
// The route pattern, not the raw path, is used as the metric label.
func accessLog(logger logging.Logger, metrics *instrumentation.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				duration := time.Since(start)
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}

				route := r.URL.Path
				if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				metrics.RecordHTTPRequest(r.Context(), r.Method, route, status, duration)

				logger.With(
					"request_id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
				).Debug("request",
					"status", status,
					"bytes", ww.BytesWritten(),
					"duration_ms", duration.Milliseconds(),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// SessionHooks returns MCP hooks that track active sessions in metrics.
func SessionHooks(metrics *instrumentation.Metrics) *mcpserver.Hooks {
	hooks := &mcpserver.Hooks{}
	hooks.AddOnRegisterSession(func(ctx context.Context, _ mcpserver.ClientSession) {
		metrics.IncrementActiveSessions(ctx)
	})
	hooks.AddOnUnregisterSession(func(ctx context.Context, _ mcpserver.ClientSession) {
		metrics.DecrementActiveSessions(ctx)
	})
	return hooks
}
