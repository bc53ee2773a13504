package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/roombook/internal/config"
	"github.com/teemow/roombook/internal/instrumentation"
	"github.com/teemow/roombook/internal/logging"
	"github.com/teemow/roombook/internal/server"
	"github.com/teemow/roombook/internal/tools/auth_tools"
	"github.com/teemow/roombook/internal/tools/booking_tools"
	"github.com/teemow/roombook/internal/tools/datetime_tools"
	"github.com/teemow/roombook/internal/tools/graph_tools"
	"github.com/teemow/roombook/internal/tools/room_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// MetricsConfig holds metrics server configuration
type MetricsConfig struct {
	Enabled bool
	Addr    string
}

type serveOptions struct {
	transport        string
	httpAddr         string
	disableStreaming bool
	readOnly         bool
	metrics          MetricsConfig
}

func newServeCmd() *cobra.Command {
	var (
		flags configFlags
		opts  serveOptions
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide meeting-room
lookup, booking and Microsoft Graph tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport with /healthz and /readyz

Safety Mode:
  By default booking and cancellation tools are available. Use --read-only
  to hide them and restrict graph_request to GET.

Configuration:
  Settings come from flags, then environment variables, then the TOML file
  given by --config or ROOMBOOK_CONFIG, then built-in defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.load(cmd, os.Stderr)
			if err != nil {
				return err
			}
			loadMetricsEnvVars(cmd, &opts.metrics)
			return runServe(cfg, logger, opts)
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", server.DefaultHTTPAddr, "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "Hide booking and cancellation tools and allow only GET through graph_request.")

	// Metrics server flags
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// loadMetricsEnvVars applies METRICS_ENABLED and METRICS_ADDR when the
// matching flag was not set explicitly.
func loadMetricsEnvVars(cmd *cobra.Command, mc *MetricsConfig) {
	if !cmd.Flags().Changed("metrics-enabled") {
		switch os.Getenv("METRICS_ENABLED") {
		case "true":
			mc.Enabled = true
		case "false":
			mc.Enabled = false
		}
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if addr := os.Getenv("METRICS_ADDR"); addr != "" {
			mc.Addr = addr
		}
	}
}

func runServe(cfg *config.Config, logger *slog.Logger, opts serveOptions) error {
	if opts.transport != transportStdio && opts.transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if err := instrConfig.Validate(); err != nil {
		return fmt.Errorf("invalid instrumentation configuration: %w", err)
	}

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	var metricsServer *server.MetricsServer
	if opts.transport != transportStdio && opts.metrics.Enabled && provider.Enabled() {
		metricsServer, err = startMetricsServer(provider, opts.metrics, instrConfig.PrometheusEndpoint, logger)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	var metrics *instrumentation.Metrics
	var auditLogger *instrumentation.AuditLogger
	if provider.Enabled() {
		metrics = provider.Metrics()
		auditLogger = instrumentation.NewAuditLogger(logger.With("component", "audit"), instrConfig.AuditLogging)
	}

	serverContext, err := server.NewServerContext(shutdownCtx, server.Options{
		Config:      cfg,
		Logger:      logger,
		Metrics:     metrics,
		AuditLogger: auditLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("server context shutdown failed", logging.Err(err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("roombook", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithHooks(server.SessionHooks(metrics)),
	)

	if opts.readOnly {
		logger.Info("starting server in read-only mode")
	}

	if err := registerAllTools(mcpSrv, serverContext, opts.readOnly); err != nil {
		return err
	}

	logger.Info("roombook MCP server starting",
		"transport", opts.transport,
		"proxy_url", cfg.ProxyURL,
		"strategies", serverContext.Graph().Strategies(),
	)

	switch opts.transport {
	case transportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, opts, metrics, logger)
	default:
		return runStdioServer(mcpSrv)
	}
}

// startMetricsServer binds the metrics port synchronously so that a bad
// address fails startup, then serves in the background.
func startMetricsServer(provider *instrumentation.Provider, mc MetricsConfig, path string, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    mc.Addr,
		Path:                    path,
		InstrumentationProvider: provider,
		Logger:                  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}
	if err := metricsServer.Listen(); err != nil {
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	}

	go func() {
		if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", logging.Err(err))
		}
	}()
	return metricsServer, nil
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// toolRegistration names one tool group for error messages.
type toolRegistration struct {
	name     string
	register func(*mcpserver.MCPServer, *server.ServerContext, bool) error
}

var toolRegistrations = []toolRegistration{
	{name: "Auth", register: auth_tools.RegisterAuthTools},
	{name: "Rooms", register: room_tools.RegisterRoomTools},
	{name: "Booking", register: booking_tools.RegisterBookingTools},
	{name: "Date/Time", register: datetime_tools.RegisterDateTimeTools},
	{name: "Graph", register: graph_tools.RegisterGraphTools},
}

// registerAllTools registers every tool group on mcpSrv.
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	for _, reg := range toolRegistrations {
		if err := reg.register(mcpSrv, sc, readOnly); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, opts serveOptions, metrics *instrumentation.Metrics, logger *slog.Logger) error {
	health := server.NewHealthChecker(sc)
	httpServer := server.NewHTTPServer(mcpSrv, server.HTTPServerConfig{
		Addr:             opts.httpAddr,
		DisableStreaming: opts.disableStreaming,
		Health:           health,
		Metrics:          metrics,
		Logger:           logging.NewSlogAdapter(logger),
	})

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		logger.Info("HTTP server stopped normally")
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
