package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/teemow/roombook/internal/booking"
	"github.com/teemow/roombook/internal/config"
	"github.com/teemow/roombook/internal/datetime"
	"github.com/teemow/roombook/internal/dispatch"
	"github.com/teemow/roombook/internal/exchange"
	"github.com/teemow/roombook/internal/instrumentation"
	"github.com/teemow/roombook/internal/rooms"
	"github.com/teemow/roombook/internal/token"
)

// Options configures NewServerContext. Only Config is required.
type Options struct {
	Config      *config.Config
	Logger      *slog.Logger
	Metrics     *instrumentation.Metrics
	AuditLogger *instrumentation.AuditLogger

	// Clock defaults to the wall clock in the configured time zone.
	Clock datetime.Clock

	// Transport overrides the round tripper for every outbound call.
	Transport http.RoundTripper
}

// ServerContext owns the token store, room cache, dispatcher and workflows
// shared by every tool handler.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg         *config.Config
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	clock       datetime.Clock

	tokens     *token.Store
	proxy      *dispatch.Proxy
	dispatcher *dispatch.Dispatcher
	rooms      *rooms.Directory
	auth       *exchange.AuthWorkflow
	booking    *booking.Workflow

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext wires the collaborators from opts.Config.
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	cfg := opts.Config

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clock := opts.Clock
	if clock == nil {
		loc, err := cfg.Location()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve time zone: %w", err)
		}
		clock = datetime.SystemClock(loc)
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	tokens := token.NewStore(cfg.TokenCachePath, logger)

	proxyOpts := []dispatch.ProxyOption{
		dispatch.WithProxyLogger(logger),
		dispatch.WithProxyMetrics(opts.Metrics),
	}
	if opts.Transport != nil {
		proxyOpts = append(proxyOpts, dispatch.WithProxyTransport(opts.Transport))
	}
	proxy := dispatch.NewProxy(cfg.ProxyURL, cfg.HTTPTimeout, proxyOpts...)

	dispatchOpts := []dispatch.Option{
		dispatch.WithClock(clock),
		dispatch.WithLogger(logger),
		dispatch.WithMetrics(opts.Metrics),
	}
	if cfg.ProxyFallback {
		dispatchOpts = append(dispatchOpts, dispatch.WithFallback(proxy))
	}
	dispatcher := dispatch.New(tokens, dispatch.Config{
		GraphBaseURL: cfg.GraphBaseURL,
		Timeout:      cfg.HTTPTimeout,
		Transport:    opts.Transport,
	}, dispatchOpts...)

	directory := rooms.NewDirectory(proxy, logger)

	idpClient := &http.Client{Timeout: cfg.HTTPTimeout, Transport: opts.Transport}
	auth := exchange.NewAuthWorkflow(proxy, tokens,
		exchange.WithOAuth(cfg.ExchangeOAuth()),
		exchange.WithHTTPClient(idpClient),
		exchange.WithClock(clock),
		exchange.WithLogger(logger),
		exchange.WithMetrics(opts.Metrics),
	)

	bookings := booking.New(directory, proxy,
		booking.WithClock(clock),
		booking.WithLogger(logger),
		booking.WithMetrics(opts.Metrics),
	)

	return &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		cfg:         cfg,
		logger:      logger,
		metrics:     opts.Metrics,
		auditLogger: opts.AuditLogger,
		clock:       clock,
		tokens:      tokens,
		proxy:       proxy,
		dispatcher:  dispatcher,
		rooms:       directory,
		auth:        auth,
		booking:     bookings,
	}, nil
}

// Context returns the server context. It is canceled by Shutdown.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

func (sc *ServerContext) Config() *config.Config       { return sc.cfg }
func (sc *ServerContext) Logger() *slog.Logger         { return sc.logger }
func (sc *ServerContext) Tokens() *token.Store         { return sc.tokens }
func (sc *ServerContext) Proxy() *dispatch.Proxy       { return sc.proxy }
func (sc *ServerContext) Graph() *dispatch.Dispatcher  { return sc.dispatcher }
func (sc *ServerContext) Rooms() *rooms.Directory      { return sc.rooms }
func (sc *ServerContext) Auth() *exchange.AuthWorkflow { return sc.auth }
func (sc *ServerContext) Booking() *booking.Workflow   { return sc.booking }

// Now reads the server clock.
func (sc *ServerContext) Now() time.Time {
	return sc.clock()
}

// Metrics returns the metrics recorder, which may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, which may be nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context and drops cached rooms. It is safe to
// call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.rooms.Invalidate()
	sc.cancel()
	return nil
}
