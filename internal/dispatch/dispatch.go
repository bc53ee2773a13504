package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teemow/roombook/internal/datetime"
	"github.com/teemow/roombook/internal/instrumentation"
	"github.com/teemow/roombook/internal/logging"
	"github.com/teemow/roombook/internal/token"
)

const (
	// DefaultGraphBaseURL is the Microsoft Graph host. The API version is
	// appended per request.
	DefaultGraphBaseURL = "https://graph.microsoft.com"

	// DefaultTimeout bounds every outbound request.
	DefaultTimeout = 30 * time.Second

	versionV1   = "v1.0"
	versionBeta = "beta"
)

// ErrNotAuthenticated is returned before any network I/O when the token
// store holds no usable access token.
var ErrNotAuthenticated = errors.New("not authenticated with Microsoft Graph, please authenticate first")

// ErrUnsupportedMethod is returned for verbs other than GET, POST, PUT, PATCH and DELETE.
var ErrUnsupportedMethod = errors.New("unsupported HTTP method")

// HTTPError is a non-2xx upstream response.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Method, e.URL, e.Status, e.Body)
}

// Request describes one Graph call. Endpoint is relative to the versioned
// base URL; a missing leading slash is added.
type Request struct {
	Method   string
	Endpoint string
	Params   url.Values
	Body     any
	Beta     bool
}

// Strategy issues a request one particular way. Strategies are tried in
// order until one succeeds.
type Strategy interface {
	Name() string
	Issue(ctx context.Context, tok token.Record, req Request) (any, error)
}

// TokenSource is the part of the token store the dispatcher reads.
type TokenSource interface {
	Load() token.Record
	Authenticated(now time.Time) bool
}

// Config configures the Graph strategies.
type Config struct {
	// GraphBaseURL is the Graph host without version, default DefaultGraphBaseURL.
	GraphBaseURL string

	// Timeout bounds each request, default DefaultTimeout.
	Timeout time.Duration

	// Transport is the base round tripper, default http.DefaultTransport.
	Transport http.RoundTripper
}

func (c Config) withDefaults() Config {
	if c.GraphBaseURL == "" {
		c.GraphBaseURL = DefaultGraphBaseURL
	}
	c.GraphBaseURL = strings.TrimRight(c.GraphBaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Transport == nil {
		c.Transport = http.DefaultTransport
	}
	return c
}

// Dispatcher runs Graph requests through an ordered list of strategies.
type Dispatcher struct {
	tokens     TokenSource
	strategies []Strategy
	clock      datetime.Clock
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithStrategies replaces the default strategy list.
func WithStrategies(strategies ...Strategy) Option {
	return func(d *Dispatcher) {
		d.strategies = strategies
	}
}

// WithFallback appends a strategy tried after the built-in ones.
func WithFallback(s Strategy) Option {
	return func(d *Dispatcher) {
		d.strategies = append(d.strategies, s)
	}
}

// WithClock sets the clock used for the authentication check.
func WithClock(clock datetime.Clock) Option {
	return func(d *Dispatcher) {
		d.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// New creates a Dispatcher with the SDK and raw HTTP strategies, in that order.
func New(tokens TokenSource, cfg Config, opts ...Option) *Dispatcher {
	cfg = cfg.withDefaults()
	d := &Dispatcher{
		tokens: tokens,
		strategies: []Strategy{
			NewSDKStrategy(cfg),
			NewRawStrategy(cfg),
		},
		clock:  datetime.SystemClock(nil),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.WithService(d.logger, "dispatch")
	return d
}

// Strategies returns the names of the configured strategies in order.
func (d *Dispatcher) Strategies() []string {
	names := make([]string, len(d.strategies))
	for i, s := range d.strategies {
		names[i] = s.Name()
	}
	return names
}

// Call issues req, trying each strategy in turn. The error of the last
// strategy is returned when all of them fail.
func (d *Dispatcher) Call(ctx context.Context, req Request) (any, error) {
	if !d.tokens.Authenticated(d.clock()) {
		return nil, ErrNotAuthenticated
	}

	method, err := normalizeMethod(req.Method)
	if err != nil {
		return nil, err
	}
	req.Method = method
	req.Endpoint = normalizeEndpoint(req.Endpoint)

	if len(d.strategies) == 0 {
		return nil, errors.New("no dispatch strategies configured")
	}

	tok := d.tokens.Load()
	logger := d.logger.With("method", req.Method, "endpoint", req.Endpoint, "beta", req.Beta)

	var lastErr error
	for i, s := range d.strategies {
		result, err := d.issue(ctx, s, tok, req)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if i < len(d.strategies)-1 {
			logger.Warn("dispatch strategy failed, falling back",
				"strategy", s.Name(),
				"next", d.strategies[i+1].Name(),
				logging.Err(err))
			d.metrics.RecordStrategyFallback(ctx, s.Name())
		}
	}

	logger.Error("graph request failed", logging.Err(lastErr))
	return nil, lastErr
}

func (d *Dispatcher) issue(ctx context.Context, s Strategy, tok token.Record, req Request) (any, error) {
	target := instrumentation.TargetGraph
	if s.Name() == instrumentation.StrategyProxy {
		target = instrumentation.TargetProxy
	}

	ctx, span := instrumentation.StartUpstreamSpan(ctx, target, s.Name(), req.Method, req.Endpoint)
	defer span.End()

	start := time.Now()
	result, err := s.Issue(ctx, tok, req)

	instrumentation.RecordSpanResult(span, err)
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	d.metrics.RecordUpstreamRequest(ctx, target, s.Name(), status, time.Since(start))

	return result, err
}

func normalizeMethod(method string) (string, error) {
	m := strings.ToUpper(strings.TrimSpace(method))
	if m == "" {
		m = http.MethodGet
	}
	switch m {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return m, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
}

func normalizeEndpoint(endpoint string) string {
	if !strings.HasPrefix(endpoint, "/") {
		return "/" + endpoint
	}
	return endpoint
}

// graphURL joins the Graph host, API version, endpoint and query.
func graphURL(base string, beta bool, endpoint string, params url.Values) string {
	version := versionV1
	if beta {
		version = versionBeta
	}
	return withQuery(base+"/"+version+normalizeEndpoint(endpoint), params)
}

func withQuery(rawURL string, params url.Values) string {
	if len(params) == 0 {
		return rawURL
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + params.Encode()
}
