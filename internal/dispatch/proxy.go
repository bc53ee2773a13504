package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/teemow/roombook/internal/envelope"
	"github.com/teemow/roombook/internal/instrumentation"
	"github.com/teemow/roombook/internal/logging"
	"github.com/teemow/roombook/internal/token"
)

// DefaultProxyURL is the base URL of the local Exchange proxy.
const DefaultProxyURL = "http://localhost:8080/exchange"

// Proxy talks to the local Exchange proxy that fronts rooms, bookings and the
// OAuth callback. Redirects are never followed so callers can read Location.
type Proxy struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// ProxyOption configures a Proxy.
type ProxyOption func(*Proxy)

// WithProxyLogger sets the logger.
func WithProxyLogger(logger *slog.Logger) ProxyOption {
	return func(p *Proxy) {
		p.logger = logger
	}
}

// WithProxyMetrics sets the metrics recorder.
func WithProxyMetrics(m *instrumentation.Metrics) ProxyOption {
	return func(p *Proxy) {
		p.metrics = m
	}
}

// WithProxyTransport sets the base round tripper.
func WithProxyTransport(rt http.RoundTripper) ProxyOption {
	return func(p *Proxy) {
		p.client.Transport = rt
	}
}

// NewProxy creates a proxy client. An empty baseURL means DefaultProxyURL and
// a non-positive timeout means DefaultTimeout.
func NewProxy(baseURL string, timeout time.Duration, opts ...ProxyOption) *Proxy {
	if baseURL == "" {
		baseURL = DefaultProxyURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	p := &Proxy{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.WithService(p.logger, "exchange_proxy")
	return p
}

// BaseURL returns the proxy base URL.
func (p *Proxy) BaseURL() string {
	return p.baseURL
}

// URL returns the absolute URL for endpoint.
func (p *Proxy) URL(endpoint string) string {
	return p.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

// Response is a fully read proxy response.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// DecodeJSON decodes the body into v.
func (r *Response) DecodeJSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// StatusIn reports whether the status code is one of codes.
func (r *Response) StatusIn(codes ...int) bool {
	for _, c := range codes {
		if r.StatusCode == c {
			return true
		}
	}
	return false
}

// Options carries the optional parts of a proxy request. JSON and Form are
// mutually exclusive; Form is sent verbatim as
// application/x-www-form-urlencoded.
type Options struct {
	Query url.Values
	JSON  any
	Form  string
}

// Do issues one request to the proxy and returns the raw response. Only
// transport failures and unsupported methods are errors.
func (p *Proxy) Do(ctx context.Context, method, endpoint string, opts Options) (*Response, error) {
	ctx, span := instrumentation.StartUpstreamSpan(ctx, instrumentation.TargetProxy, instrumentation.StrategyProxy, method, endpoint)
	defer span.End()

	start := time.Now()
	resp, err := p.roundTrip(ctx, method, endpoint, opts)

	status := instrumentation.StatusSuccess
	if err != nil || resp.StatusCode >= 400 {
		status = instrumentation.StatusError
	}
	instrumentation.RecordSpanResult(span, err)
	p.metrics.RecordUpstreamRequest(ctx, instrumentation.TargetProxy, instrumentation.StrategyProxy, status, time.Since(start))

	return resp, err
}

func (p *Proxy) roundTrip(ctx context.Context, method, endpoint string, opts Options) (*Response, error) {
	m, err := normalizeMethod(method)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	contentType := ""
	switch {
	case opts.Form != "":
		body = strings.NewReader(opts.Form)
		contentType = "application/x-www-form-urlencoded"
	case opts.JSON != nil:
		data, err := json.Marshal(opts.JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, m, withQuery(p.URL(endpoint), opts.Query), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// AuthStatus asks the proxy whether it holds a valid session. A non-200
// answer is reported as unauthenticated without error.
func (p *Proxy) AuthStatus(ctx context.Context) (bool, error) {
	resp, err := p.Do(ctx, http.MethodGet, "status", Options{})
	if err != nil {
		return false, err
	}
	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var status struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := resp.DecodeJSON(&status); err != nil {
		return false, fmt.Errorf("failed to decode status response: %w", err)
	}
	return status.Authenticated, nil
}

// Authenticated is AuthStatus with errors treated as unauthenticated.
func (p *Proxy) Authenticated(ctx context.Context) bool {
	ok, err := p.AuthStatus(ctx)
	if err != nil {
		p.logger.Warn("failed to check proxy auth status", logging.Err(err))
		return false
	}
	return ok
}

// Request issues a request and returns the decoded JSON body. It returns nil
// when the proxy is not authenticated (without issuing the request), on
// transport failure and on any status other than 200, 201 or 204. A
// successful response that is not JSON yields {"success": true}.
func (p *Proxy) Request(ctx context.Context, method, endpoint string, params url.Values, body any) any {
	if !p.Authenticated(ctx) {
		p.logger.Warn("not authenticated with Exchange service, please authenticate first", "endpoint", endpoint)
		return nil
	}

	resp, err := p.Do(ctx, method, endpoint, Options{Query: params, JSON: body})
	if err != nil {
		p.logger.Error("proxy request failed", "endpoint", endpoint, logging.Err(err))
		return nil
	}

	if !resp.StatusIn(http.StatusOK, http.StatusCreated, http.StatusNoContent) {
		p.logger.Error("proxy request failed",
			"endpoint", endpoint,
			"status_code", resp.StatusCode,
			"body", resp.Text())
		return nil
	}

	var v any
	if err := resp.DecodeJSON(&v); err != nil {
		return map[string]any{"success": true}
	}
	return v
}

// Envelope issues a request and wraps the outcome in an envelope. The decoded
// body is returned under "data".
func (p *Proxy) Envelope(ctx context.Context, method, endpoint string, params url.Values, body any) envelope.Envelope {
	if !p.Authenticated(ctx) {
		return envelope.Error("Not authenticated with Exchange service. Please authenticate first.")
	}

	resp, err := p.Do(ctx, method, endpoint, Options{Query: params, JSON: body})
	if err != nil {
		p.logger.Error("proxy request failed", "endpoint", endpoint, logging.Err(err))
		return envelope.Errorf("Error making request to %s: %v", endpoint, err)
	}

	if !resp.StatusIn(http.StatusOK, http.StatusCreated, http.StatusNoContent) {
		return envelope.Errorf("API request failed: %d %s", resp.StatusCode, resp.Text())
	}

	var data any
	if err := resp.DecodeJSON(&data); err != nil {
		data = map[string]any{"success": true}
	}
	return envelope.Success(map[string]any{"data": data})
}

// Name implements Strategy, so the proxy can terminate a dispatcher chain.
func (p *Proxy) Name() string {
	return instrumentation.StrategyProxy
}

// Issue implements Strategy. The proxy holds its own session, so the bearer
// token is not forwarded.
func (p *Proxy) Issue(ctx context.Context, _ token.Record, req Request) (any, error) {
	resp, err := p.roundTrip(ctx, req.Method, req.Endpoint, Options{Query: req.Params, JSON: req.Body})
	if err != nil {
		return nil, err
	}
	if !resp.StatusIn(http.StatusOK, http.StatusCreated, http.StatusNoContent) {
		return nil, &HTTPError{
			Method:     req.Method,
			URL:        p.URL(req.Endpoint),
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(resp.Text()),
		}
	}
	return decodeJSON(resp.Body)
}
