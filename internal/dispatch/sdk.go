package dispatch

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/roombook/internal/instrumentation"
	"github.com/teemow/roombook/internal/token"
)

// SDKStrategy calls Graph through an oauth2 client holding the current access
// token as a static bearer. It never refreshes; refreshing is the auth
// workflow's job.
type SDKStrategy struct {
	baseURL   string
	timeout   time.Duration
	transport http.RoundTripper
}

// NewSDKStrategy creates the SDK client strategy.
func NewSDKStrategy(cfg Config) *SDKStrategy {
	cfg = cfg.withDefaults()
	return &SDKStrategy{
		baseURL:   cfg.GraphBaseURL,
		timeout:   cfg.Timeout,
		transport: cfg.Transport,
	}
}

// Name implements Strategy.
func (s *SDKStrategy) Name() string {
	return instrumentation.StrategySDK
}

// Issue implements Strategy.
func (s *SDKStrategy) Issue(ctx context.Context, tok token.Record, req Request) (any, error) {
	httpReq, err := newJSONRequest(ctx, req.Method, graphURL(s.baseURL, req.Beta, req.Endpoint, req.Params), req.Body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return send(s.client(ctx, tok), httpReq)
}

func (s *SDKStrategy) client(ctx context.Context, tok token.Record) *http.Client {
	base := &http.Client{Transport: s.transport, Timeout: s.timeout}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok.OAuth2()))
	client.Timeout = s.timeout
	return client
}
