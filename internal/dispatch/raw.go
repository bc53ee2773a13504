package dispatch

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/teemow/roombook/internal/instrumentation"
	"github.com/teemow/roombook/internal/token"
)

// RawStrategy calls Graph with a plain HTTP client and explicit headers.
type RawStrategy struct {
	baseURL string
	client  *http.Client
}

// NewRawStrategy creates the raw HTTP strategy.
func NewRawStrategy(cfg Config) *RawStrategy {
	cfg = cfg.withDefaults()
	return &RawStrategy{
		baseURL: cfg.GraphBaseURL,
		client:  &http.Client{Transport: cfg.Transport, Timeout: cfg.Timeout},
	}
}

// Name implements Strategy.
func (s *RawStrategy) Name() string {
	return instrumentation.StrategyRaw
}

// Issue implements Strategy.
func (s *RawStrategy) Issue(ctx context.Context, tok token.Record, req Request) (any, error) {
	httpReq, err := newJSONRequest(ctx, req.Method, graphURL(s.baseURL, req.Beta, req.Endpoint, req.Params), req.Body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("client-request-id", uuid.NewString())

	return send(s.client, httpReq)
}
