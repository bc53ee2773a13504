package exchange

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/teemow/roombook/internal/datetime"
	"github.com/teemow/roombook/internal/dispatch"
	"github.com/teemow/roombook/internal/envelope"
	"github.com/teemow/roombook/internal/instrumentation"
	"github.com/teemow/roombook/internal/logging"
	"github.com/teemow/roombook/internal/token"
)

const (
	endpointStatus    = "status"
	endpointAuthorize = "authorize"
	endpointCallback  = "callback"

	tokenPreviewLen = 10
)

// ProxyClient is the part of the proxy client the workflow uses.
type ProxyClient interface {
	Do(ctx context.Context, method, endpoint string, opts dispatch.Options) (*dispatch.Response, error)
}

// TokenStore is where obtained tokens are kept.
type TokenStore interface {
	Load() token.Record
	Save(rec token.Record)
	Clear()
}

// AuthWorkflow drives authentication against the proxy and, when an app
// registration is configured, the Microsoft identity platform.
type AuthWorkflow struct {
	proxy   ProxyClient
	tokens  TokenStore
	oauth   OAuthConfig
	client  *http.Client
	clock   datetime.Clock
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// AuthOption configures an AuthWorkflow.
type AuthOption func(*AuthWorkflow)

// WithOAuth enables the direct identity-platform paths.
func WithOAuth(cfg OAuthConfig) AuthOption {
	return func(w *AuthWorkflow) {
		w.oauth = cfg
	}
}

// WithHTTPClient sets the client used for identity-platform calls.
func WithHTTPClient(c *http.Client) AuthOption {
	return func(w *AuthWorkflow) {
		w.client = c
	}
}

// WithClock sets the clock used to stamp token expiry.
func WithClock(clock datetime.Clock) AuthOption {
	return func(w *AuthWorkflow) {
		w.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) AuthOption {
	return func(w *AuthWorkflow) {
		w.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) AuthOption {
	return func(w *AuthWorkflow) {
		w.metrics = m
	}
}

// NewAuthWorkflow creates an AuthWorkflow.
func NewAuthWorkflow(proxy ProxyClient, tokens TokenStore, opts ...AuthOption) *AuthWorkflow {
	w := &AuthWorkflow{
		proxy:  proxy,
		tokens: tokens,
		client: &http.Client{Timeout: dispatch.DefaultTimeout},
		clock:  datetime.SystemClock(nil),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logging.WithService(w.logger, "auth")
	return w
}

// CheckAuthStatus asks the proxy whether it is authenticated. It never
// fails: any problem is reported as not authenticated.
func (w *AuthWorkflow) CheckAuthStatus(ctx context.Context) envelope.Envelope {
	unauthenticated := envelope.Success(map[string]any{"authenticated": false})

	resp, err := w.proxy.Do(ctx, http.MethodGet, endpointStatus, dispatch.Options{})
	if err != nil {
		w.logger.Warn("failed to check auth status", logging.Err(err))
		return unauthenticated
	}
	if resp.StatusCode != http.StatusOK {
		return unauthenticated
	}

	var status struct {
		Authenticated bool `json:"authenticated"`
	}
	if err := resp.DecodeJSON(&status); err != nil {
		w.logger.Warn("failed to decode auth status", logging.Err(err))
		return unauthenticated
	}
	return envelope.Success(map[string]any{"authenticated": status.Authenticated})
}

// GetAuthorizationURL returns the URL the user visits to sign in. The proxy
// may answer with a redirect or with a JSON body carrying the URL. When the
// proxy is unreachable and an app registration is configured the URL is
// built locally.
func (w *AuthWorkflow) GetAuthorizationURL(ctx context.Context) envelope.Envelope {
	resp, err := w.proxy.Do(ctx, http.MethodGet, endpointAuthorize, dispatch.Options{})
	if err != nil {
		w.logger.Error("failed to get authorization URL", logging.Err(err))
		if w.oauth.Configured() {
			return w.localAuthorizationURL()
		}
		return envelope.Errorf("Failed to generate authorization URL: %v", err)
	}

	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return envelope.Success(map[string]any{"authorization_url": resp.Header.Get("Location")})
	case http.StatusOK:
		var body map[string]any
		if err := resp.DecodeJSON(&body); err == nil {
			if authURL, ok := body["authorization_url"]; ok {
				return envelope.Success(map[string]any{"authorization_url": authURL})
			}
		}
	}

	return envelope.Errorf("Failed to get authorization URL: %s", resp.Text())
}

func (w *AuthWorkflow) localAuthorizationURL() envelope.Envelope {
	state := uuid.NewString()
	authURL, err := w.oauth.AuthCodeURL(state)
	if err != nil {
		return envelope.Errorf("Failed to generate authorization URL: %v", err)
	}
	return envelope.Success(map[string]any{
		"authorization_url": authURL,
		"state":             state,
		"source":            "local",
	})
}

// callbackToken is the token payload the proxy's callback answers with.
type callbackToken struct {
	AccessToken  string `mapstructure:"access_token"`
	RefreshToken string `mapstructure:"refresh_token"`
	ExpiresIn    int64  `mapstructure:"expires_in"`
}

// decodeCallbackToken decodes the proxy's token answer. expires_in defaults
// only when the key is absent; an explicit 0 is kept.
func decodeCallbackToken(body map[string]any) (callbackToken, error) {
	ct := callbackToken{ExpiresIn: token.DefaultExpiresIn}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &ct,
	})
	if err != nil {
		return ct, err
	}
	if err := dec.Decode(body); err != nil {
		return ct, err
	}
	return ct, nil
}

func (w *AuthWorkflow) store(ct callbackToken) {
	w.tokens.Save(token.NewRecord(ct.AccessToken, ct.RefreshToken, ct.ExpiresIn, w.clock()))
	w.logger.Info("stored new access token",
		"access_token", logging.SanitizeToken(ct.AccessToken),
		"expires_in", ct.ExpiresIn)
}

// ExchangeCodeForToken hands an authorization code to the proxy. The token
// store only changes when the proxy answers with JSON containing an
// access_token; any other 200 answer counts as a completed flow.
func (w *AuthWorkflow) ExchangeCodeForToken(ctx context.Context, code string) envelope.Envelope {
	resp, err := w.proxy.Do(ctx, http.MethodPost, endpointCallback, dispatch.Options{
		Query: url.Values{"code": []string{code}},
	})
	if err != nil {
		w.logger.Error("failed to exchange code for token", logging.Err(err))
		w.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return envelope.Errorf("Failed to exchange code for token: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		w.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return envelope.Errorf("Failed to exchange code for token: %s", resp.Text())
	}

	var body map[string]any
	if err := resp.DecodeJSON(&body); err != nil {
		w.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
		return envelope.Success(map[string]any{"message": "Authentication flow completed successfully"})
	}

	ct, err := decodeCallbackToken(body)
	if err != nil {
		w.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return envelope.Errorf("Failed to exchange code for token: %v", err)
	}
	if _, ok := body["access_token"]; ok {
		w.store(ct)
	}

	w.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
	return envelope.Success(map[string]any{
		"message":           "Authorization code exchanged successfully",
		"token_info":        tokenInfo(ct),
		"has_refresh_token": ct.RefreshToken != "",
	})
}

// SetTokenFromFormData forwards the raw form body of an identity-platform
// callback to the proxy and stores the token it answers with.
func (w *AuthWorkflow) SetTokenFromFormData(ctx context.Context, formData string) envelope.Envelope {
	resp, err := w.proxy.Do(ctx, http.MethodPost, endpointCallback, dispatch.Options{Form: formData})
	if err != nil {
		w.logger.Error("failed to set token from form data", logging.Err(err))
		w.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return envelope.Errorf("Failed to set token from form data: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		w.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return envelope.Errorf("Failed to set token: %s", resp.Text())
	}

	var body map[string]any
	if err := resp.DecodeJSON(&body); err != nil {
		w.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return envelope.Errorf("Failed to set token from form data: %v", err)
	}
	if _, ok := body["access_token"]; !ok {
		w.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return envelope.Error("Failed to set token: response did not contain an access_token")
	}

	ct, err := decodeCallbackToken(body)
	if err != nil {
		w.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return envelope.Errorf("Failed to set token from form data: %v", err)
	}
	w.store(ct)

	w.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
	return envelope.Success(map[string]any{
		"message":    "Authentication token set successfully",
		"token_info": tokenInfo(ct),
	})
}

// RefreshToken renews the stored token directly against the identity
// platform.
func (w *AuthWorkflow) RefreshToken(ctx context.Context) envelope.Envelope {
	current := w.tokens.Load()

	tok, err := w.oauth.Refresh(ctx, w.client, current.RefreshToken)
	if err != nil {
		w.logger.Error("token refresh failed", logging.Err(err))
		w.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		return envelope.Errorf("Failed to refresh token: %v", err)
	}

	rec := token.FromOAuth2(tok, w.clock())
	if rec.RefreshToken == "" {
		rec.RefreshToken = current.RefreshToken
	}
	w.tokens.Save(rec)
	w.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)
	w.logger.Info("refreshed access token", "access_token", logging.SanitizeToken(rec.AccessToken))

	return envelope.Success(map[string]any{
		"message": "Token refreshed successfully",
		"token_info": map[string]any{
			"access_token_preview": preview(rec.AccessToken),
			"expires_at":           rec.Expiry().Format(time.RFC3339),
		},
	})
}

// Logout forgets the stored token.
func (w *AuthWorkflow) Logout() envelope.Envelope {
	w.tokens.Clear()
	return envelope.Success(map[string]any{"message": "Token cache cleared"})
}

func tokenInfo(ct callbackToken) map[string]any {
	return map[string]any{
		"access_token_preview": preview(ct.AccessToken),
		"expires_in":           ct.ExpiresIn,
	}
}

// preview shows only the start of a token.
func preview(tok string) string {
	if len(tok) > tokenPreviewLen {
		tok = tok[:tokenPreviewLen]
	}
	return tok + "..."
}
