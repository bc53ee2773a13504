package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

// ErrOAuthNotConfigured is returned when a direct identity-platform call is
// attempted without a tenant and client id.
var ErrOAuthNotConfigured = errors.New("oauth client is not configured, set tenant_id and client_id")

// ErrNoRefreshToken is returned when the token store has nothing to refresh.
var ErrNoRefreshToken = errors.New("no refresh token available, please authenticate first")

// OAuthConfig describes the app registration used to talk to the Microsoft
// identity platform directly.
type OAuthConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// Endpoint overrides the tenant endpoint, for tests.
	Endpoint *oauth2.Endpoint
}

// Configured reports whether direct identity-platform calls are possible.
func (c OAuthConfig) Configured() bool {
	return c.ClientID != "" && (c.TenantID != "" || c.Endpoint != nil)
}

func (c OAuthConfig) oauth2Config() *oauth2.Config {
	endpoint := microsoft.AzureADEndpoint(c.TenantID)
	if c.Endpoint != nil {
		endpoint = *c.Endpoint
	}
	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = DefaultOAuthScopes
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     endpoint,
		RedirectURL:  c.RedirectURL,
		Scopes:       scopes,
	}
}

// AuthCodeURL builds the authorization URL locally.
func (c OAuthConfig) AuthCodeURL(state string) (string, error) {
	if !c.Configured() {
		return "", ErrOAuthNotConfigured
	}
	return c.oauth2Config().AuthCodeURL(state), nil
}

// Refresh runs the refresh-token grant.
func (c OAuthConfig) Refresh(ctx context.Context, client *http.Client, refreshToken string) (*oauth2.Token, error) {
	if !c.Configured() {
		return nil, ErrOAuthNotConfigured
	}
	if refreshToken == "" {
		return nil, ErrNoRefreshToken
	}
	if client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	}

	ts := c.oauth2Config().TokenSource(ctx, &oauth2.Token{
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Unix(1, 0),
	})

	tok, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return tok, nil
}
