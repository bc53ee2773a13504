// Package config loads roombook settings from defaults, an optional TOML
// file, the environment and command line flags, in increasing precedence.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/teemow/roombook/internal/dispatch"
	"github.com/teemow/roombook/internal/exchange"
	"github.com/teemow/roombook/internal/token"
)

// Config is the resolved configuration.
type Config struct {
	ProxyURL       string
	GraphBaseURL   string
	TokenCachePath string
	HTTPTimeout    time.Duration
	Timezone       string

	// ProxyFallback appends the local proxy as the last Graph strategy.
	ProxyFallback bool

	OAuth   OAuthConfig
	Logging LoggingConfig
}

// OAuthConfig is the Microsoft identity-platform app registration.
type OAuthConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ProxyURL:       dispatch.DefaultProxyURL,
		GraphBaseURL:   dispatch.DefaultGraphBaseURL,
		TokenCachePath: token.DefaultPath(),
		HTTPTimeout:    dispatch.DefaultTimeout,
		OAuth: OAuthConfig{
			Scopes: append([]string(nil), exchange.DefaultOAuthScopes...),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Location returns the configured time zone, or the local one.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ExchangeOAuth converts the app registration for the auth workflow.
func (c *Config) ExchangeOAuth() exchange.OAuthConfig {
	return exchange.OAuthConfig{
		TenantID:     c.OAuth.TenantID,
		ClientID:     c.OAuth.ClientID,
		ClientSecret: c.OAuth.ClientSecret,
		RedirectURL:  c.OAuth.RedirectURL,
		Scopes:       c.OAuth.Scopes,
	}
}

// Validate checks field values.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{"proxy_url": c.ProxyURL, "graph_base_url": c.GraphBaseURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %s", c.HTTPTimeout)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging format %q: must be text or json", c.Logging.Format)
	}
	if c.OAuth.ClientID != "" && c.OAuth.TenantID == "" {
		return fmt.Errorf("oauth.tenant_id is required when oauth.client_id is set")
	}
	return nil
}
