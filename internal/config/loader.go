package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment variables read by Load.
const (
	EnvConfig        = "ROOMBOOK_CONFIG"
	EnvProxyURL      = "EXCHANGE_PROXY_URL"
	EnvTenantID      = "EXCHANGE_TENANT_ID"
	EnvClientID      = "EXCHANGE_CLIENT_ID"
	EnvClientSecret  = "EXCHANGE_CLIENT_SECRET"
	EnvRedirectURL   = "EXCHANGE_REDIRECT_URL"
	EnvTokenCache    = "EXCHANGE_TOKEN_CACHE"
	EnvTimezone      = "ROOMBOOK_TIMEZONE"
	EnvLogLevel      = "LOG_LEVEL"
	EnvLogFormat     = "LOG_FORMAT"
	EnvProxyFallback = "EXCHANGE_PROXY_FALLBACK"
)

// LoaderOptions controls how configuration is loaded.
type LoaderOptions struct {
	// ConfigPath is the path to a TOML file. If set and the file is missing
	// or invalid, loading fails. If empty, $ROOMBOOK_CONFIG is used, and then
	// DefaultConfigPath when that file exists.
	ConfigPath string

	// Flags are command line values that override everything else.
	Flags FlagOverrides

	// Getenv reads the environment, default os.Getenv.
	Getenv func(string) string

	// Logger is used for warnings such as unknown keys.
	Logger *slog.Logger
}

// FlagOverrides holds flag values; nil means the flag was not set.
type FlagOverrides struct {
	ProxyURL       *string
	GraphBaseURL   *string
	TokenCachePath *string
	HTTPTimeout    *time.Duration
	Timezone       *string
	ProxyFallback  *bool
	LogLevel       *string
	LogFormat      *string
}

// fileConfig mirrors Config with TOML names.
type fileConfig struct {
	ProxyURL       string         `toml:"proxy_url"`
	GraphBaseURL   string         `toml:"graph_base_url"`
	TokenCachePath string         `toml:"token_cache_path"`
	HTTPTimeout    string         `toml:"http_timeout"`
	Timezone       string         `toml:"timezone"`
	ProxyFallback  *bool          `toml:"proxy_fallback"`
	OAuth          *oauthFile     `toml:"oauth"`
	Logging        *loggingConfig `toml:"logging"`
}

type oauthFile struct {
	TenantID     string   `toml:"tenant_id"`
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURL  string   `toml:"redirect_url"`
	Scopes       []string `toml:"scopes"`
}

type loggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfigPath is ~/.config/roombook/config.toml, honoring
// XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "roombook", "config.toml")
	}
	return ""
}

// Load resolves the configuration with this precedence:
//  1. built-in defaults
//  2. the TOML config file
//  3. environment variables
//  4. command line flags
//
// Unknown TOML keys produce a warning but do not fail the load.
func Load(opts LoaderOptions) (*Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := Default()

	path, required := opts.ConfigPath, true
	if path == "" {
		path = getenv(EnvConfig)
	}
	if path == "" {
		path, required = DefaultConfigPath(), false
	}
	if path != "" {
		if err := applyFile(cfg, path, required, logger); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}
	applyFlags(cfg, opts.Flags)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string, required bool, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	md, err := toml.Decode(string(data), &fc)
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		logger.Warn("unknown keys in config file", "path", path, "keys", keys)
	}

	setString(&cfg.ProxyURL, fc.ProxyURL)
	setString(&cfg.GraphBaseURL, fc.GraphBaseURL)
	setString(&cfg.TokenCachePath, expandHome(fc.TokenCachePath))
	setString(&cfg.Timezone, fc.Timezone)
	if fc.HTTPTimeout != "" {
		d, err := time.ParseDuration(fc.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("invalid http_timeout %q in %s: %w", fc.HTTPTimeout, path, err)
		}
		cfg.HTTPTimeout = d
	}
	if fc.ProxyFallback != nil {
		cfg.ProxyFallback = *fc.ProxyFallback
	}
	if fc.OAuth != nil {
		setString(&cfg.OAuth.TenantID, fc.OAuth.TenantID)
		setString(&cfg.OAuth.ClientID, fc.OAuth.ClientID)
		setString(&cfg.OAuth.ClientSecret, fc.OAuth.ClientSecret)
		setString(&cfg.OAuth.RedirectURL, fc.OAuth.RedirectURL)
		if len(fc.OAuth.Scopes) > 0 {
			cfg.OAuth.Scopes = fc.OAuth.Scopes
		}
	}
	if fc.Logging != nil {
		setString(&cfg.Logging.Level, fc.Logging.Level)
		setString(&cfg.Logging.Format, fc.Logging.Format)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	setString(&cfg.ProxyURL, getenv(EnvProxyURL))
	setString(&cfg.TokenCachePath, expandHome(getenv(EnvTokenCache)))
	setString(&cfg.Timezone, getenv(EnvTimezone))
	setString(&cfg.OAuth.TenantID, getenv(EnvTenantID))
	setString(&cfg.OAuth.ClientID, getenv(EnvClientID))
	setString(&cfg.OAuth.ClientSecret, getenv(EnvClientSecret))
	setString(&cfg.OAuth.RedirectURL, getenv(EnvRedirectURL))
	setString(&cfg.Logging.Level, getenv(EnvLogLevel))
	setString(&cfg.Logging.Format, getenv(EnvLogFormat))

	if v := getenv(EnvProxyFallback); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvProxyFallback, v, err)
		}
		cfg.ProxyFallback = b
	}
	return nil
}

func applyFlags(cfg *Config, f FlagOverrides) {
	setStringPtr(&cfg.ProxyURL, f.ProxyURL)
	setStringPtr(&cfg.GraphBaseURL, f.GraphBaseURL)
	if f.TokenCachePath != nil && *f.TokenCachePath != "" {
		cfg.TokenCachePath = expandHome(*f.TokenCachePath)
	}
	setStringPtr(&cfg.Timezone, f.Timezone)
	setStringPtr(&cfg.Logging.Level, f.LogLevel)
	setStringPtr(&cfg.Logging.Format, f.LogFormat)
	if f.HTTPTimeout != nil {
		cfg.HTTPTimeout = *f.HTTPTimeout
	}
	if f.ProxyFallback != nil {
		cfg.ProxyFallback = *f.ProxyFallback
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setStringPtr(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
