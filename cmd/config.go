package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/roombook/internal/config"
	"github.com/teemow/roombook/internal/logging"
)

// configFlags are the settings shared by every command that talks to the
// proxy or Graph. Only flags the user changed override the config file and
// environment.
type configFlags struct {
	configPath     string
	proxyURL       string
	graphBaseURL   string
	tokenCachePath string
	httpTimeout    time.Duration
	timezone       string
	proxyFallback  bool
	logLevel       string
	logFormat      string
}

func (f *configFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.configPath, "config", "", "Path to a TOML config file. Can also use "+config.EnvConfig+" env var.")
	fs.StringVar(&f.proxyURL, "proxy-url", "", "Base URL of the local Exchange proxy. Can also use "+config.EnvProxyURL+" env var.")
	fs.StringVar(&f.graphBaseURL, "graph-base-url", "", "Microsoft Graph base URL.")
	fs.StringVar(&f.tokenCachePath, "token-cache", "", "Path of the Graph token cache file. Can also use "+config.EnvTokenCache+" env var.")
	fs.DurationVar(&f.httpTimeout, "http-timeout", 0, "Timeout for every outbound HTTP call.")
	fs.StringVar(&f.timezone, "timezone", "", "IANA time zone used to resolve dates. Can also use "+config.EnvTimezone+" env var.")
	fs.BoolVar(&f.proxyFallback, "proxy-fallback", false, "Route Graph calls through the local proxy when the SDK and raw paths fail. Can also use "+config.EnvProxyFallback+" env var.")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn or error. Can also use "+config.EnvLogLevel+" env var.")
	fs.StringVar(&f.logFormat, "log-format", "", "Log format: text or json. Can also use "+config.EnvLogFormat+" env var.")
}

// overrides returns the flags the user set explicitly.
func (f *configFlags) overrides(cmd *cobra.Command) config.FlagOverrides {
	var o config.FlagOverrides
	changed := cmd.Flags().Changed
	if changed("proxy-url") {
		o.ProxyURL = &f.proxyURL
	}
	if changed("graph-base-url") {
		o.GraphBaseURL = &f.graphBaseURL
	}
	if changed("token-cache") {
		o.TokenCachePath = &f.tokenCachePath
	}
	if changed("http-timeout") {
		o.HTTPTimeout = &f.httpTimeout
	}
	if changed("timezone") {
		o.Timezone = &f.timezone
	}
	if changed("proxy-fallback") {
		o.ProxyFallback = &f.proxyFallback
	}
	if changed("log-level") {
		o.LogLevel = &f.logLevel
	}
	if changed("log-format") {
		o.LogFormat = &f.logFormat
	}
	return o
}

// load resolves the configuration and builds the logger it describes. Logs
// always go to w, which is stderr for the CLI so stdio transport output
// stays clean.
func (f *configFlags) load(cmd *cobra.Command, w io.Writer) (*config.Config, *slog.Logger, error) {
	bootstrap := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPath: f.configPath,
		Flags:      f.overrides(cmd),
		Getenv:     os.Getenv,
		Logger:     bootstrap,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, w)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}
