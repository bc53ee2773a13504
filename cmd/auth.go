package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/roombook/internal/envelope"
	"github.com/teemow/roombook/internal/server"
)

// newCLIContext builds a ServerContext for one-shot commands. Metrics and
// audit logging stay off.
func newCLIContext(cmd *cobra.Command, flags *configFlags) (*server.ServerContext, error) {
	cfg, logger, err := flags.load(cmd, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	sc, err := server.NewServerContext(ctx, server.Options{Config: cfg, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}
	return sc, nil
}

// printEnvelope writes env as JSON and turns an error envelope into a
// command error so the exit status is non-zero.
func printEnvelope(w io.Writer, env envelope.Envelope) error {
	fmt.Fprintln(w, env.JSON())
	if env.IsError() {
		return errors.New(env.ErrorMessage())
	}
	return nil
}

// authAction runs one auth workflow step against a fresh context.
func authAction(flags *configFlags, run func(ctx context.Context, sc *server.ServerContext) envelope.Envelope) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		sc, err := newCLIContext(cmd, flags)
		if err != nil {
			return err
		}
		defer func() { _ = sc.Shutdown() }()
		return printEnvelope(cmd.OutOrStdout(), run(sc.Context(), sc))
	}
}

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with Exchange and Microsoft Graph",
		Long: `Drive the authentication flow from a terminal.

A typical session:
  roombook auth url              # open the printed URL and sign in
  roombook auth login --code X   # hand the returned code to the proxy
  roombook auth status`,
	}

	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthURLCmd())
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthRefreshCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	var flags configFlags
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the proxy and the token cache are authenticated",
		Args:  cobra.NoArgs,
		RunE: authAction(&flags, func(ctx context.Context, sc *server.ServerContext) envelope.Envelope {
			proxy := sc.Auth().CheckAuthStatus(ctx)
			return envelope.Success(map[string]any{
				"proxy":              proxy["authenticated"],
				"graph_token_cached": sc.Tokens().Authenticated(sc.Now()),
				"token_cache":        sc.Tokens().Path(),
			})
		}),
	}
	flags.bind(cmd)
	return cmd
}

func newAuthURLCmd() *cobra.Command {
	var flags configFlags
	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the authorization URL to open in a browser",
		Args:  cobra.NoArgs,
		RunE: authAction(&flags, func(ctx context.Context, sc *server.ServerContext) envelope.Envelope {
			return sc.Auth().GetAuthorizationURL(ctx)
		}),
	}
	flags.bind(cmd)
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		flags    configFlags
		code     string
		formData string
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Complete sign-in with an authorization code or callback form data",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if (code == "") == (formData == "") {
				return errors.New("exactly one of --code or --form is required")
			}
			return nil
		},
		RunE: authAction(&flags, func(ctx context.Context, sc *server.ServerContext) envelope.Envelope {
			if code != "" {
				return sc.Auth().ExchangeCodeForToken(ctx, code)
			}
			if formData == "-" {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return envelope.Errorf("Failed to read form data: %v", err)
				}
				formData = string(data)
			}
			return sc.Auth().SetTokenFromFormData(ctx, formData)
		}),
	}
	flags.bind(cmd)
	cmd.Flags().StringVar(&code, "code", "", "Authorization code returned to the redirect URL")
	cmd.Flags().StringVar(&formData, "form", "", "Raw callback form body (code=...&state=...), or - to read it from stdin")
	return cmd
}

func newAuthRefreshCmd() *cobra.Command {
	var flags configFlags
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the cached Graph token with the identity platform",
		Args:  cobra.NoArgs,
		RunE: authAction(&flags, func(ctx context.Context, sc *server.ServerContext) envelope.Envelope {
			return sc.Auth().RefreshToken(ctx)
		}),
	}
	flags.bind(cmd)
	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	var flags configFlags
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Delete the cached Graph token",
		Args:  cobra.NoArgs,
		RunE: authAction(&flags, func(_ context.Context, sc *server.ServerContext) envelope.Envelope {
			return sc.Auth().Logout()
		}),
	}
	flags.bind(cmd)
	return cmd
}
