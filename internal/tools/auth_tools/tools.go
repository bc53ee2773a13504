package auth_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/roombook/internal/envelope"
	"github.com/teemow/roombook/internal/instrumentation"
	"github.com/teemow/roombook/internal/server"
	"github.com/teemow/roombook/internal/tools/common"
)

// AuthService is the auth workflow as the tools see it.
type AuthService interface {
	CheckAuthStatus(ctx context.Context) envelope.Envelope
	GetAuthorizationURL(ctx context.Context) envelope.Envelope
	ExchangeCodeForToken(ctx context.Context, code string) envelope.Envelope
	SetTokenFromFormData(ctx context.Context, formData string) envelope.Envelope
	RefreshToken(ctx context.Context) envelope.Envelope
	Logout() envelope.Envelope
}

// RegisterAuthTools registers the authentication tools. They stay available
// in read-only mode since a session has to be established before anything
// can be read.
func RegisterAuthTools(s *mcpserver.MCPServer, sc *server.ServerContext, _ bool) error {
	if sc == nil {
		return fmt.Errorf("server context is required")
	}
	auth := sc.Auth()
	proxy := instrumentation.TargetProxy

	checkTool := mcp.NewTool("check_auth_status",
		mcp.WithDescription("Check whether the Exchange proxy holds an authenticated session"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(checkTool, common.InstrumentedToolHandlerWithTarget("check_auth_status", proxy, "status", sc, handleCheckAuthStatus(auth)))

	urlTool := mcp.NewTool("get_authorization_url",
		mcp.WithDescription("Get the Microsoft sign-in URL the user has to visit to authorize room booking"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(urlTool, common.InstrumentedToolHandlerWithTarget("get_authorization_url", proxy, "authorize", sc, handleGetAuthorizationURL(auth)))

	exchangeTool := mcp.NewTool("exchange_code_for_token",
		mcp.WithDescription("Exchange the authorization code from the sign-in redirect for access tokens"),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("Authorization code from the redirect URL"),
		),
	)
	s.AddTool(exchangeTool, common.InstrumentedToolHandlerWithTarget("exchange_code_for_token", proxy, "callback", sc, handleExchangeCode(auth)))

	formTool := mcp.NewTool("set_token_from_form_data",
		mcp.WithDescription("Complete sign-in from the raw form body Microsoft posted to the callback URL"),
		mcp.WithString("form_data",
			mcp.Required(),
			mcp.Description("URL-encoded form body, e.g. code=...&state=...&session_state=..."),
		),
	)
	s.AddTool(formTool, common.InstrumentedToolHandlerWithTarget("set_token_from_form_data", proxy, "callback", sc, handleSetTokenFromFormData(auth)))

	refreshTool := mcp.NewTool("refresh_token",
		mcp.WithDescription("Refresh the cached Graph access token using the stored refresh token"),
	)
	s.AddTool(refreshTool, common.InstrumentedToolHandlerWithTarget("refresh_token", instrumentation.TargetGraph, "refresh", sc, handleRefreshToken(auth)))

	logoutTool := mcp.NewTool("logout",
		mcp.WithDescription("Forget the cached Graph tokens"),
		mcp.WithDestructiveHintAnnotation(true),
	)
	s.AddTool(logoutTool, common.InstrumentedToolHandler("logout", sc, handleLogout(auth)))

	return nil
}

func handleCheckAuthStatus(auth AuthService) common.ToolHandler {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return common.Result(auth.CheckAuthStatus(ctx)), nil
	}
}

func handleGetAuthorizationURL(auth AuthService) common.ToolHandler {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return common.Result(auth.GetAuthorizationURL(ctx)), nil
	}
}

func handleExchangeCode(auth AuthService) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code := common.StringArg(request.GetArguments(), "code")
		if code == "" {
			return common.MissingArgument("code"), nil
		}
		return common.Result(auth.ExchangeCodeForToken(ctx, code)), nil
	}
}

func handleSetTokenFromFormData(auth AuthService) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		form := common.StringArg(request.GetArguments(), "form_data")
		if form == "" {
			return common.MissingArgument("form_data"), nil
		}
		return common.Result(auth.SetTokenFromFormData(ctx, form)), nil
	}
}

func handleRefreshToken(auth AuthService) common.ToolHandler {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return common.Result(auth.RefreshToken(ctx)), nil
	}
}

func handleLogout(auth AuthService) common.ToolHandler {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return common.Result(auth.Logout()), nil
	}
}
