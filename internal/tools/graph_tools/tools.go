package graph_tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/roombook/internal/dispatch"
	"github.com/teemow/roombook/internal/envelope"
	"github.com/teemow/roombook/internal/instrumentation"
	"github.com/teemow/roombook/internal/server"
	"github.com/teemow/roombook/internal/tools/common"
)

// GraphService is the dispatcher as the tools see it.
type GraphService interface {
	Call(ctx context.Context, req dispatch.Request) (any, error)
	Probe(ctx context.Context) (*dispatch.Identity, error)
}

// RegisterGraphTools registers graph_request and graph_probe. In read-only
// mode graph_request only accepts GET.
func RegisterGraphTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if sc == nil {
		return fmt.Errorf("server context is required")
	}
	graph := sc.Graph()
	target := instrumentation.TargetGraph

	requestTool := mcp.NewTool("graph_request",
		mcp.WithDescription("Call the Microsoft Graph API with the cached token. "+
			"The SDK client is tried first, then raw HTTP."),
		mcp.WithString("endpoint",
			mcp.Required(),
			mcp.Description("Path relative to the API version, e.g. /me/calendar/events or /places/microsoft.graph.room"),
		),
		mcp.WithString("method",
			mcp.Description("HTTP method: GET, POST, PUT, PATCH or DELETE (default: GET)"),
		),
		mcp.WithObject("params",
			mcp.Description("Query parameters, e.g. {\"$top\": 10}"),
		),
		mcp.WithObject("body",
			mcp.Description("JSON request body"),
		),
		mcp.WithBoolean("beta",
			mcp.Description("Use the beta API surface instead of v1.0 (default: false)"),
		),
	)
	s.AddTool(requestTool, common.InstrumentedToolHandlerWithTarget("graph_request", target, "request", sc, handleGraphRequest(graph, readOnly)))

	probeTool := mcp.NewTool("graph_probe",
		mcp.WithDescription("Test the Graph connection by fetching the signed-in user"),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(probeTool, common.InstrumentedToolHandlerWithTarget("graph_probe", target, "probe", sc, handleGraphProbe(graph)))

	return nil
}

func handleGraphRequest(graph GraphService, readOnly bool) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		endpoint := common.StringArg(args, "endpoint")
		if endpoint == "" {
			return common.MissingArgument("endpoint"), nil
		}
		method := strings.ToUpper(common.StringArg(args, "method"))
		if method == "" {
			method = http.MethodGet
		}
		if readOnly && method != http.MethodGet {
			return common.Result(envelope.Errorf("%s is not allowed in read-only mode", method)), nil
		}

		req := dispatch.Request{
			Method:   method,
			Endpoint: endpoint,
			Params:   queryValues(common.ObjectArg(args, "params")),
			Beta:     common.BoolArg(args, "beta", false),
		}
		if body := common.ObjectArg(args, "body"); body != nil {
			req.Body = body
		}

		result, err := graph.Call(ctx, req)
		if err != nil {
			return common.Result(ErrorEnvelope(err)), nil
		}
		return common.Result(envelope.Success(map[string]any{"data": result})), nil
	}
}

func handleGraphProbe(graph GraphService) common.ToolHandler {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := graph.Probe(ctx)
		if err != nil {
			return common.Result(ErrorEnvelope(err)), nil
		}
		return common.Result(envelope.Success(map[string]any{
			"message": "Graph connection OK",
			"user":    id,
		})), nil
	}
}

// ErrorEnvelope maps dispatcher errors to envelopes.
func ErrorEnvelope(err error) envelope.Envelope {
	var httpErr *dispatch.HTTPError
	switch {
	case errors.Is(err, dispatch.ErrNotAuthenticated):
		return envelope.Error("Not authenticated with Microsoft Graph. Please authenticate first.")
	case errors.Is(err, dispatch.ErrUnsupportedMethod):
		return envelope.Errorf("Invalid request: %v", err)
	case errors.As(err, &httpErr):
		return envelope.Errorf("Graph API request failed: %d %s", httpErr.StatusCode, httpErr.Body)
	default:
		return envelope.Errorf("Error calling Microsoft Graph: %v", err)
	}
}

// queryValues flattens a JSON object into query parameters. Arrays become
// repeated keys.
func queryValues(params map[string]any) url.Values {
	if len(params) == 0 {
		return nil
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := make(url.Values, len(params))
	for _, k := range keys {
		switch v := params[k].(type) {
		case []any:
			for _, item := range v {
				q.Add(k, fmt.Sprint(item))
			}
		case nil:
		default:
			q.Set(k, fmt.Sprint(v))
		}
	}
	return q
}
