package cmd

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/roombook/internal/dispatch"
	"github.com/teemow/roombook/internal/envelope"
	"github.com/teemow/roombook/internal/server"
	"github.com/teemow/roombook/internal/tools/graph_tools"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Call Microsoft Graph with the cached token",
	}
	cmd.AddCommand(newGraphTestCmd())
	cmd.AddCommand(newGraphGetCmd())
	return cmd
}

func newGraphTestCmd() *cobra.Command {
	var flags configFlags
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Fetch /me to check the Graph connection",
		Args:  cobra.NoArgs,
		RunE: authAction(&flags, func(ctx context.Context, sc *server.ServerContext) envelope.Envelope {
			id, err := sc.Graph().Probe(ctx)
			if err != nil {
				return graph_tools.ErrorEnvelope(err)
			}
			return envelope.Success(map[string]any{
				"message":    "Graph connection OK",
				"user":       id,
				"strategies": sc.Graph().Strategies(),
			})
		}),
	}
	flags.bind(cmd)
	return cmd
}

func newGraphGetCmd() *cobra.Command {
	var (
		flags  configFlags
		params []string
		beta   bool
	)
	cmd := &cobra.Command{
		Use:     "get ENDPOINT",
		Short:   "Issue a GET request, e.g. roombook graph get /me/events -p '$top=5'",
		Args:    cobra.ExactArgs(1),
		Example: "  roombook graph get /places/microsoft.graph.room --beta",
		RunE: func(cmd *cobra.Command, args []string) error {
			run := authAction(&flags, func(ctx context.Context, sc *server.ServerContext) envelope.Envelope {
				result, err := sc.Graph().Call(ctx, dispatch.Request{
					Method:   http.MethodGet,
					Endpoint: args[0],
					Params:   parseParams(params),
					Beta:     beta,
				})
				if err != nil {
					return graph_tools.ErrorEnvelope(err)
				}
				return envelope.Success(map[string]any{"data": result})
			})
			return run(cmd, args)
		},
	}
	flags.bind(cmd)
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Query parameter as key=value; repeatable")
	cmd.Flags().BoolVar(&beta, "beta", false, "Use the beta API surface")
	return cmd
}

// parseParams turns key=value pairs into query values. A pair without "="
// becomes a key with an empty value.
func parseParams(pairs []string) url.Values {
	if len(pairs) == 0 {
		return nil
	}
	q := make(url.Values, len(pairs))
	for _, p := range pairs {
		k, v, _ := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		q.Add(k, v)
	}
	return q
}
