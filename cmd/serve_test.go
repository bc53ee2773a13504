package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/roombook/internal/envelope"
	"github.com/teemow/roombook/internal/tools/toolstest"
)

func TestRegisterAllTools(t *testing.T) {
	tests := []struct {
		name     string
		readOnly bool
		want     []string
		absent   []string
	}{
		{
			name:     "write mode",
			readOnly: false,
			want:     []string{"book_room", "cancel_meeting", "get_all_rooms", "graph_request", "check_auth_status", "resolve_datetime"},
		},
		{
			name:     "read-only mode",
			readOnly: true,
			want:     []string{"get_all_rooms", "graph_request", "logout", "get_current_datetime"},
			absent:   []string{"book_room", "cancel_meeting"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := toolstest.NewMCPServer()
			sc := toolstest.ServerContext(t, "")

			require.NoError(t, registerAllTools(s, sc, tt.readOnly))

			names := toolstest.ToolNames(t, s)
			for _, n := range tt.want {
				assert.Contains(t, names, n)
			}
			for _, n := range tt.absent {
				assert.NotContains(t, names, n)
			}
		})
	}
}

func TestGetCategoryFromToolName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"check_auth_status", "Authentication Tools"},
		{"logout", "Authentication Tools"},
		{"get_all_rooms", "Room Tools"},
		{"get_room_info", "Room Tools"},
		{"list_available_rooms", "Room Tools"},
		{"book_room", "Booking Tools"},
		{"cancel_meeting", "Booking Tools"},
		{"resolve_datetime", "Date and Time Tools"},
		{"graph_request", "Microsoft Graph Tools"},
		{"something_else", "Other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getCategoryFromToolName(tt.name); got != tt.want {
				t.Errorf("getCategoryFromToolName(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestGenerateToolsMarkdown(t *testing.T) {
	tools := []mcp.Tool{
		mcp.NewTool("get_room_info",
			mcp.WithDescription("Get room details"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithBoolean("force_refresh", mcp.Description("Bypass the cache")),
			mcp.WithString("room_id", mcp.Required(), mcp.Description("Room identifier")),
		),
		mcp.NewTool("cancel_meeting",
			mcp.WithDescription("Cancel a meeting"),
			mcp.WithDestructiveHintAnnotation(true),
		),
		mcp.NewTool("graph_probe", mcp.WithDescription("Probe Graph")),
	}

	md := generateToolsMarkdown(tools)

	assert.Contains(t, md, "# MCP Tools Reference")
	assert.Contains(t, md, "- [Room Tools](#room-tools)")
	assert.Contains(t, md, "### get_room_info\n\n*read-only*")
	assert.Contains(t, md, "### cancel_meeting\n\n*write*")
	assert.Contains(t, md, "| `room_id` | string | yes | Room identifier |")
	assert.Less(t, strings.Index(md, "`room_id`"), strings.Index(md, "`force_refresh`"), "required arguments come first")
	assert.Less(t, strings.Index(md, "## Microsoft Graph Tools"), strings.Index(md, "## Room Tools"))
}

func TestEscapeCell(t *testing.T) {
	if got := escapeCell("a|b\nc"); got != `a\|b c` {
		t.Errorf("escapeCell() = %q", got)
	}
}

func TestConfigFlagsOverrides(t *testing.T) {
	newCmd := func() (*cobra.Command, *configFlags) {
		var f configFlags
		cmd := &cobra.Command{Use: "x", RunE: func(*cobra.Command, []string) error { return nil }}
		f.bind(cmd)
		return cmd, &f
	}

	t.Run("unset flags stay nil", func(t *testing.T) {
		cmd, f := newCmd()
		require.NoError(t, cmd.ParseFlags(nil))

		o := f.overrides(cmd)
		assert.Nil(t, o.ProxyURL)
		assert.Nil(t, o.HTTPTimeout)
		assert.Nil(t, o.ProxyFallback)
	})

	t.Run("changed flags are passed through", func(t *testing.T) {
		cmd, f := newCmd()
		require.NoError(t, cmd.ParseFlags([]string{
			"--proxy-url", "http://proxy:9000",
			"--http-timeout", "5s",
			"--proxy-fallback=false",
			"--timezone", "Europe/Berlin",
			"--log-format", "json",
		}))

		o := f.overrides(cmd)
		require.NotNil(t, o.ProxyURL)
		assert.Equal(t, "http://proxy:9000", *o.ProxyURL)
		require.NotNil(t, o.HTTPTimeout)
		assert.Equal(t, 5*time.Second, *o.HTTPTimeout)
		require.NotNil(t, o.ProxyFallback)
		assert.False(t, *o.ProxyFallback)
		require.NotNil(t, o.Timezone)
		assert.Equal(t, "Europe/Berlin", *o.Timezone)
		require.NotNil(t, o.LogFormat)
		assert.Equal(t, "json", *o.LogFormat)
		assert.Nil(t, o.LogLevel)
	})
}

func TestLoadMetricsEnvVars(t *testing.T) {
	newCmd := func(args ...string) (*cobra.Command, *MetricsConfig) {
		mc := &MetricsConfig{}
		cmd := &cobra.Command{Use: "x"}
		cmd.Flags().BoolVar(&mc.Enabled, "metrics-enabled", true, "")
		cmd.Flags().StringVar(&mc.Addr, "metrics-addr", ":9090", "")
		require.NoError(t, cmd.ParseFlags(args))
		return cmd, mc
	}

	t.Run("env applies when flags unset", func(t *testing.T) {
		t.Setenv("METRICS_ENABLED", "false")
		t.Setenv("METRICS_ADDR", ":9999")
		cmd, mc := newCmd()

		loadMetricsEnvVars(cmd, mc)
		assert.False(t, mc.Enabled)
		assert.Equal(t, ":9999", mc.Addr)
	})

	t.Run("flags win over env", func(t *testing.T) {
		t.Setenv("METRICS_ENABLED", "false")
		t.Setenv("METRICS_ADDR", ":9999")
		cmd, mc := newCmd("--metrics-enabled=true", "--metrics-addr", ":7000")

		loadMetricsEnvVars(cmd, mc)
		assert.True(t, mc.Enabled)
		assert.Equal(t, ":7000", mc.Addr)
	})
}

func TestRunServe_UnsupportedTransport(t *testing.T) {
	err := runServe(nil, nil, serveOptions{transport: "sse"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport type: sse")
}

func TestParseParams(t *testing.T) {
	q := parseParams([]string{"$top=5", "$select=id,displayName", " =ignored", "flag"})

	assert.Equal(t, "5", q.Get("$top"))
	assert.Equal(t, "id,displayName", q.Get("$select"))
	assert.True(t, q.Has("flag"))
	assert.Len(t, q, 3)
	assert.Nil(t, parseParams(nil))
}

func TestPrintEnvelope(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printEnvelope(&buf, envelope.Success(map[string]any{"authenticated": true})))
	assert.Contains(t, buf.String(), `"status": "success"`)

	buf.Reset()
	err := printEnvelope(&buf, envelope.Error("Failed to refresh token: no refresh token"))
	require.Error(t, err)
	assert.Equal(t, "Failed to refresh token: no refresh token", err.Error())
	assert.Contains(t, buf.String(), `"error_message"`)
}

func TestVersionCmd(t *testing.T) {
	SetVersion("1.2.3")
	t.Cleanup(func() { SetVersion("dev") })

	var buf bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(buf.String(), "roombook version 1.2.3"))
}
