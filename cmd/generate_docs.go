package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/roombook/internal/config"
	"github.com/teemow/roombook/internal/server"
)

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
The tools are registered exactly as serve registers them, with write tools
enabled, and documented from their schemas.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(outputFile string) error {
	// Doc generation makes no outbound calls; defaults are enough.
	serverContext, err := server.NewServerContext(context.Background(), server.Options{
		Config: config.Default(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv := mcpserver.NewMCPServer("roombook", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := registerAllTools(mcpSrv, serverContext, false); err != nil {
		return err
	}

	tools := make([]mcp.Tool, 0, len(mcpSrv.ListTools()))
	for _, st := range mcpSrv.ListTools() {
		tools = append(tools, st.Tool)
	}
	markdown := generateToolsMarkdown(tools)

	if outputFile == "" {
		fmt.Print(markdown)
		return nil
	}
	if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	return nil
}

// toolDoc is the documented view of one tool.
type toolDoc struct {
	Name        string
	Category    string
	Description string
	ReadOnly    bool
	Args        []argDoc
}

type argDoc struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

func newToolDoc(tool mcp.Tool) toolDoc {
	doc := toolDoc{
		Name:        tool.Name,
		Category:    getCategoryFromToolName(tool.Name),
		Description: tool.Description,
		ReadOnly:    hint(tool.Annotations.ReadOnlyHint),
	}

	for name, raw := range tool.InputSchema.Properties {
		prop, _ := raw.(map[string]any)
		arg := argDoc{
			Name:     name,
			Type:     getPropertyType(prop),
			Required: slices.Contains(tool.InputSchema.Required, name),
		}
		arg.Description, _ = prop["description"].(string)
		doc.Args = append(doc.Args, arg)
	}
	// Required arguments first, then by name.
	sort.Slice(doc.Args, func(i, j int) bool {
		if doc.Args[i].Required != doc.Args[j].Required {
			return doc.Args[i].Required
		}
		return doc.Args[i].Name < doc.Args[j].Name
	})
	return doc
}

func hint(b *bool) bool {
	return b != nil && *b
}

func generateToolsMarkdown(tools []mcp.Tool) string {
	byCategory := make(map[string][]toolDoc)
	for _, tool := range tools {
		doc := newToolDoc(tool)
		byCategory[doc.Category] = append(byCategory[doc.Category], doc)
	}
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	var sb strings.Builder
	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("Tools available when running roombook as an MCP server. ")
	sb.WriteString("This file is generated by `roombook generate-docs`.\n\n")

	sb.WriteString("## Table of Contents\n\n")
	for _, c := range categories {
		fmt.Fprintf(&sb, "- [%s](#%s)\n", c, strings.ToLower(strings.ReplaceAll(c, " ", "-")))
	}
	sb.WriteString("\n")

	sb.WriteString("## Result Format\n\n")
	sb.WriteString("Every tool returns a JSON object with a `status` field of `success` or `error`. ")
	sb.WriteString("Error results carry an `error_message` and are flagged as tool errors. ")
	sb.WriteString("With `--read-only` the booking tools are hidden and `graph_request` accepts GET only.\n\n")

	for _, c := range categories {
		docs := byCategory[c]
		sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })

		fmt.Fprintf(&sb, "## %s\n\n", c)
		for _, doc := range docs {
			sb.WriteString(generateToolMarkdown(doc))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func generateToolMarkdown(doc toolDoc) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "### %s\n\n", doc.Name)
	if doc.ReadOnly {
		sb.WriteString("*read-only*\n\n")
	} else {
		sb.WriteString("*write*\n\n")
	}
	if doc.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", doc.Description)
	}

	if len(doc.Args) > 0 {
		sb.WriteString("| Argument | Type | Required | Description |\n")
		sb.WriteString("|---|---|---|---|\n")
		for _, a := range doc.Args {
			required := "no"
			if a.Required {
				required = "yes"
			}
			fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n", a.Name, a.Type, required, escapeCell(a.Description))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// escapeCell keeps a description inside one markdown table cell.
func escapeCell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}

func getCategoryFromToolName(name string) string {
	switch name {
	case "check_auth_status", "get_authorization_url", "exchange_code_for_token",
		"set_token_from_form_data", "refresh_token", "logout":
		return "Authentication Tools"
	case "get_current_datetime", "resolve_datetime":
		return "Date and Time Tools"
	case "book_room", "cancel_meeting":
		return "Booking Tools"
	}

	parts := strings.Split(name, "_")
	switch {
	case slices.Contains(parts, "room") || slices.Contains(parts, "rooms"):
		return "Room Tools"
	case parts[0] == "graph":
		return "Microsoft Graph Tools"
	default:
		return "Other"
	}
}

func getPropertyType(prop map[string]any) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}
