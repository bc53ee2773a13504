package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the roombook application
var rootCmd = &cobra.Command{
	Use:   "roombook",
	Short: "Book Exchange meeting rooms from AI assistants",
	Long: `roombook exposes Exchange meeting-room lookup and booking as
Model Context Protocol (MCP) tools.

Room and booking calls go to a local Exchange proxy; generic Microsoft Graph
calls use a cached OAuth token and fall back from the SDK path to raw HTTP.

It can run as:
  - An MCP server for AI assistants (serve)
  - A CLI for the authentication flow (auth) and Graph checks (graph)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "roombook version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newGraphCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
