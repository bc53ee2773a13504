// Package cmd implements the command-line interface for roombook.
//
// This package provides the following commands:
//   - serve: Start the MCP server over stdio or streamable HTTP
//   - auth: Drive the Exchange/Graph authentication flow from a terminal
//   - graph: Check Microsoft Graph connectivity with the cached token
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
package cmd
