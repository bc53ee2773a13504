// Package datetime_tools provides MCP tools for reading the server clock and
// previewing how a booking time phrase resolves.
package datetime_tools
