// Package room_tools provides MCP tools for listing meeting rooms and
// reading their details and availability through the Exchange proxy.
package room_tools
