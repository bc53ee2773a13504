// Package booking_tools provides the MCP tools that book meeting rooms and
// cancel meetings. They are not registered in read-only mode.
package booking_tools
