// Package graph_tools exposes the Graph request dispatcher as MCP tools: a
// generic graph_request and a connectivity probe.
package graph_tools
