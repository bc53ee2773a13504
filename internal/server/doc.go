// Package server holds the roombook server context and its HTTP surfaces.
//
// ServerContext owns the collaborators every MCP tool shares: the on-disk
// token store, the Exchange proxy client, the Graph dispatcher, the room
// directory and the auth and booking workflows. It replaces process-wide
// caches with one explicit object created at startup.
//
// HTTPServer mounts the MCP streamable-http endpoint on a chi router next
// to /healthz, /readyz and /healthz/detailed. MetricsServer serves the
// Prometheus scrape endpoint on its own port.
package server
