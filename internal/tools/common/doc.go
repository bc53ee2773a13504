// Package common provides shared helpers for the MCP tool packages:
// instrumentation wrappers, argument accessors and envelope rendering.
package common
