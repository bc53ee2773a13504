// Package auth_tools provides the MCP tools that drive Exchange
// authentication: status checks, the authorization URL, code and callback
// form exchange, token refresh and logout.
package auth_tools
