package common

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/roombook/internal/envelope"
)

// Result renders an envelope as a tool result. Error envelopes set IsError
// but keep the envelope JSON as content, so clients see error_message.
func Result(env envelope.Envelope) *mcp.CallToolResult {
	result := mcp.NewToolResultText(env.JSON())
	result.IsError = env.IsError()
	return result
}

// MissingArgument is the result for a required argument that was not given.
func MissingArgument(name string) *mcp.CallToolResult {
	return Result(envelope.Errorf("%s is required", name))
}
