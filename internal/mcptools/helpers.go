// Package mcptools provides MCP tool handlers over the Tally store.
//
// Each tool follows the same pattern:
// - A struct holding the types.Store injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Domain failures (missing task, nothing to undo) are tool errors, not
// Go errors: Handle returns mcp.NewToolResultError with a nil error so
// the client sees the message instead of a transport failure.
package mcptools

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// int64Arg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func int64Arg(req mcp.CallToolRequest, key string, defaultVal int64) int64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int64(v)
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}
