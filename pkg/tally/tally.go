// Package tally carries project-level constants shared by the CLI and
// the MCP server.
package tally

// Version is the tally release version.
const Version = "0.2.0"
