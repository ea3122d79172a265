// MCP command serves the task tools over stdio.
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/internal/mcptools"
	"github.com/mesh-intelligence/tally/pkg/tally"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP task tools on stdio",
	Long: `Mcp runs a Model Context Protocol server on stdin/stdout, exposing
the task, category, and undo tools to MCP clients. The server uses the
same store as the other commands and runs until stdin closes.

Example:
  tally mcp
  tally mcp --data-dir ~/tasks`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "mcp:", err)
			os.Exit(exitSysError)
		}
		defer store.Detach()

		s := mcptools.NewServer(store, tally.Version)
		if err := server.ServeStdio(s); err != nil {
			fmt.Fprintln(os.Stderr, "mcp:", err)
			os.Exit(exitSysError)
		}
		return nil
	},
}
