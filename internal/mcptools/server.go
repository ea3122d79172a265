package mcptools

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// NewServer creates the MCP server with every Tally tool registered
// over the given attached store. The caller owns the store lifecycle:
// attach before calling, detach on shutdown.
func NewServer(store types.Store, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"tally",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	taskAdd := NewTaskAddTool(store)
	s.AddTool(taskAdd.Definition(), taskAdd.Handle)

	taskList := NewTaskListTool(store)
	s.AddTool(taskList.Definition(), taskList.Handle)

	taskUpdate := NewTaskUpdateTool(store)
	s.AddTool(taskUpdate.Definition(), taskUpdate.Handle)

	taskRemove := NewTaskRemoveTool(store)
	s.AddTool(taskRemove.Definition(), taskRemove.Handle)

	categoryAdd := NewCategoryAddTool(store)
	s.AddTool(categoryAdd.Definition(), categoryAdd.Handle)

	categoryCounts := NewCategoryCountsTool(store)
	s.AddTool(categoryCounts.Definition(), categoryCounts.Handle)

	undo := NewUndoTool(store)
	s.AddTool(undo.Definition(), undo.Handle)

	redo := NewRedoTool(store)
	s.AddTool(redo.Definition(), redo.Handle)

	return s
}

// serverInstructions returns the usage notes sent to MCP clients.
func serverInstructions() string {
	return `Tally is a personal task tracker with full undo.

Tools:
- task_add / task_update / task_remove: manage tasks. Tasks have text,
  an optional RFC 3339 due time, an optional category, and an optional
  JSON payload for extra fields.
- task_list: list tasks, optionally narrowed to one category or to
  tasks without a category.
- category_add: create a category to file tasks under.
- category_counts: per-category task counts, plus the uncategorized
  count.
- undo / redo: every mutation above is revertible. undo steps back one
  change at a time; redo reapplies. A new change after undo discards
  the redo history.

Task and category IDs are permanent: they are never reused, even after
a remove is undone. Refer to tasks by the ID reported when they were
added or listed.`
}
