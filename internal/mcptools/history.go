package mcptools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// ─── UndoTool ───────────────────────────────────────────────────────────────

// UndoTool handles the undo MCP tool.
type UndoTool struct {
	store types.Store
}

// NewUndoTool creates an UndoTool over the given store.
func NewUndoTool(store types.Store) *UndoTool {
	return &UndoTool{store: store}
}

// Definition returns the MCP tool definition for undo.
func (t *UndoTool) Definition() mcp.Tool {
	return mcp.NewTool("undo",
		mcp.WithDescription(
			"Revert the most recent change (task or category add, update, or remove). Call repeatedly to step further back.",
		),
	)
}

// Handle processes the undo tool call.
func (t *UndoTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.store.Undo(); err != nil {
		if errors.Is(err, types.ErrNothingToUndo) {
			return mcp.NewToolResultError("nothing to undo"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("undo failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Last change undone. More to undo: %t, redo available: %t",
		t.store.CanUndo(), t.store.CanRedo(),
	)), nil
}

// ─── RedoTool ───────────────────────────────────────────────────────────────

// RedoTool handles the redo MCP tool.
type RedoTool struct {
	store types.Store
}

// NewRedoTool creates a RedoTool over the given store.
func NewRedoTool(store types.Store) *RedoTool {
	return &RedoTool{store: store}
}

// Definition returns the MCP tool definition for redo.
func (t *RedoTool) Definition() mcp.Tool {
	return mcp.NewTool("redo",
		mcp.WithDescription(
			"Reapply the most recently undone change. Unavailable after a new change discards the redo history.",
		),
	)
}

// Handle processes the redo tool call.
func (t *RedoTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.store.Redo(); err != nil {
		if errors.Is(err, types.ErrNothingToRedo) {
			return mcp.NewToolResultError("nothing to redo"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("redo failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Undone change reapplied. More to redo: %t, undo available: %t",
		t.store.CanRedo(), t.store.CanUndo(),
	)), nil
}
