package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// ─── CategoryAddTool ────────────────────────────────────────────────────────

// CategoryAddTool handles the category_add MCP tool.
type CategoryAddTool struct {
	store types.Store
}

// NewCategoryAddTool creates a CategoryAddTool over the given store.
func NewCategoryAddTool(store types.Store) *CategoryAddTool {
	return &CategoryAddTool{store: store}
}

// Definition returns the MCP tool definition for category_add.
func (t *CategoryAddTool) Definition() mcp.Tool {
	return mcp.NewTool("category_add",
		mcp.WithDescription(
			"Add a category that tasks can be filed under. The addition can be reverted with the undo tool.",
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("Category label, e.g. Work"),
		),
	)
}

// Handle processes the category_add tool call.
func (t *CategoryAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description := req.GetString("description", "")
	if description == "" {
		return mcp.NewToolResultError("'description' is required"), nil
	}

	created, err := t.store.CreateCategory(description)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add category: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Category %d added: %s", created.CategoryID, created.Description)), nil
}

// ─── CategoryCountsTool ─────────────────────────────────────────────────────

// CategoryCountsTool handles the category_counts MCP tool.
type CategoryCountsTool struct {
	store types.Store
}

// NewCategoryCountsTool creates a CategoryCountsTool over the given store.
func NewCategoryCountsTool(store types.Store) *CategoryCountsTool {
	return &CategoryCountsTool{store: store}
}

// Definition returns the MCP tool definition for category_counts.
func (t *CategoryCountsTool) Definition() mcp.Tool {
	return mcp.NewTool("category_counts",
		mcp.WithDescription(
			"Show every category with its live task count, plus the number of tasks without a category.",
		),
	)
}

// Handle processes the category_counts tool call.
func (t *CategoryCountsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := t.store.CategoriesWithCounts()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to count tasks: %v", err)), nil
	}

	var b strings.Builder
	for _, row := range rows {
		if row.Category != nil {
			fmt.Fprintf(&b, "%s (#%d): %d task(s)\n", row.Category.Description, row.Category.CategoryID, row.Count)
		} else {
			fmt.Fprintf(&b, "(uncategorized): %d task(s)\n", row.Count)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
