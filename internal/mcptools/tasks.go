package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// ─── TaskAddTool ────────────────────────────────────────────────────────────

// TaskAddTool handles the task_add MCP tool.
type TaskAddTool struct {
	store types.Store
}

// NewTaskAddTool creates a TaskAddTool over the given store.
func NewTaskAddTool(store types.Store) *TaskAddTool {
	return &TaskAddTool{store: store}
}

// Definition returns the MCP tool definition for task_add.
func (t *TaskAddTool) Definition() mcp.Tool {
	return mcp.NewTool("task_add",
		mcp.WithDescription(
			"Add a task. The task gets a permanent numeric ID and the addition can be reverted with the undo tool.",
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Task text"),
		),
		mcp.WithString("due",
			mcp.Description("Due time in RFC 3339 format, e.g. 2026-03-14T15:00:00Z"),
		),
		mcp.WithNumber("category_id",
			mcp.Description("Category to file the task under (must exist)"),
		),
		mcp.WithString("payload",
			mcp.Description("Extra structured fields as a JSON object, e.g. {\"priority\":2}"),
		),
	)
}

// Handle processes the task_add tool call.
func (t *TaskAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("content", "")
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	e := types.Entry{Content: content}

	if due := req.GetString("due", ""); due != "" {
		ts, err := time.Parse(time.RFC3339, due)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid 'due': %v (expected RFC 3339)", err)), nil
		}
		e.Due = &ts
	}

	if id := int64Arg(req, "category_id", 0); id != 0 {
		e.CategoryID = &id
	}

	if raw := req.GetString("payload", ""); raw != "" {
		var payload map[string]any
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return mcp.NewToolResultError("invalid 'payload': must be a JSON object"), nil
		}
		e.Payload = payload
	}

	created, err := t.store.CreateEntry(e)
	if err != nil {
		if errors.Is(err, types.ErrInvalidCategory) {
			return mcp.NewToolResultError(fmt.Sprintf("category %d does not exist", *e.CategoryID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to add task: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Task %d added: %s", created.EntryID, created.Content)), nil
}

// ─── TaskListTool ───────────────────────────────────────────────────────────

// TaskListTool handles the task_list MCP tool.
type TaskListTool struct {
	store types.Store
}

// NewTaskListTool creates a TaskListTool over the given store.
func NewTaskListTool(store types.Store) *TaskListTool {
	return &TaskListTool{store: store}
}

// Definition returns the MCP tool definition for task_list.
func (t *TaskListTool) Definition() mcp.Tool {
	return mcp.NewTool("task_list",
		mcp.WithDescription(
			"List tasks in ID order with their categories. Narrow to one category with category_id, "+
				"or to tasks without a category with uncategorized=true.",
		),
		mcp.WithNumber("category_id",
			mcp.Description("Only tasks filed under this category"),
		),
		mcp.WithBoolean("uncategorized",
			mcp.Description("Only tasks with no category"),
		),
	)
}

// Handle processes the task_list tool call.
func (t *TaskListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	categoryID := int64Arg(req, "category_id", 0)
	uncategorized := boolArg(req, "uncategorized", false)
	if categoryID != 0 && uncategorized {
		return mcp.NewToolResultError("'category_id' and 'uncategorized' are mutually exclusive"), nil
	}

	filter := types.FilterAll()
	switch {
	case categoryID != 0:
		filter = types.FilterCategory(categoryID)
	case uncategorized:
		filter = types.FilterUncategorized()
	}

	rows, err := t.store.EntriesWithCategory(filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list tasks: %v", err)), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("No tasks found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d task(s):\n", len(rows))
	for _, row := range rows {
		b.WriteString(formatTaskLine(row))
		b.WriteByte('\n')
	}
	return mcp.NewToolResultText(b.String()), nil
}

// formatTaskLine renders one joined row as a single list line.
func formatTaskLine(row *types.EntryWithCategory) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s", row.Entry.EntryID, row.Entry.Content)
	if row.Category != nil {
		fmt.Fprintf(&b, " [%s]", row.Category.Description)
	}
	if row.Entry.Due != nil {
		fmt.Fprintf(&b, " (due %s)", row.Entry.Due.UTC().Format(time.RFC3339))
	}
	return b.String()
}

// ─── TaskUpdateTool ─────────────────────────────────────────────────────────

// TaskUpdateTool handles the task_update MCP tool.
type TaskUpdateTool struct {
	store types.Store
}

// NewTaskUpdateTool creates a TaskUpdateTool over the given store.
func NewTaskUpdateTool(store types.Store) *TaskUpdateTool {
	return &TaskUpdateTool{store: store}
}

// Definition returns the MCP tool definition for task_update.
func (t *TaskUpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("task_update",
		mcp.WithDescription(
			"Update an existing task by ID. Only provided fields are changed; the update can be reverted with the undo tool.",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Task ID to update"),
		),
		mcp.WithString("content",
			mcp.Description("New task text"),
		),
		mcp.WithString("due",
			mcp.Description("New due time in RFC 3339 format"),
		),
		mcp.WithBoolean("clear_due",
			mcp.Description("Remove the due time (wins over 'due')"),
		),
		mcp.WithNumber("category_id",
			mcp.Description("New category; pass 0 to remove the task from its category"),
		),
		mcp.WithString("payload",
			mcp.Description("Replacement JSON object payload"),
		),
	)
}

// Handle processes the task_update tool call.
func (t *TaskUpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "id", 0)
	if id == 0 {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	current, err := t.store.GetEntry(id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("task %d not found", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to load task: %v", err)), nil
	}

	updated := *current
	hasUpdates := false

	if v := req.GetString("content", ""); v != "" {
		updated.Content = v
		hasUpdates = true
	}

	switch {
	case boolArg(req, "clear_due", false):
		updated.Due = nil
		hasUpdates = true
	default:
		if v := req.GetString("due", ""); v != "" {
			ts, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid 'due': %v (expected RFC 3339)", err)), nil
			}
			updated.Due = &ts
			hasUpdates = true
		}
	}

	// Presence matters here: category_id 0 clears the reference, so the
	// raw argument map distinguishes "absent" from "zero".
	if v, ok := req.GetArguments()["category_id"].(float64); ok {
		if categoryID := int64(v); categoryID == 0 {
			updated.CategoryID = nil
		} else {
			updated.CategoryID = &categoryID
		}
		hasUpdates = true
	}

	if raw := req.GetString("payload", ""); raw != "" {
		var payload map[string]any
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			return mcp.NewToolResultError("invalid 'payload': must be a JSON object"), nil
		}
		updated.Payload = payload
		hasUpdates = true
	}

	if !hasUpdates {
		return mcp.NewToolResultError("at least one field to update is required"), nil
	}

	if err := t.store.UpdateEntry(updated); err != nil {
		if errors.Is(err, types.ErrInvalidCategory) {
			return mcp.NewToolResultError(fmt.Sprintf("category %d does not exist", *updated.CategoryID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to update task: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Task %d updated: %s", id, updated.Content)), nil
}

// ─── TaskRemoveTool ─────────────────────────────────────────────────────────

// TaskRemoveTool handles the task_remove MCP tool.
type TaskRemoveTool struct {
	store types.Store
}

// NewTaskRemoveTool creates a TaskRemoveTool over the given store.
func NewTaskRemoveTool(store types.Store) *TaskRemoveTool {
	return &TaskRemoveTool{store: store}
}

// Definition returns the MCP tool definition for task_remove.
func (t *TaskRemoveTool) Definition() mcp.Tool {
	return mcp.NewTool("task_remove",
		mcp.WithDescription(
			"Remove a task by ID. The removal can be reverted with the undo tool; the ID is never reused.",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Task ID to remove"),
		),
	)
}

// Handle processes the task_remove tool call.
func (t *TaskRemoveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := int64Arg(req, "id", 0)
	if id == 0 {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	if err := t.store.DeleteEntry(id); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("task %d not found", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to remove task: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Task %d removed", id)), nil
}
