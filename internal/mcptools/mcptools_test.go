package mcptools

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mesh-intelligence/tally/internal/sqlite"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// ─── Test helpers ────────────────────────────────────────────────────────────

// newTestStore creates an attached store in a temp directory.
func newTestStore(t *testing.T) types.Store {
	t.Helper()
	store := sqlite.NewBackend()
	err := store.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("failed to attach test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Detach() })
	return store
}

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// mustNotError asserts the Handle call returns no Go error and no tool error.
func mustNotError(t *testing.T, r *mcp.CallToolResult, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if r.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(r))
	}
}

// mustBeToolError asserts the Handle call returns a tool error (not a Go error).
func mustBeToolError(t *testing.T, r *mcp.CallToolResult, err error, wantSubstr string) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected Go error: %v", err)
	}
	if !r.IsError {
		t.Fatalf("expected tool error containing %q, got success: %s", wantSubstr, resultText(r))
	}
	if wantSubstr != "" && !strings.Contains(resultText(r), wantSubstr) {
		t.Errorf("error text %q does not contain %q", resultText(r), wantSubstr)
	}
}

// ─── TaskAddTool tests ───────────────────────────────────────────────────────

func TestTaskAddTool_Definition(t *testing.T) {
	tool := NewTaskAddTool(newTestStore(t))
	def := tool.Definition()

	if def.Name != "task_add" {
		t.Errorf("tool name = %q, want %q", def.Name, "task_add")
	}

	props := def.InputSchema.Properties
	for _, p := range []string{"content", "due", "category_id", "payload"} {
		if _, ok := props[p]; !ok {
			t.Errorf("missing %q parameter", p)
		}
	}

	required := def.InputSchema.Required
	if len(required) != 1 || required[0] != "content" {
		t.Errorf("required = %v, want [content]", required)
	}
}

func TestTaskAddTool(t *testing.T) {
	store := newTestStore(t)
	tool := NewTaskAddTool(store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"content": "water the plants",
	}))
	mustNotError(t, result, err)

	text := resultText(result)
	if !strings.Contains(text, "Task 1 added") {
		t.Errorf("expected 'Task 1 added', got: %s", text)
	}

	got, err := store.GetEntry(1)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if got.Content != "water the plants" {
		t.Errorf("stored content = %q", got.Content)
	}
}

func TestTaskAddTool_AllArguments(t *testing.T) {
	store := newTestStore(t)
	category, err := store.CreateCategory("Home")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	tool := NewTaskAddTool(store)

	result, handleErr := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"content":     "descale the kettle",
		"due":         "2026-09-01T08:00:00Z",
		"category_id": float64(category.CategoryID),
		"payload":     `{"priority": 2}`,
	}))
	mustNotError(t, result, handleErr)

	got, err := store.GetEntry(1)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	wantDue := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	if got.Due == nil || !got.Due.Equal(wantDue) {
		t.Errorf("stored due = %v, want %v", got.Due, wantDue)
	}
	if got.CategoryID == nil || *got.CategoryID != category.CategoryID {
		t.Errorf("stored category = %v, want %d", got.CategoryID, category.CategoryID)
	}
	if got.Payload["priority"] != float64(2) {
		t.Errorf("stored payload = %v", got.Payload)
	}
}

func TestTaskAddTool_BadArguments(t *testing.T) {
	tool := NewTaskAddTool(newTestStore(t))

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	mustBeToolError(t, result, err, "content")

	result, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"content": "x",
		"due":     "tomorrow morning",
	}))
	mustBeToolError(t, result, err, "due")

	result, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"content": "x",
		"payload": "{broken",
	}))
	mustBeToolError(t, result, err, "payload")
}

func TestTaskAddTool_UnknownCategory(t *testing.T) {
	tool := NewTaskAddTool(newTestStore(t))

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"content":     "x",
		"category_id": float64(42),
	}))
	mustBeToolError(t, result, err, "category 42 does not exist")
}

// ─── TaskListTool tests ──────────────────────────────────────────────────────

func TestTaskListTool(t *testing.T) {
	store := newTestStore(t)
	category, err := store.CreateCategory("Work")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if _, err := store.CreateEntry(types.Entry{Content: "file the report", CategoryID: &category.CategoryID}); err != nil {
		t.Fatalf("CreateEntry failed: %v", err)
	}
	if _, err := store.CreateEntry(types.Entry{Content: "buy milk"}); err != nil {
		t.Fatalf("CreateEntry failed: %v", err)
	}
	tool := NewTaskListTool(store)

	t.Run("all tasks", func(t *testing.T) {
		result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
		mustNotError(t, result, err)

		text := resultText(result)
		if !strings.Contains(text, "2 task(s)") {
			t.Errorf("expected count header, got: %s", text)
		}
		if !strings.Contains(text, "#1 file the report [Work]") {
			t.Errorf("expected categorized line, got: %s", text)
		}
		if !strings.Contains(text, "#2 buy milk") {
			t.Errorf("expected uncategorized line, got: %s", text)
		}
	})

	t.Run("one category", func(t *testing.T) {
		result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
			"category_id": float64(category.CategoryID),
		}))
		mustNotError(t, result, err)

		text := resultText(result)
		if !strings.Contains(text, "file the report") {
			t.Errorf("expected work task, got: %s", text)
		}
		if strings.Contains(text, "buy milk") {
			t.Errorf("uncategorized task should be filtered out, got: %s", text)
		}
	})

	t.Run("uncategorized only", func(t *testing.T) {
		result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
			"uncategorized": true,
		}))
		mustNotError(t, result, err)

		text := resultText(result)
		if !strings.Contains(text, "buy milk") {
			t.Errorf("expected uncategorized task, got: %s", text)
		}
		if strings.Contains(text, "file the report") {
			t.Errorf("categorized task should be filtered out, got: %s", text)
		}
	})

	t.Run("conflicting filters", func(t *testing.T) {
		result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
			"category_id":   float64(category.CategoryID),
			"uncategorized": true,
		}))
		mustBeToolError(t, result, err, "mutually exclusive")
	})
}

func TestTaskListTool_Empty(t *testing.T) {
	tool := NewTaskListTool(newTestStore(t))

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	mustNotError(t, result, err)

	if text := resultText(result); !strings.Contains(text, "No tasks found") {
		t.Errorf("expected empty message, got: %s", text)
	}
}

// ─── TaskUpdateTool tests ────────────────────────────────────────────────────

func TestTaskUpdateTool_PartialUpdate(t *testing.T) {
	store := newTestStore(t)
	due := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	if _, err := store.CreateEntry(types.Entry{Content: "draft the memo", Due: &due}); err != nil {
		t.Fatalf("CreateEntry failed: %v", err)
	}
	tool := NewTaskUpdateTool(store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"id":      float64(1),
		"content": "send the memo",
	}))
	mustNotError(t, result, err)

	got, err := store.GetEntry(1)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if got.Content != "send the memo" {
		t.Errorf("content = %q, want updated text", got.Content)
	}
	if got.Due == nil || !got.Due.Equal(due) {
		t.Errorf("due = %v, want preserved %v", got.Due, due)
	}
}

func TestTaskUpdateTool_ClearFields(t *testing.T) {
	store := newTestStore(t)
	category, err := store.CreateCategory("Work")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	due := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	if _, err := store.CreateEntry(types.Entry{Content: "x", Due: &due, CategoryID: &category.CategoryID}); err != nil {
		t.Fatalf("CreateEntry failed: %v", err)
	}
	tool := NewTaskUpdateTool(store)

	result, handleErr := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"id":          float64(1),
		"clear_due":   true,
		"category_id": float64(0),
	}))
	mustNotError(t, result, handleErr)

	got, err := store.GetEntry(1)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if got.Due != nil {
		t.Errorf("due = %v, want cleared", got.Due)
	}
	if got.CategoryID != nil {
		t.Errorf("category = %v, want cleared", got.CategoryID)
	}
}

func TestTaskUpdateTool_BadRequests(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.CreateEntry(types.Entry{Content: "x"}); err != nil {
		t.Fatalf("CreateEntry failed: %v", err)
	}
	tool := NewTaskUpdateTool(store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	mustBeToolError(t, result, err, "id")

	result, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"id": float64(99),
	}))
	mustBeToolError(t, result, err, "task 99 not found")

	result, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"id": float64(1),
	}))
	mustBeToolError(t, result, err, "at least one field")
}

// ─── TaskRemoveTool tests ────────────────────────────────────────────────────

func TestTaskRemoveTool(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.CreateEntry(types.Entry{Content: "x"}); err != nil {
		t.Fatalf("CreateEntry failed: %v", err)
	}
	tool := NewTaskRemoveTool(store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"id": float64(1),
	}))
	mustNotError(t, result, err)

	if _, err := store.GetEntry(1); err != types.ErrNotFound {
		t.Errorf("GetEntry after remove = %v, want ErrNotFound", err)
	}

	result, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"id": float64(1),
	}))
	mustBeToolError(t, result, err, "task 1 not found")
}

// ─── Category tool tests ─────────────────────────────────────────────────────

func TestCategoryAddTool(t *testing.T) {
	store := newTestStore(t)
	tool := NewCategoryAddTool(store)

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"description": "Errands",
	}))
	mustNotError(t, result, err)

	if text := resultText(result); !strings.Contains(text, "Category 1 added: Errands") {
		t.Errorf("unexpected response: %s", text)
	}

	result, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	mustBeToolError(t, result, err, "description")
}

func TestCategoryCountsTool(t *testing.T) {
	store := newTestStore(t)
	category, err := store.CreateCategory("Work")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if _, err := store.CreateEntry(types.Entry{Content: "a", CategoryID: &category.CategoryID}); err != nil {
		t.Fatalf("CreateEntry failed: %v", err)
	}
	if _, err := store.CreateEntry(types.Entry{Content: "b"}); err != nil {
		t.Fatalf("CreateEntry failed: %v", err)
	}
	tool := NewCategoryCountsTool(store)

	result, handleErr := tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	mustNotError(t, result, handleErr)

	text := resultText(result)
	if !strings.Contains(text, "Work (#1): 1 task(s)") {
		t.Errorf("expected work count line, got: %s", text)
	}
	if !strings.Contains(text, "(uncategorized): 1 task(s)") {
		t.Errorf("expected uncategorized count line, got: %s", text)
	}
}

// ─── Undo and redo tool tests ────────────────────────────────────────────────

func TestUndoRedoTools(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.CreateEntry(types.Entry{Content: "x"}); err != nil {
		t.Fatalf("CreateEntry failed: %v", err)
	}
	undo := NewUndoTool(store)
	redo := NewRedoTool(store)

	result, err := undo.Handle(context.Background(), makeReq(map[string]interface{}{}))
	mustNotError(t, result, err)
	if text := resultText(result); !strings.Contains(text, "undone") {
		t.Errorf("unexpected undo response: %s", text)
	}
	entries, err := store.Entries()
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries after undo = %d, want 0", len(entries))
	}

	result, err = redo.Handle(context.Background(), makeReq(map[string]interface{}{}))
	mustNotError(t, result, err)
	if _, err := store.GetEntry(1); err != nil {
		t.Errorf("entry should be back after redo: %v", err)
	}

	result, err = redo.Handle(context.Background(), makeReq(map[string]interface{}{}))
	mustBeToolError(t, result, err, "nothing to redo")

	undoAll := func() {
		for store.CanUndo() {
			r, err := undo.Handle(context.Background(), makeReq(map[string]interface{}{}))
			mustNotError(t, r, err)
		}
	}
	undoAll()

	result, err = undo.Handle(context.Background(), makeReq(map[string]interface{}{}))
	mustBeToolError(t, result, err, "nothing to undo")
}

// ─── Server composition test ─────────────────────────────────────────────────

func TestNewServer_RegistersTools(t *testing.T) {
	store := newTestStore(t)
	s := NewServer(store, "test")
	if s == nil {
		t.Fatal("NewServer returned nil")
	}
}
