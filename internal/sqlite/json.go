// JSON record structures for the export and import files and for the
// persisted history journal.
package sqlite

import (
	"fmt"
	"time"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// entryJSON represents an entry in entries.jsonl.
type entryJSON struct {
	EntryID    int64          `json:"entry_id"`
	Content    string         `json:"content"`
	DueAt      string         `json:"due_at,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	CategoryID *int64         `json:"category_id,omitempty"`
}

// categoryJSON represents a category in categories.jsonl.
type categoryJSON struct {
	CategoryID  int64  `json:"category_id"`
	Description string `json:"description"`
}

// entryToJSON converts an entry to its export record.
func entryToJSON(e *types.Entry) entryJSON {
	rec := entryJSON{
		EntryID:    e.EntryID,
		Content:    e.Content,
		Payload:    e.Payload,
		CategoryID: e.CategoryID,
	}
	if e.Due != nil {
		rec.DueAt = e.Due.UTC().Format(time.RFC3339)
	}
	return rec
}

// entryFromJSON converts an export record back to an entry.
func entryFromJSON(rec entryJSON) (*types.Entry, error) {
	e := &types.Entry{
		EntryID:    rec.EntryID,
		Content:    rec.Content,
		Payload:    rec.Payload,
		CategoryID: rec.CategoryID,
	}
	if rec.DueAt != "" {
		t, err := time.Parse(time.RFC3339, rec.DueAt)
		if err != nil {
			return nil, fmt.Errorf("parsing due_at: %w", err)
		}
		t = t.UTC()
		e.Due = &t
	}
	return e, nil
}

// categoryToJSON converts a category to its export record.
func categoryToJSON(c *types.Category) categoryJSON {
	return categoryJSON{CategoryID: c.CategoryID, Description: c.Description}
}

// categoryFromJSON converts an export record back to a category.
func categoryFromJSON(rec categoryJSON) *types.Category {
	return &types.Category{CategoryID: rec.CategoryID, Description: rec.Description}
}

// commandJSON represents one recorded mutation in the history journal,
// reusing the export record encodings for the rows it carries.
type commandJSON struct {
	Kind         string        `json:"kind"`
	Entry        *entryJSON    `json:"entry,omitempty"`
	PrevEntry    *entryJSON    `json:"prev_entry,omitempty"`
	Category     *categoryJSON `json:"category,omitempty"`
	PrevCategory *categoryJSON `json:"prev_category,omitempty"`
	Cleared      []entryJSON   `json:"cleared,omitempty"`
}

// commandToJSON converts a recorded command to its journal record.
func commandToJSON(cmd command) commandJSON {
	rec := commandJSON{Kind: cmd.kind}
	if cmd.entry != nil {
		ej := entryToJSON(cmd.entry)
		rec.Entry = &ej
	}
	if cmd.prevEntry != nil {
		ej := entryToJSON(cmd.prevEntry)
		rec.PrevEntry = &ej
	}
	if cmd.category != nil {
		cj := categoryToJSON(cmd.category)
		rec.Category = &cj
	}
	if cmd.prevCategory != nil {
		cj := categoryToJSON(cmd.prevCategory)
		rec.PrevCategory = &cj
	}
	for _, e := range cmd.cleared {
		rec.Cleared = append(rec.Cleared, entryToJSON(e))
	}
	return rec
}

// commandFromJSON converts a journal record back to a command.
func commandFromJSON(rec commandJSON) (command, error) {
	cmd := command{kind: rec.Kind}
	if rec.Entry != nil {
		e, err := entryFromJSON(*rec.Entry)
		if err != nil {
			return command{}, err
		}
		cmd.entry = e
	}
	if rec.PrevEntry != nil {
		e, err := entryFromJSON(*rec.PrevEntry)
		if err != nil {
			return command{}, err
		}
		cmd.prevEntry = e
	}
	if rec.Category != nil {
		cmd.category = categoryFromJSON(*rec.Category)
	}
	if rec.PrevCategory != nil {
		cmd.prevCategory = categoryFromJSON(*rec.PrevCategory)
	}
	for _, ej := range rec.Cleared {
		e, err := entryFromJSON(ej)
		if err != nil {
			return command{}, err
		}
		cmd.cleared = append(cmd.cleared, e)
	}
	return cmd, nil
}
