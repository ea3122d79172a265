package types

import "time"

// Entry represents a single tracked task or note.
type Entry struct {
	// EntryID is assigned by the store on creation. Identities are
	// monotonic and never reused within a database, even across undo.
	EntryID int64 `json:"entry_id"`

	// Content is the text of the entry (required, non-empty).
	Content string `json:"content"`

	// Due is an optional target date and time.
	Due *time.Time `json:"due,omitempty"`

	// Payload is an optional opaque structured payload. The store
	// persists it as JSON text and round-trips it without inspecting
	// its contents.
	Payload map[string]any `json:"payload,omitempty"`

	// CategoryID is an optional category reference. When non-nil it
	// must name an existing category at the time it is set.
	CategoryID *int64 `json:"category_id,omitempty"`
}

// Validate checks the entry's intrinsic fields.
// Returns ErrInvalidContent if Content is empty. Reference checks
// against the category collection happen in the store.
func (e *Entry) Validate() error {
	if e.Content == "" {
		return ErrInvalidContent
	}
	return nil
}
