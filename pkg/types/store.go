package types

import "errors"

// Store defines the Tally data layer: attach and detach lifecycle,
// entry and category mutations with undo and redo, one-shot queries,
// and continuous query subscriptions.
//
// Every successful mutation is recorded on an undo stack and announced
// to subscriptions whose queries depend on a touched collection. Failed
// operations leave rows, stack, and subscriptions unchanged.
type Store interface {
	// Attach connects the store to the backend described by config.
	// Creates the DataDir if it does not exist and upgrades the schema
	// in place when an older database is found.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach cancels live subscriptions and releases backend resources.
	// Idempotent: multiple calls succeed.
	// After Detach, operations return ErrStoreDetached.
	Detach() error

	// CreateEntry persists a new entry and returns it with its assigned
	// identity. Returns ErrInvalidContent on empty content,
	// ErrInvalidPayload on an unserializable payload, and
	// ErrInvalidCategory on a reference to a nonexistent category.
	CreateEntry(e Entry) (*Entry, error)

	// GetEntry retrieves one entry by identity.
	// Returns ErrNotFound if no entry exists with that identity.
	GetEntry(entryID int64) (*Entry, error)

	// UpdateEntry replaces the stored entry sharing e's identity.
	// Returns ErrNotFound if absent, or a validation error.
	UpdateEntry(e Entry) error

	// DeleteEntry removes one entry by identity.
	// Returns ErrNotFound if absent.
	DeleteEntry(entryID int64) error

	// CreateCategory persists a new category and returns it with its
	// assigned identity. Returns ErrInvalidDescription on empty text.
	CreateCategory(description string) (*Category, error)

	// GetCategory retrieves one category by identity.
	// Returns ErrNotFound if absent.
	GetCategory(categoryID int64) (*Category, error)

	// UpdateCategory replaces the stored category sharing c's identity.
	// Returns ErrNotFound if absent, or a validation error.
	UpdateCategory(c Category) error

	// DeleteCategory clears the category reference of every entry in
	// the category and then deletes the category, as one atomic
	// mutation. Undo restores the category and every cleared reference
	// in a single step.
	DeleteCategory(categoryID int64) error

	// Entries returns all entries in identity order.
	Entries() ([]*Entry, error)

	// FilterEntries returns the entries satisfying pred, in identity
	// order. A nil pred matches everything.
	FilterEntries(pred func(*Entry) bool) ([]*Entry, error)

	// FindEntry returns the single entry satisfying pred.
	// Returns ErrNotFound on no match and ErrAmbiguousResult when more
	// than one entry matches.
	FindEntry(pred func(*Entry) bool) (*Entry, error)

	// Categories returns all categories in identity order.
	Categories() ([]*Category, error)

	// EntriesWithCategory returns entries joined to their categories,
	// narrowed by filter, in entry identity order.
	EntriesWithCategory(filter CategoryFilter) ([]*EntryWithCategory, error)

	// CategoriesWithCounts returns one row per category with its live
	// referencing-entry count, in identity order, followed by one
	// synthetic row with nil Category counting uncategorized entries.
	CategoriesWithCounts() ([]*CategoryWithCount, error)

	// Undo reverts the most recent applied mutation.
	// Returns ErrNothingToUndo at the bottom of the stack.
	Undo() error

	// Redo re-applies the most recently undone mutation.
	// Returns ErrNothingToRedo when nothing has been undone or a newer
	// mutation has discarded the redo history.
	Redo() error

	// CanUndo reports whether Undo would currently succeed.
	CanUndo() bool

	// CanRedo reports whether Redo would currently succeed.
	CanRedo() bool

	// Subscribe registers a continuous query and returns its handle.
	// The initial result set is computed and delivered immediately.
	// Returns ErrUnknownQuery or ErrInvalidFilter on a bad query.
	Subscribe(q Query) (Subscription, error)

	// Seed populates an empty store with starter rows through the
	// normal create operations, so seeded rows participate in undo.
	// Idempotent: a store holding any rows is left untouched.
	Seed() error

	// Export writes each collection as a JSONL file under dir.
	Export(dir string) error

	// Import loads collection JSONL files from dir into an empty
	// store, preserving identities. The undo stack is reset.
	Import(dir string) error
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrStoreNotEmpty   = errors.New("store is not empty")
)
