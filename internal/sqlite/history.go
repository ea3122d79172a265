// This file implements the undo stack. Every successful mutation pushes
// one command carrying enough prior state to run backward; Undo and
// Redo replay commands through a single interpreter inside one
// transaction each, then wake the same subscriptions a direct mutation
// would. Commands are journaled in the database alongside the mutation
// that produced them, so the stack survives Detach and a later Attach
// picks up exactly where the previous session stopped.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// Command kinds, one per mutation entry point.
const (
	cmdCreateEntry    = "create_entry"
	cmdUpdateEntry    = "update_entry"
	cmdDeleteEntry    = "delete_entry"
	cmdCreateCategory = "create_category"
	cmdUpdateCategory = "update_category"
	cmdDeleteCategory = "delete_category"
)

// command is one recorded mutation. Which fields are set depends on
// kind: entry commands carry the written row and, for update and
// delete, the prior row; category commands are symmetric, and the
// composite category delete additionally carries the prior rows of
// every entry whose reference it cleared.
type command struct {
	kind         string
	entry        *types.Entry
	prevEntry    *types.Entry
	category     *types.Category
	prevCategory *types.Category
	cleared      []*types.Entry
}

// history is the command stack: commands[:cursor] are applied,
// commands[cursor:] have been undone but remain replayable until a new
// mutation truncates them. The in-memory form mirrors the history and
// history_state tables and is rebuilt from them on Attach.
type history struct {
	commands []command
	cursor   int
}

// push records a freshly applied command, discarding any undone tail.
// Callers journal the same command with pushTx inside the mutation's
// transaction before committing.
func (h *history) push(cmd command) {
	h.commands = append(h.commands[:h.cursor], cmd)
	h.cursor++
}

func (h *history) canUndo() bool { return h.cursor > 0 }

func (h *history) canRedo() bool { return h.cursor < len(h.commands) }

// pushTx journals cmd at the cursor position inside the mutation's own
// transaction: the undone tail is deleted, the command is written at
// the cursor, and the persisted cursor advances past it. Rolling the
// transaction back discards the journal write together with the
// mutation.
func (h *history) pushTx(tx *sql.Tx, cmd command) error {
	data, err := json.Marshal(commandToJSON(cmd))
	if err != nil {
		return fmt.Errorf("encoding history command: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM history WHERE position >= ?", h.cursor); err != nil {
		return storageErr("truncating history journal", err)
	}
	if _, err := tx.Exec(
		"INSERT INTO history (position, command) VALUES (?, ?)",
		h.cursor, string(data),
	); err != nil {
		return storageErr("journaling command", err)
	}
	return saveCursorTx(tx, h.cursor+1)
}

// saveCursorTx records the history cursor. Undo and Redo move only the
// cursor; the journaled commands stay in place either way.
func saveCursorTx(tx *sql.Tx, cursor int) error {
	if _, err := tx.Exec("UPDATE history_state SET cursor = ? WHERE id = 1", cursor); err != nil {
		return storageErr("recording history cursor", err)
	}
	return nil
}

// loadHistory rebuilds the in-memory stack from the journal tables.
func loadHistory(db *sql.DB) (history, error) {
	var h history
	if err := db.QueryRow("SELECT cursor FROM history_state WHERE id = 1").Scan(&h.cursor); err != nil {
		return history{}, storageErr("reading history cursor", err)
	}

	rows, err := db.Query("SELECT command FROM history ORDER BY position")
	if err != nil {
		return history{}, storageErr("reading history journal", err)
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return history{}, storageErr("scanning history command", err)
		}
		var rec commandJSON
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return history{}, fmt.Errorf("decoding history command: %w", err)
		}
		cmd, err := commandFromJSON(rec)
		if err != nil {
			return history{}, fmt.Errorf("decoding history command: %w", err)
		}
		h.commands = append(h.commands, cmd)
	}
	if err := rows.Err(); err != nil {
		return history{}, storageErr("reading history journal", err)
	}

	// Keep the cursor inside the journal bounds so replay indexes stay
	// valid even if the tables were modified outside this process.
	if h.cursor < 0 {
		h.cursor = 0
	}
	if h.cursor > len(h.commands) {
		h.cursor = len(h.commands)
	}
	return h, nil
}

// Undo reverts the most recent applied mutation and wakes the
// subscriptions watching the collections it touched.
// Returns ErrNothingToUndo at the bottom of the stack.
func (b *Backend) Undo() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	if !b.history.canUndo() {
		return types.ErrNothingToUndo
	}

	cmd := b.history.commands[b.history.cursor-1]
	touched, err := b.applyCommand(cmd, true, b.history.cursor-1)
	if err != nil {
		return err
	}
	b.history.cursor--
	b.notifyLocked(touched...)
	return nil
}

// Redo re-applies the most recently undone mutation.
// Returns ErrNothingToRedo when the stack has no undone tail.
func (b *Backend) Redo() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	if !b.history.canRedo() {
		return types.ErrNothingToRedo
	}

	cmd := b.history.commands[b.history.cursor]
	touched, err := b.applyCommand(cmd, false, b.history.cursor+1)
	if err != nil {
		return err
	}
	b.history.cursor++
	b.notifyLocked(touched...)
	return nil
}

// applyCommand runs one command forward or backward in a single
// transaction, persisting the moved cursor with it, and returns the
// collections it touched. The stack guarantees commands replay against
// exactly the state they were recorded against, so inverse application
// restores it bit for bit, identities included.
func (b *Backend) applyCommand(cmd command, inverse bool, cursor int) ([]string, error) {
	tx, err := b.db.Begin()
	if err != nil {
		return nil, storageErr("beginning replay transaction", err)
	}
	defer tx.Rollback()

	touched, err := runCommand(tx, cmd, inverse)
	if err != nil {
		return nil, err
	}
	if err := saveCursorTx(tx, cursor); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr("committing replay", err)
	}
	return touched, nil
}

// runCommand is the command interpreter. Forward reproduces the
// original mutation; inverse applies its opposite.
func runCommand(tx *sql.Tx, cmd command, inverse bool) ([]string, error) {
	entries := []string{types.EntriesCollection}
	categories := []string{types.CategoriesCollection}
	both := []string{types.EntriesCollection, types.CategoriesCollection}

	switch cmd.kind {
	case cmdCreateEntry:
		if inverse {
			return entries, deleteEntryTx(tx, cmd.entry.EntryID)
		}
		return entries, insertEntryTx(tx, cmd.entry)

	case cmdUpdateEntry:
		if inverse {
			return entries, updateEntryTx(tx, cmd.prevEntry)
		}
		return entries, updateEntryTx(tx, cmd.entry)

	case cmdDeleteEntry:
		if inverse {
			return entries, insertEntryTx(tx, cmd.prevEntry)
		}
		return entries, deleteEntryTx(tx, cmd.prevEntry.EntryID)

	case cmdCreateCategory:
		if inverse {
			return categories, deleteCategoryTx(tx, cmd.category.CategoryID)
		}
		return categories, insertCategoryTx(tx, cmd.category)

	case cmdUpdateCategory:
		if inverse {
			return categories, updateCategoryTx(tx, cmd.prevCategory)
		}
		return categories, updateCategoryTx(tx, cmd.category)

	case cmdDeleteCategory:
		if inverse {
			// Restore the category first so the reference restores
			// do not dangle, then put back every cleared row.
			if err := insertCategoryTx(tx, cmd.prevCategory); err != nil {
				return nil, err
			}
			for _, e := range cmd.cleared {
				if err := updateEntryTx(tx, e); err != nil {
					return nil, err
				}
			}
			return both, nil
		}
		if err := clearCategoryRefsTx(tx, cmd.prevCategory.CategoryID); err != nil {
			return nil, err
		}
		return both, deleteCategoryTx(tx, cmd.prevCategory.CategoryID)

	default:
		return nil, fmt.Errorf("unknown command kind %q", cmd.kind)
	}
}
