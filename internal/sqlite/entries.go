// This file implements entry mutations and point reads. Each mutation
// validates, applies inside one transaction while capturing the prior
// row, journals an invertible command in that same transaction,
// commits, and wakes dependent subscriptions.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// CreateEntry persists a new entry under the next identity from the
// entries counter and returns the stored form.
// Returns ErrInvalidContent, ErrInvalidPayload, or ErrInvalidCategory
// when validation fails; nothing is recorded in that case.
func (b *Backend) CreateEntry(e types.Entry) (*types.Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := canonicalizeEntry(&e); err != nil {
		return nil, err
	}

	tx, err := b.db.Begin()
	if err != nil {
		return nil, storageErr("beginning transaction", err)
	}
	defer tx.Rollback()

	if e.CategoryID != nil {
		ok, err := categoryExistsTx(tx, *e.CategoryID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, types.ErrInvalidCategory
		}
	}

	id, err := nextIdentity(tx, types.EntriesCollection)
	if err != nil {
		return nil, err
	}
	e.EntryID = id

	if err := insertEntryTx(tx, &e); err != nil {
		return nil, err
	}
	cmd := command{kind: cmdCreateEntry, entry: cloneEntry(&e)}
	if err := b.history.pushTx(tx, cmd); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr("committing entry", err)
	}

	b.history.push(cmd)
	b.notifyLocked(types.EntriesCollection)

	return cloneEntry(&e), nil
}

// GetEntry retrieves one entry by identity.
// Returns ErrNotFound if no entry exists with that identity.
func (b *Backend) GetEntry(entryID int64) (*types.Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	row := b.db.QueryRow(
		"SELECT entry_id, content, due_at, payload, category_id FROM entries WHERE entry_id = ?",
		entryID,
	)
	e, err := hydrateEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, storageErr(fmt.Sprintf("getting entry %d", entryID), err)
	}
	return e, nil
}

// UpdateEntry replaces the stored entry sharing e's identity.
// Returns ErrNotFound if absent, or a validation error; the stored row
// is untouched on failure.
func (b *Backend) UpdateEntry(e types.Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	if err := e.Validate(); err != nil {
		return err
	}
	if err := canonicalizeEntry(&e); err != nil {
		return err
	}

	tx, err := b.db.Begin()
	if err != nil {
		return storageErr("beginning transaction", err)
	}
	defer tx.Rollback()

	prior, err := getEntryTx(tx, e.EntryID)
	if err != nil {
		return err
	}
	if e.CategoryID != nil {
		ok, err := categoryExistsTx(tx, *e.CategoryID)
		if err != nil {
			return err
		}
		if !ok {
			return types.ErrInvalidCategory
		}
	}

	if err := updateEntryTx(tx, &e); err != nil {
		return err
	}
	cmd := command{kind: cmdUpdateEntry, entry: cloneEntry(&e), prevEntry: prior}
	if err := b.history.pushTx(tx, cmd); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageErr("committing entry update", err)
	}

	b.history.push(cmd)
	b.notifyLocked(types.EntriesCollection)

	return nil
}

// DeleteEntry removes one entry by identity.
// Returns ErrNotFound if absent. The deleted identity is never reused.
func (b *Backend) DeleteEntry(entryID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	tx, err := b.db.Begin()
	if err != nil {
		return storageErr("beginning transaction", err)
	}
	defer tx.Rollback()

	prior, err := getEntryTx(tx, entryID)
	if err != nil {
		return err
	}
	if err := deleteEntryTx(tx, entryID); err != nil {
		return err
	}
	cmd := command{kind: cmdDeleteEntry, prevEntry: prior}
	if err := b.history.pushTx(tx, cmd); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageErr("committing entry deletion", err)
	}

	b.history.push(cmd)
	b.notifyLocked(types.EntriesCollection)

	return nil
}

// canonicalizeEntry rewrites e's optional fields into their stored
// forms: due at UTC second precision, payload as it round-trips through
// its JSON text. Command snapshots and query results then compare equal
// to reloaded rows.
func canonicalizeEntry(e *types.Entry) error {
	e.Due = normalizeDue(e.Due)
	if e.Payload == nil {
		return nil
	}
	text, err := json.Marshal(e.Payload)
	if err != nil {
		return types.ErrInvalidPayload
	}
	var canonical map[string]any
	if err := json.Unmarshal(text, &canonical); err != nil {
		return types.ErrInvalidPayload
	}
	e.Payload = canonical
	return nil
}

// normalizeDue converts an optional due time to UTC at second
// precision, the precision the due_at column stores.
func normalizeDue(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := t.UTC().Truncate(time.Second)
	return &d
}

// cloneEntry returns an independent copy of e, so command snapshots and
// returned values never alias caller-held maps.
func cloneEntry(e *types.Entry) *types.Entry {
	cp := types.Entry{
		EntryID: e.EntryID,
		Content: e.Content,
	}
	if e.Due != nil {
		d := *e.Due
		cp.Due = &d
	}
	if e.Payload != nil {
		p := make(map[string]any, len(e.Payload))
		for k, v := range e.Payload {
			p[k] = v
		}
		cp.Payload = p
	}
	if e.CategoryID != nil {
		id := *e.CategoryID
		cp.CategoryID = &id
	}
	return &cp
}

// insertEntryTx inserts e under its explicit identity.
func insertEntryTx(tx *sql.Tx, e *types.Entry) error {
	due, payload, category := dehydrateEntry(e)
	_, err := tx.Exec(
		"INSERT INTO entries (entry_id, content, due_at, payload, category_id) VALUES (?, ?, ?, ?, ?)",
		e.EntryID, e.Content, due, payload, category,
	)
	if err != nil {
		return storageErr(fmt.Sprintf("inserting entry %d", e.EntryID), err)
	}
	return nil
}

// updateEntryTx overwrites every column of e's row.
func updateEntryTx(tx *sql.Tx, e *types.Entry) error {
	due, payload, category := dehydrateEntry(e)
	_, err := tx.Exec(
		"UPDATE entries SET content = ?, due_at = ?, payload = ?, category_id = ? WHERE entry_id = ?",
		e.Content, due, payload, category, e.EntryID,
	)
	if err != nil {
		return storageErr(fmt.Sprintf("updating entry %d", e.EntryID), err)
	}
	return nil
}

// deleteEntryTx removes the row with the given identity.
func deleteEntryTx(tx *sql.Tx, entryID int64) error {
	if _, err := tx.Exec("DELETE FROM entries WHERE entry_id = ?", entryID); err != nil {
		return storageErr(fmt.Sprintf("deleting entry %d", entryID), err)
	}
	return nil
}

// getEntryTx loads the prior row inside a mutation transaction.
// Returns ErrNotFound if absent.
func getEntryTx(tx *sql.Tx, entryID int64) (*types.Entry, error) {
	row := tx.QueryRow(
		"SELECT entry_id, content, due_at, payload, category_id FROM entries WHERE entry_id = ?",
		entryID,
	)
	e, err := hydrateEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, storageErr(fmt.Sprintf("loading entry %d", entryID), err)
	}
	return e, nil
}

// entriesInCategoryTx loads the full rows of every entry referencing
// the category, in identity order. Captured before a category delete so
// undo can restore each reference exactly.
func entriesInCategoryTx(tx *sql.Tx, categoryID int64) ([]*types.Entry, error) {
	rows, err := tx.Query(
		"SELECT entry_id, content, due_at, payload, category_id FROM entries WHERE category_id = ? ORDER BY entry_id",
		categoryID,
	)
	if err != nil {
		return nil, storageErr(fmt.Sprintf("querying entries in category %d", categoryID), err)
	}
	defer rows.Close()

	var result []*types.Entry
	for rows.Next() {
		e, err := hydrateEntryFromRows(rows)
		if err != nil {
			return nil, storageErr("hydrating entry", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating entries", err)
	}
	return result, nil
}

// clearCategoryRefsTx nulls the category reference of every entry in
// the category.
func clearCategoryRefsTx(tx *sql.Tx, categoryID int64) error {
	if _, err := tx.Exec("UPDATE entries SET category_id = NULL WHERE category_id = ?", categoryID); err != nil {
		return storageErr(fmt.Sprintf("clearing references to category %d", categoryID), err)
	}
	return nil
}

// dehydrateEntry converts e's optional fields to their column values.
func dehydrateEntry(e *types.Entry) (due, payload sql.NullString, category sql.NullInt64) {
	if e.Due != nil {
		due = sql.NullString{String: e.Due.UTC().Format(time.RFC3339), Valid: true}
	}
	if e.Payload != nil {
		// canonicalizeEntry already proved the payload marshals.
		text, _ := json.Marshal(e.Payload)
		payload = sql.NullString{String: string(text), Valid: true}
	}
	if e.CategoryID != nil {
		category = sql.NullInt64{Int64: *e.CategoryID, Valid: true}
	}
	return due, payload, category
}

// hydrateEntry converts a single SQLite row into a *types.Entry.
func hydrateEntry(row *sql.Row) (*types.Entry, error) {
	var e types.Entry
	var due, payload sql.NullString
	var category sql.NullInt64
	if err := row.Scan(&e.EntryID, &e.Content, &due, &payload, &category); err != nil {
		return nil, err
	}
	return rehydrateEntry(&e, due, payload, category)
}

// hydrateEntryFromRows converts a row from sql.Rows into a *types.Entry.
func hydrateEntryFromRows(rows *sql.Rows) (*types.Entry, error) {
	var e types.Entry
	var due, payload sql.NullString
	var category sql.NullInt64
	if err := rows.Scan(&e.EntryID, &e.Content, &due, &payload, &category); err != nil {
		return nil, err
	}
	return rehydrateEntry(&e, due, payload, category)
}

// rehydrateEntry parses the optional columns back into e.
func rehydrateEntry(e *types.Entry, due, payload sql.NullString, category sql.NullInt64) (*types.Entry, error) {
	if due.Valid {
		t, err := time.Parse(time.RFC3339, due.String)
		if err != nil {
			return nil, fmt.Errorf("parsing due_at: %w", err)
		}
		t = t.UTC()
		e.Due = &t
	}
	if payload.Valid {
		var p map[string]any
		if err := json.Unmarshal([]byte(payload.String), &p); err != nil {
			return nil, fmt.Errorf("parsing payload: %w", err)
		}
		e.Payload = p
	}
	if category.Valid {
		id := category.Int64
		e.CategoryID = &id
	}
	return e, nil
}
