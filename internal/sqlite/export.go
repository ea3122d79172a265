// This file implements the JSONL export and import surface. Export is
// a consistent snapshot; import restores one into an empty store,
// identities included.
package sqlite

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// collectionFile returns the export file name for a collection.
func collectionFile(dir, collection string) string {
	return filepath.Join(dir, collection+".jsonl")
}

// Export writes each collection as a JSONL file under dir using the
// atomic write pattern. Runs under the read lock, so the two files
// form one consistent snapshot.
func (b *Backend) Export(dir string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return storageErr("creating export dir", err)
	}

	categories, err := b.categoriesLocked()
	if err != nil {
		return err
	}
	var categoryRecords []json.RawMessage
	for _, c := range categories {
		data, err := json.Marshal(categoryToJSON(c))
		if err != nil {
			return fmt.Errorf("marshaling category %d: %w", c.CategoryID, err)
		}
		categoryRecords = append(categoryRecords, data)
	}
	if err := writeJSONL(collectionFile(dir, types.CategoriesCollection), categoryRecords); err != nil {
		return fmt.Errorf("writing categories export: %w", err)
	}

	entries, err := b.entriesLocked()
	if err != nil {
		return err
	}
	var entryRecords []json.RawMessage
	for _, e := range entries {
		data, err := json.Marshal(entryToJSON(e))
		if err != nil {
			return fmt.Errorf("marshaling entry %d: %w", e.EntryID, err)
		}
		entryRecords = append(entryRecords, data)
	}
	if err := writeJSONL(collectionFile(dir, types.EntriesCollection), entryRecords); err != nil {
		return fmt.Errorf("writing entries export: %w", err)
	}

	return nil
}

// Import loads collection JSONL files from dir into an empty store.
// Imported rows keep their exported identities; the counters are
// raised above the highest imported identity so fresh rows never
// collide. Records that do not parse, fail validation, or reference a
// category missing from the import are skipped. The undo stack is
// reset, journal included: an import is a restore, not a user mutation.
// Returns ErrStoreNotEmpty when any row already exists.
func (b *Backend) Import(dir string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	var entryCount, categoryCount int64
	if err := b.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&entryCount); err != nil {
		return storageErr("counting entries", err)
	}
	if err := b.db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&categoryCount); err != nil {
		return storageErr("counting categories", err)
	}
	if entryCount > 0 || categoryCount > 0 {
		return types.ErrStoreNotEmpty
	}

	categoryRecords, err := readJSONL(collectionFile(dir, types.CategoriesCollection))
	if err != nil {
		return fmt.Errorf("reading categories export: %w", err)
	}
	entryRecords, err := readJSONL(collectionFile(dir, types.EntriesCollection))
	if err != nil {
		return fmt.Errorf("reading entries export: %w", err)
	}

	tx, err := b.db.Begin()
	if err != nil {
		return storageErr("beginning import transaction", err)
	}
	defer tx.Rollback()

	imported := make(map[int64]bool)
	var maxCategory int64
	for _, rec := range categoryRecords {
		var cj categoryJSON
		if err := json.Unmarshal(rec, &cj); err != nil {
			continue
		}
		c := categoryFromJSON(cj)
		if c.Validate() != nil || imported[c.CategoryID] {
			continue
		}
		if err := insertCategoryTx(tx, c); err != nil {
			return err
		}
		imported[c.CategoryID] = true
		if c.CategoryID > maxCategory {
			maxCategory = c.CategoryID
		}
	}

	seen := make(map[int64]bool)
	var maxEntry int64
	for _, rec := range entryRecords {
		var ej entryJSON
		if err := json.Unmarshal(rec, &ej); err != nil {
			continue
		}
		e, err := entryFromJSON(ej)
		if err != nil || e.Validate() != nil || seen[e.EntryID] {
			continue
		}
		if e.CategoryID != nil && !imported[*e.CategoryID] {
			continue
		}
		if err := canonicalizeEntry(e); err != nil {
			continue
		}
		if err := insertEntryTx(tx, e); err != nil {
			return err
		}
		seen[e.EntryID] = true
		if e.EntryID > maxEntry {
			maxEntry = e.EntryID
		}
	}

	if err := bumpIdentityFloor(tx, types.CategoriesCollection, maxCategory+1); err != nil {
		return err
	}
	if err := bumpIdentityFloor(tx, types.EntriesCollection, maxEntry+1); err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM history"); err != nil {
		return storageErr("clearing history journal", err)
	}
	if err := saveCursorTx(tx, 0); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr("committing import", err)
	}

	b.history = history{}
	b.notifyLocked(types.EntriesCollection, types.CategoriesCollection)

	return nil
}
