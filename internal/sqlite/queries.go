// This file implements the one-shot queries: full scans, predicate
// filters, the entry-category join, and the per-category counts with
// their trailing synthetic uncategorized row. The locked variants also
// back subscription recomputation.
package sqlite

import (
	"database/sql"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// Entries returns all entries in identity order.
func (b *Backend) Entries() ([]*types.Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	return b.entriesLocked()
}

// FilterEntries returns the entries satisfying pred, in identity order.
// A nil pred matches everything. The predicate runs on hydrated rows,
// so it can inspect payload fields the schema does not index.
func (b *Backend) FilterEntries(pred func(*types.Entry) bool) ([]*types.Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	all, err := b.entriesLocked()
	if err != nil {
		return nil, err
	}
	if pred == nil {
		return all, nil
	}
	matched := make([]*types.Entry, 0, len(all))
	for _, e := range all {
		if pred(e) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// FindEntry returns the single entry satisfying pred.
// Returns ErrNotFound on no match and ErrAmbiguousResult when more than
// one entry matches.
func (b *Backend) FindEntry(pred func(*types.Entry) bool) (*types.Entry, error) {
	matched, err := b.FilterEntries(pred)
	if err != nil {
		return nil, err
	}
	switch len(matched) {
	case 0:
		return nil, types.ErrNotFound
	case 1:
		return matched[0], nil
	default:
		return nil, types.ErrAmbiguousResult
	}
}

// Categories returns all categories in identity order.
func (b *Backend) Categories() ([]*types.Category, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	return b.categoriesLocked()
}

// EntriesWithCategory returns entries joined to their categories,
// narrowed by filter, in entry identity order.
// Returns ErrInvalidFilter on an unrecognized scope.
func (b *Backend) EntriesWithCategory(filter types.CategoryFilter) ([]*types.EntryWithCategory, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	return b.entriesWithCategoryLocked(filter)
}

// CategoriesWithCounts returns one row per category with its live
// referencing-entry count, in identity order, plus the synthetic
// uncategorized row last.
func (b *Backend) CategoriesWithCounts() ([]*types.CategoryWithCount, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	return b.categoriesWithCountsLocked()
}

// entriesLocked loads every entry row. Caller holds b.mu.
func (b *Backend) entriesLocked() ([]*types.Entry, error) {
	rows, err := b.db.Query(
		"SELECT entry_id, content, due_at, payload, category_id FROM entries ORDER BY entry_id",
	)
	if err != nil {
		return nil, storageErr("querying entries", err)
	}
	defer rows.Close()

	result := []*types.Entry{}
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

// categoriesLocked loads every category row. Caller holds b.mu.
func (b *Backend) categoriesLocked() ([]*types.Category, error) {
	rows, err := b.db.Query("SELECT category_id, description FROM categories ORDER BY category_id")
	if err != nil {
		return nil, storageErr("querying categories", err)
	}
	defer rows.Close()

	result := []*types.Category{}
	for rows.Next() {
		c, err := hydrateCategoryFromRows(rows)
		if err != nil {
			return nil, storageErr("hydrating category", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating categories", err)
	}
	return result, nil
}

// entriesWithCategoryLocked runs the LEFT JOIN behind
// EntriesWithCategory. Caller holds b.mu.
func (b *Backend) entriesWithCategoryLocked(filter types.CategoryFilter) ([]*types.EntryWithCategory, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	query := `SELECT e.entry_id, e.content, e.due_at, e.payload, e.category_id,
       c.category_id, c.description
FROM entries e LEFT JOIN categories c ON e.category_id = c.category_id`
	var args []any

	switch filter.Scope {
	case types.ScopeCategory:
		query += " WHERE e.category_id = ?"
		args = append(args, filter.CategoryID)
	case types.ScopeUncategorized:
		query += " WHERE e.category_id IS NULL"
	}
	query += " ORDER BY e.entry_id"

	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("querying entry join", err)
	}
	defer rows.Close()

	result := []*types.EntryWithCategory{}
	for rows.Next() {
		var e types.Entry
		var due, payload sql.NullString
		var entryCat sql.NullInt64
		var catID sql.NullInt64
		var catDesc sql.NullString
		if err := rows.Scan(&e.EntryID, &e.Content, &due, &payload, &entryCat, &catID, &catDesc); err != nil {
			return nil, storageErr("scanning entry join", err)
		}
		if _, err := rehydrateEntry(&e, due, payload, entryCat); err != nil {
			return nil, storageErr("hydrating entry join", err)
		}
		row := types.EntryWithCategory{Entry: &e}
		if catID.Valid {
			row.Category = &types.Category{CategoryID: catID.Int64, Description: catDesc.String}
		}
		result = append(result, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating entry join", err)
	}
	return result, nil
}

// categoriesWithCountsLocked computes the per-category counts and
// appends the uncategorized row. Caller holds b.mu.
func (b *Backend) categoriesWithCountsLocked() ([]*types.CategoryWithCount, error) {
	rows, err := b.db.Query(`SELECT c.category_id, c.description, COUNT(e.entry_id)
FROM categories c LEFT JOIN entries e ON e.category_id = c.category_id
GROUP BY c.category_id, c.description
ORDER BY c.category_id`)
	if err != nil {
		return nil, storageErr("querying category counts", err)
	}
	defer rows.Close()

	result := []*types.CategoryWithCount{}
	for rows.Next() {
		var c types.Category
		var count int64
		if err := rows.Scan(&c.CategoryID, &c.Description, &count); err != nil {
			return nil, storageErr("scanning category count", err)
		}
		result = append(result, &types.CategoryWithCount{Category: &c, Count: count})
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterating category counts", err)
	}

	var uncategorized int64
	if err := b.db.QueryRow(
		"SELECT COUNT(*) FROM entries WHERE category_id IS NULL",
	).Scan(&uncategorized); err != nil {
		return nil, storageErr("counting uncategorized entries", err)
	}
	result = append(result, &types.CategoryWithCount{Count: uncategorized})

	return result, nil
}
