// This file implements category mutations and point reads, including
// the composite category delete that clears entry references and
// removes the category as one atomic, invertible mutation.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// CreateCategory persists a new category under the next identity from
// the categories counter and returns the stored form.
// Returns ErrInvalidDescription on empty text.
func (b *Backend) CreateCategory(description string) (*types.Category, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	c := types.Category{Description: description}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	tx, err := b.db.Begin()
	if err != nil {
		return nil, storageErr("beginning transaction", err)
	}
	defer tx.Rollback()

	id, err := nextIdentity(tx, types.CategoriesCollection)
	if err != nil {
		return nil, err
	}
	c.CategoryID = id

	if err := insertCategoryTx(tx, &c); err != nil {
		return nil, err
	}
	cmd := command{kind: cmdCreateCategory, category: cloneCategory(&c)}
	if err := b.history.pushTx(tx, cmd); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, storageErr("committing category", err)
	}

	b.history.push(cmd)
	b.notifyLocked(types.CategoriesCollection)

	return cloneCategory(&c), nil
}

// GetCategory retrieves one category by identity.
// Returns ErrNotFound if no category exists with that identity.
func (b *Backend) GetCategory(categoryID int64) (*types.Category, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	row := b.db.QueryRow(
		"SELECT category_id, description FROM categories WHERE category_id = ?",
		categoryID,
	)
	c, err := hydrateCategory(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, storageErr(fmt.Sprintf("getting category %d", categoryID), err)
	}
	return c, nil
}

// UpdateCategory replaces the stored category sharing c's identity.
// Returns ErrNotFound if absent, or ErrInvalidDescription.
func (b *Backend) UpdateCategory(c types.Category) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	if err := c.Validate(); err != nil {
		return err
	}

	tx, err := b.db.Begin()
	if err != nil {
		return storageErr("beginning transaction", err)
	}
	defer tx.Rollback()

	prior, err := getCategoryTx(tx, c.CategoryID)
	if err != nil {
		return err
	}
	if err := updateCategoryTx(tx, &c); err != nil {
		return err
	}
	cmd := command{kind: cmdUpdateCategory, category: cloneCategory(&c), prevCategory: prior}
	if err := b.history.pushTx(tx, cmd); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageErr("committing category update", err)
	}

	b.history.push(cmd)
	b.notifyLocked(types.CategoriesCollection)

	return nil
}

// DeleteCategory clears the category reference of every entry in the
// category and deletes the category row, in one transaction. The
// recorded command carries the deleted category and the full prior rows
// of every cleared entry, so Undo restores both sides in a single step.
// Returns ErrNotFound if absent.
func (b *Backend) DeleteCategory(categoryID int64) error {
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

	prior, err := getCategoryTx(tx, categoryID)
	if err != nil {
		return err
	}
	cleared, err := entriesInCategoryTx(tx, categoryID)
	if err != nil {
		return err
	}
	if err := clearCategoryRefsTx(tx, categoryID); err != nil {
		return err
	}
	if err := deleteCategoryTx(tx, categoryID); err != nil {
		return err
	}
	cmd := command{kind: cmdDeleteCategory, prevCategory: prior, cleared: cleared}
	if err := b.history.pushTx(tx, cmd); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageErr("committing category deletion", err)
	}

	b.history.push(cmd)
	b.notifyLocked(types.EntriesCollection, types.CategoriesCollection)

	return nil
}

// cloneCategory returns an independent copy of c.
func cloneCategory(c *types.Category) *types.Category {
	cp := *c
	return &cp
}

// insertCategoryTx inserts c under its explicit identity.
func insertCategoryTx(tx *sql.Tx, c *types.Category) error {
	_, err := tx.Exec(
		"INSERT INTO categories (category_id, description) VALUES (?, ?)",
		c.CategoryID, c.Description,
	)
	if err != nil {
		return storageErr(fmt.Sprintf("inserting category %d", c.CategoryID), err)
	}
	return nil
}

// updateCategoryTx overwrites c's row.
func updateCategoryTx(tx *sql.Tx, c *types.Category) error {
	_, err := tx.Exec(
		"UPDATE categories SET description = ? WHERE category_id = ?",
		c.Description, c.CategoryID,
	)
	if err != nil {
		return storageErr(fmt.Sprintf("updating category %d", c.CategoryID), err)
	}
	return nil
}

// deleteCategoryTx removes the row with the given identity.
func deleteCategoryTx(tx *sql.Tx, categoryID int64) error {
	if _, err := tx.Exec("DELETE FROM categories WHERE category_id = ?", categoryID); err != nil {
		return storageErr(fmt.Sprintf("deleting category %d", categoryID), err)
	}
	return nil
}

// getCategoryTx loads the prior row inside a mutation transaction.
// Returns ErrNotFound if absent.
func getCategoryTx(tx *sql.Tx, categoryID int64) (*types.Category, error) {
	row := tx.QueryRow(
		"SELECT category_id, description FROM categories WHERE category_id = ?",
		categoryID,
	)
	c, err := hydrateCategory(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, storageErr(fmt.Sprintf("loading category %d", categoryID), err)
	}
	return c, nil
}

// categoryExistsTx reports whether the category identity is present.
func categoryExistsTx(tx *sql.Tx, categoryID int64) (bool, error) {
	var one int
	err := tx.QueryRow("SELECT 1 FROM categories WHERE category_id = ?", categoryID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, storageErr(fmt.Sprintf("checking category %d", categoryID), err)
	}
	return true, nil
}

// hydrateCategory converts a single SQLite row into a *types.Category.
func hydrateCategory(row *sql.Row) (*types.Category, error) {
	var c types.Category
	if err := row.Scan(&c.CategoryID, &c.Description); err != nil {
		return nil, err
	}
	return &c, nil
}

// hydrateCategoryFromRows converts a row from sql.Rows into a
// *types.Category.
func hydrateCategoryFromRows(rows *sql.Rows) (*types.Category, error) {
	var c types.Category
	if err := rows.Scan(&c.CategoryID, &c.Description); err != nil {
		return nil, err
	}
	return &c, nil
}
