// This file implements first-run seeding. Seeding goes through the
// public mutation path, so seeded rows allocate real identities, land
// on the undo stack, and wake subscriptions like any other mutation.
package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// seedRow describes one starter entry. Categorized rows join the
// starter category.
type seedRow struct {
	content     string
	categorized bool
}

// Starter rows created on first run.
var (
	seedCategoryDescription = "Personal"

	seedRows = []seedRow{
		{content: "Welcome to tally. This entry lives in the Personal category.", categorized: true},
		{content: "Entries without a category are counted as uncategorized.", categorized: false},
	}
)

// Seed populates an empty store with a starter category and example
// entries. Idempotent: a store holding any entry or category is left
// untouched. Each seeded row is an independent, undoable mutation.
func (b *Backend) Seed() error {
	entries, err := b.Entries()
	if err != nil {
		return err
	}
	categories, err := b.Categories()
	if err != nil {
		return err
	}
	if len(entries) > 0 || len(categories) > 0 {
		return nil
	}

	category, err := b.CreateCategory(seedCategoryDescription)
	if err != nil {
		return fmt.Errorf("seeding category: %w", err)
	}

	for _, row := range seedRows {
		e := types.Entry{Content: row.content}
		if row.categorized {
			e.CategoryID = &category.CategoryID
		}
		if _, err := b.CreateEntry(e); err != nil {
			return fmt.Errorf("seeding entry: %w", err)
		}
	}
	return nil
}
