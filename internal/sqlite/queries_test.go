// Unit tests for the one-shot queries: scans, predicate filters, the
// entry-category join, and the per-category counts.
package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tally/pkg/types"
)

func TestEntries_IdentityOrder(t *testing.T) {
	b := setupBackend(t)

	for _, content := range []string{"first", "second", "third"} {
		_, err := b.CreateEntry(types.Entry{Content: content})
		require.NoError(t, err)
	}
	require.NoError(t, b.DeleteEntry(2))

	entries, err := b.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].EntryID)
	assert.Equal(t, int64(3), entries[1].EntryID)
}

func TestEntries_EmptyStore(t *testing.T) {
	b := setupBackend(t)

	entries, err := b.Entries()
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	categories, err := b.Categories()
	require.NoError(t, err)
	assert.NotNil(t, categories)
	assert.Empty(t, categories)
}

func TestFilterEntries(t *testing.T) {
	b := setupBackend(t)

	_, err := b.CreateEntry(types.Entry{Content: "plain"})
	require.NoError(t, err)
	_, err = b.CreateEntry(types.Entry{Content: "urgent", Payload: map[string]any{"priority": "high"}})
	require.NoError(t, err)
	_, err = b.CreateEntry(types.Entry{Content: "also urgent", Payload: map[string]any{"priority": "high"}})
	require.NoError(t, err)

	all, err := b.FilterEntries(nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	high, err := b.FilterEntries(func(e *types.Entry) bool {
		return e.Payload != nil && e.Payload["priority"] == "high"
	})
	require.NoError(t, err)
	require.Len(t, high, 2)
	assert.Equal(t, int64(2), high[0].EntryID)
	assert.Equal(t, int64(3), high[1].EntryID)

	none, err := b.FilterEntries(func(e *types.Entry) bool { return false })
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestFindEntry(t *testing.T) {
	b := setupBackend(t)

	_, err := b.CreateEntry(types.Entry{Content: "alpha"})
	require.NoError(t, err)
	_, err = b.CreateEntry(types.Entry{Content: "beta"})
	require.NoError(t, err)
	_, err = b.CreateEntry(types.Entry{Content: "beta"})
	require.NoError(t, err)

	found, err := b.FindEntry(func(e *types.Entry) bool { return e.Content == "alpha" })
	require.NoError(t, err)
	assert.Equal(t, int64(1), found.EntryID)

	_, err = b.FindEntry(func(e *types.Entry) bool { return e.Content == "gamma" })
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = b.FindEntry(func(e *types.Entry) bool { return e.Content == "beta" })
	assert.ErrorIs(t, err, types.ErrAmbiguousResult)
}

func TestEntriesWithCategory(t *testing.T) {
	b := setupBackend(t)

	work, err := b.CreateCategory("Work")
	require.NoError(t, err)
	home, err := b.CreateCategory("Home")
	require.NoError(t, err)

	_, err = b.CreateEntry(types.Entry{Content: "report", CategoryID: &work.CategoryID})
	require.NoError(t, err)
	_, err = b.CreateEntry(types.Entry{Content: "floating"})
	require.NoError(t, err)
	_, err = b.CreateEntry(types.Entry{Content: "slides", CategoryID: &work.CategoryID})
	require.NoError(t, err)
	_, err = b.CreateEntry(types.Entry{Content: "laundry", CategoryID: &home.CategoryID})
	require.NoError(t, err)

	tests := []struct {
		name    string
		filter  types.CategoryFilter
		wantIDs []int64
	}{
		{name: "all entries", filter: types.FilterAll(), wantIDs: []int64{1, 2, 3, 4}},
		{name: "one category", filter: types.FilterCategory(work.CategoryID), wantIDs: []int64{1, 3}},
		{name: "uncategorized only", filter: types.FilterUncategorized(), wantIDs: []int64{2}},
		{name: "absent category matches nothing", filter: types.FilterCategory(99), wantIDs: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := b.EntriesWithCategory(tt.filter)
			require.NoError(t, err)
			ids := make([]int64, 0, len(rows))
			for _, row := range rows {
				ids = append(ids, row.Entry.EntryID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestEntriesWithCategory_RowShape(t *testing.T) {
	b := setupBackend(t)

	work, err := b.CreateCategory("Work")
	require.NoError(t, err)
	categorized, err := b.CreateEntry(types.Entry{Content: "report", CategoryID: &work.CategoryID})
	require.NoError(t, err)
	floating, err := b.CreateEntry(types.Entry{Content: "floating"})
	require.NoError(t, err)

	rows, err := b.EntriesWithCategory(types.FilterAll())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, categorized, rows[0].Entry)
	require.NotNil(t, rows[0].Category)
	assert.Equal(t, work, rows[0].Category)

	assert.Equal(t, floating, rows[1].Entry)
	assert.Nil(t, rows[1].Category, "uncategorized entries join to no category")
}

func TestEntriesWithCategory_InvalidFilter(t *testing.T) {
	b := setupBackend(t)

	_, err := b.EntriesWithCategory(types.CategoryFilter{Scope: "nearby"})
	assert.ErrorIs(t, err, types.ErrInvalidFilter)

	_, err = b.EntriesWithCategory(types.CategoryFilter{})
	assert.ErrorIs(t, err, types.ErrInvalidFilter, "the zero filter names no scope")
}

func TestCategoriesWithCounts(t *testing.T) {
	b := setupBackend(t)

	work, err := b.CreateCategory("Work")
	require.NoError(t, err)
	someday, err := b.CreateCategory("Someday")
	require.NoError(t, err)

	_, err = b.CreateEntry(types.Entry{Content: "report", CategoryID: &work.CategoryID})
	require.NoError(t, err)
	_, err = b.CreateEntry(types.Entry{Content: "slides", CategoryID: &work.CategoryID})
	require.NoError(t, err)
	_, err = b.CreateEntry(types.Entry{Content: "floating"})
	require.NoError(t, err)

	counts, err := b.CategoriesWithCounts()
	require.NoError(t, err)

	want := []*types.CategoryWithCount{
		{Category: work, Count: 2},
		{Category: someday, Count: 0},
		{Count: 1},
	}
	assert.Equal(t, want, counts)
}

func TestCategoriesWithCounts_EmptyStore(t *testing.T) {
	b := setupBackend(t)

	counts, err := b.CategoriesWithCounts()
	require.NoError(t, err)
	require.Len(t, counts, 1, "the uncategorized row is always present")
	assert.Nil(t, counts[0].Category)
	assert.Zero(t, counts[0].Count)
}

func TestCategoriesWithCounts_SumMatchesEntries(t *testing.T) {
	b := setupBackend(t)

	work, err := b.CreateCategory("Work")
	require.NoError(t, err)
	_, err = b.CreateEntry(types.Entry{Content: "one", CategoryID: &work.CategoryID})
	require.NoError(t, err)
	_, err = b.CreateEntry(types.Entry{Content: "two"})
	require.NoError(t, err)
	_, err = b.CreateEntry(types.Entry{Content: "three"})
	require.NoError(t, err)
	require.NoError(t, b.DeleteCategory(work.CategoryID))

	counts, err := b.CategoriesWithCounts()
	require.NoError(t, err)
	entries, err := b.Entries()
	require.NoError(t, err)

	var sum int64
	for _, c := range counts {
		sum += c.Count
	}
	assert.Equal(t, int64(len(entries)), sum, "every entry lands in exactly one count")
}
