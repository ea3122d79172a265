// Tests for continuous queries: initial delivery, recomputation on
// mutation, suppression of unchanged results, and cancellation.
package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// recvResult waits for the next delivery on sub.
func recvResult(t *testing.T, sub types.Subscription) []any {
	t.Helper()
	select {
	case result, ok := <-sub.Results():
		if !ok {
			t.Fatal("results channel closed while waiting for a delivery")
		}
		return result
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a delivery")
	}
	return nil
}

// recvResultWhere reads deliveries until one satisfies want. Mutation
// bursts coalesce, so intermediate result sets may never be delivered.
func recvResultWhere(t *testing.T, sub types.Subscription, want func([]any) bool) []any {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case result, ok := <-sub.Results():
			if !ok {
				t.Fatal("results channel closed while waiting for a delivery")
			}
			if want(result) {
				return result
			}
		case <-deadline:
			t.Fatal("timed out waiting for a matching delivery")
		}
	}
}

// expectNoResult asserts that no delivery arrives within a grace
// period.
func expectNoResult(t *testing.T, sub types.Subscription) {
	t.Helper()
	select {
	case result, ok := <-sub.Results():
		if ok {
			t.Fatalf("unexpected delivery: %v", result)
		}
		t.Fatal("results channel unexpectedly closed")
	case <-time.After(200 * time.Millisecond):
	}
}

// expectClosed drains sub until its results channel closes.
func expectClosed(t *testing.T, sub types.Subscription) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-sub.Results():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for the results channel to close")
		}
	}
}

func TestSubscribe_InitialDelivery(t *testing.T) {
	b := setupBackend(t)

	created, err := b.CreateEntry(types.Entry{Content: "already here"})
	require.NoError(t, err)

	sub, err := b.Subscribe(types.Query{Kind: types.QueryEntries})
	require.NoError(t, err)
	defer sub.Cancel()

	initial := recvResult(t, sub)
	require.Len(t, initial, 1)
	assert.Equal(t, created, initial[0])
}

func TestSubscribe_InitialDeliveryEmptyStore(t *testing.T) {
	b := setupBackend(t)

	sub, err := b.Subscribe(types.Query{Kind: types.QueryEntries})
	require.NoError(t, err)
	defer sub.Cancel()

	initial := recvResult(t, sub)
	assert.Empty(t, initial)
}

func TestSubscribe_InvalidQuery(t *testing.T) {
	b := setupBackend(t)

	_, err := b.Subscribe(types.Query{Kind: "entries_by_moon_phase"})
	assert.ErrorIs(t, err, types.ErrUnknownQuery)

	_, err = b.Subscribe(types.Query{Kind: types.QueryEntriesWithCategory})
	assert.ErrorIs(t, err, types.ErrInvalidFilter, "the join kind requires an explicit filter scope")
}

func TestSubscribe_Detached(t *testing.T) {
	b := NewBackend()

	_, err := b.Subscribe(types.Query{Kind: types.QueryEntries})
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}

func TestSubscription_RecomputeOnMutation(t *testing.T) {
	b := setupBackend(t)

	sub, err := b.Subscribe(types.Query{Kind: types.QueryEntries})
	require.NoError(t, err)
	defer sub.Cancel()
	recvResult(t, sub) // initial snapshot

	created, err := b.CreateEntry(types.Entry{Content: "fresh"})
	require.NoError(t, err)

	next := recvResult(t, sub)
	require.Len(t, next, 1)
	assert.Equal(t, created, next[0])
}

func TestSubscription_UndoAndRedoWake(t *testing.T) {
	b := setupBackend(t)

	created, err := b.CreateEntry(types.Entry{Content: "volatile"})
	require.NoError(t, err)

	sub, err := b.Subscribe(types.Query{Kind: types.QueryEntries})
	require.NoError(t, err)
	defer sub.Cancel()
	recvResult(t, sub)

	require.NoError(t, b.Undo())
	afterUndo := recvResultWhere(t, sub, func(r []any) bool { return len(r) == 0 })
	assert.Empty(t, afterUndo)

	require.NoError(t, b.Redo())
	afterRedo := recvResultWhere(t, sub, func(r []any) bool { return len(r) == 1 })
	assert.Equal(t, created, afterRedo[0])
}

func TestSubscription_SuppressesUnchangedResults(t *testing.T) {
	b := setupBackend(t)

	created, err := b.CreateEntry(types.Entry{Content: "stable"})
	require.NoError(t, err)

	sub, err := b.Subscribe(types.Query{Kind: types.QueryEntries})
	require.NoError(t, err)
	defer sub.Cancel()
	recvResult(t, sub)

	// Rewriting the row with identical values recomputes to an equal
	// result set, so nothing is delivered.
	require.NoError(t, b.UpdateEntry(types.Entry{EntryID: created.EntryID, Content: "stable"}))
	expectNoResult(t, sub)

	// A real change is delivered again.
	require.NoError(t, b.UpdateEntry(types.Entry{EntryID: created.EntryID, Content: "changed"}))
	next := recvResult(t, sub)
	require.Len(t, next, 1)
	assert.Equal(t, "changed", next[0].(*types.Entry).Content)
}

func TestSubscription_FilterScopesDeliveries(t *testing.T) {
	b := setupBackend(t)

	work, err := b.CreateCategory("Work")
	require.NoError(t, err)
	home, err := b.CreateCategory("Home")
	require.NoError(t, err)

	sub, err := b.Subscribe(types.Query{
		Kind:   types.QueryEntriesWithCategory,
		Filter: types.FilterCategory(work.CategoryID),
	})
	require.NoError(t, err)
	defer sub.Cancel()
	recvResult(t, sub)

	// An entry in another category recomputes to the same empty result
	// set and is suppressed.
	_, err = b.CreateEntry(types.Entry{Content: "laundry", CategoryID: &home.CategoryID})
	require.NoError(t, err)
	expectNoResult(t, sub)

	// An entry in the watched category is delivered.
	inWork, err := b.CreateEntry(types.Entry{Content: "report", CategoryID: &work.CategoryID})
	require.NoError(t, err)
	next := recvResult(t, sub)
	require.Len(t, next, 1)
	row := next[0].(*types.EntryWithCategory)
	assert.Equal(t, inWork, row.Entry)
	assert.Equal(t, work, row.Category)
}

func TestSubscription_EntriesKindIgnoresCategoryMutations(t *testing.T) {
	b := setupBackend(t)

	sub, err := b.Subscribe(types.Query{Kind: types.QueryEntries})
	require.NoError(t, err)
	defer sub.Cancel()
	recvResult(t, sub)

	_, err = b.CreateCategory("Quiet")
	require.NoError(t, err)
	expectNoResult(t, sub)
}

func TestSubscription_CountsFollowCategoryDelete(t *testing.T) {
	b := setupBackend(t)

	work, err := b.CreateCategory("Work")
	require.NoError(t, err)
	_, err = b.CreateEntry(types.Entry{Content: "A", CategoryID: &work.CategoryID})
	require.NoError(t, err)
	_, err = b.CreateEntry(types.Entry{Content: "B"})
	require.NoError(t, err)

	sub, err := b.Subscribe(types.Query{Kind: types.QueryCategoryCounts})
	require.NoError(t, err)
	defer sub.Cancel()

	initial := recvResult(t, sub)
	require.Len(t, initial, 2)
	assert.Equal(t, &types.CategoryWithCount{Category: work, Count: 1}, initial[0])
	assert.Equal(t, &types.CategoryWithCount{Count: 1}, initial[1])

	require.NoError(t, b.DeleteCategory(work.CategoryID))
	afterDelete := recvResultWhere(t, sub, func(r []any) bool { return len(r) == 1 })
	assert.Equal(t, &types.CategoryWithCount{Count: 2}, afterDelete[0])

	require.NoError(t, b.Undo())
	afterUndo := recvResultWhere(t, sub, func(r []any) bool { return len(r) == 2 })
	assert.Equal(t, &types.CategoryWithCount{Category: work, Count: 1}, afterUndo[0])
	assert.Equal(t, &types.CategoryWithCount{Count: 1}, afterUndo[1])
}

func TestSubscription_CoalescesBursts(t *testing.T) {
	b := setupBackend(t)

	sub, err := b.Subscribe(types.Query{Kind: types.QueryEntries})
	require.NoError(t, err)
	defer sub.Cancel()
	recvResult(t, sub)

	for i := 0; i < 8; i++ {
		_, err := b.CreateEntry(types.Entry{Content: "burst"})
		require.NoError(t, err)
	}

	// Deliveries may skip intermediate states; the final state always
	// arrives.
	final := recvResultWhere(t, sub, func(r []any) bool { return len(r) == 8 })
	assert.Len(t, final, 8)
}

func TestSubscription_Cancel(t *testing.T) {
	b := setupBackend(t)

	sub, err := b.Subscribe(types.Query{Kind: types.QueryEntries})
	require.NoError(t, err)
	recvResult(t, sub)

	sub.Cancel()
	assert.Equal(t, types.SubscriptionCancelled, sub.State())
	expectClosed(t, sub)

	// Cancel is idempotent.
	sub.Cancel()
	assert.Equal(t, types.SubscriptionCancelled, sub.State())

	// Mutations after cancel deliver nothing; the channel stays closed.
	_, err = b.CreateEntry(types.Entry{Content: "after cancel"})
	require.NoError(t, err)
	_, ok := <-sub.Results()
	assert.False(t, ok)
}

func TestSubscription_Lifecycle(t *testing.T) {
	b := setupBackend(t)

	sub, err := b.Subscribe(types.Query{Kind: types.QueryEntries})
	require.NoError(t, err)

	assert.NotEmpty(t, sub.ID())
	assert.Equal(t, types.QueryEntries, sub.Query().Kind)
	assert.Equal(t, types.SubscriptionIdle, sub.State())

	other, err := b.Subscribe(types.Query{Kind: types.QueryEntries})
	require.NoError(t, err)
	assert.NotEqual(t, sub.ID(), other.ID())

	sub.Cancel()
	other.Cancel()
}

func TestSubscription_IndependentDeliveries(t *testing.T) {
	b := setupBackend(t)

	entriesSub, err := b.Subscribe(types.Query{Kind: types.QueryEntries})
	require.NoError(t, err)
	defer entriesSub.Cancel()
	countsSub, err := b.Subscribe(types.Query{Kind: types.QueryCategoryCounts})
	require.NoError(t, err)
	defer countsSub.Cancel()

	recvResult(t, entriesSub)
	recvResult(t, countsSub)

	created, err := b.CreateEntry(types.Entry{Content: "shared wake"})
	require.NoError(t, err)

	entries := recvResult(t, entriesSub)
	require.Len(t, entries, 1)
	assert.Equal(t, created, entries[0])

	counts := recvResult(t, countsSub)
	require.Len(t, counts, 1)
	assert.Equal(t, &types.CategoryWithCount{Count: 1}, counts[0])
}
