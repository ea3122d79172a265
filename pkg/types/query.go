package types

// Category filter scopes for the entry-category join.
const (
	ScopeAll           = "all"
	ScopeCategory      = "category"
	ScopeUncategorized = "uncategorized"
)

// validScopes is the set of recognized filter scope values.
var validScopes = map[string]bool{
	ScopeAll:           true,
	ScopeCategory:      true,
	ScopeUncategorized: true,
}

// CategoryFilter narrows a join query by category membership. The zero
// value is not valid; use one of the Filter constructors.
type CategoryFilter struct {
	// Scope selects the filter mode (one of the Scope constants).
	Scope string

	// CategoryID is the category to match.
	// Meaningful only when Scope is ScopeCategory.
	CategoryID int64
}

// FilterAll matches every entry regardless of category.
func FilterAll() CategoryFilter {
	return CategoryFilter{Scope: ScopeAll}
}

// FilterCategory matches entries referencing the given category.
func FilterCategory(categoryID int64) CategoryFilter {
	return CategoryFilter{Scope: ScopeCategory, CategoryID: categoryID}
}

// FilterUncategorized matches entries with no category reference.
func FilterUncategorized() CategoryFilter {
	return CategoryFilter{Scope: ScopeUncategorized}
}

// Validate checks that the filter scope is recognized.
// Returns ErrInvalidFilter otherwise.
func (f CategoryFilter) Validate() error {
	if !validScopes[f.Scope] {
		return ErrInvalidFilter
	}
	return nil
}

// Continuous query kinds for Store.Subscribe.
const (
	QueryEntries             = "entries"
	QueryEntriesWithCategory = "entries_with_category"
	QueryCategoryCounts      = "category_counts"
)

// validQueryKinds is the set of recognized query kinds.
var validQueryKinds = map[string]bool{
	QueryEntries:             true,
	QueryEntriesWithCategory: true,
	QueryCategoryCounts:      true,
}

// Query describes a continuous query. Kind selects the result shape;
// Filter applies only to QueryEntriesWithCategory.
type Query struct {
	Kind   string
	Filter CategoryFilter
}

// Validate checks that the query is well-formed.
// Returns ErrUnknownQuery for an unrecognized kind, and the filter's
// validation error for a bad filter on the join kind.
func (q Query) Validate() error {
	if !validQueryKinds[q.Kind] {
		return ErrUnknownQuery
	}
	if q.Kind == QueryEntriesWithCategory {
		return q.Filter.Validate()
	}
	return nil
}
