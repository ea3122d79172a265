package types

// EntryWithCategory pairs an entry with its resolved category.
// Category is nil when the entry has no category reference.
// Derived at query time; never persisted.
type EntryWithCategory struct {
	Entry    *Entry    `json:"entry"`
	Category *Category `json:"category,omitempty"`
}

// CategoryWithCount pairs a category with the number of entries that
// reference it. Category is nil on exactly one row per result set, the
// synthetic row counting uncategorized entries, and that row is always
// last. Derived at query time; never persisted.
type CategoryWithCount struct {
	Category *Category `json:"category,omitempty"`
	Count    int64     `json:"count"`
}
