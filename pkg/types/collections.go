package types

// Standard collection names. Subscriptions depend on collections by
// these names, and exports address them as file stems.
const (
	EntriesCollection    = "entries"
	CategoriesCollection = "categories"
)

// StandardCollectionNames lists all persisted collections for enumeration.
var StandardCollectionNames = []string{
	EntriesCollection,
	CategoriesCollection,
}
