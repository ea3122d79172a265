package sqlite

import (
	"database/sql"
	"fmt"
)

// nextIdentity allocates the next identity for a collection from its
// persisted counter, inside the mutation's transaction. The counter
// only ever advances: undoing a create does not hand its identity back,
// so identities stay unique for the lifetime of the database.
func nextIdentity(tx *sql.Tx, collection string) (int64, error) {
	var next int64
	if err := tx.QueryRow(
		"SELECT next_id FROM counters WHERE collection = ?", collection,
	).Scan(&next); err != nil {
		return 0, storageErr(fmt.Sprintf("reading counter for %s", collection), err)
	}
	if _, err := tx.Exec(
		"UPDATE counters SET next_id = ? WHERE collection = ?", next+1, collection,
	); err != nil {
		return 0, storageErr(fmt.Sprintf("advancing counter for %s", collection), err)
	}
	return next, nil
}

// bumpIdentityFloor raises a collection's counter to at least floor.
// Used after an import so fresh identities land above every imported
// row. Never lowers the counter.
func bumpIdentityFloor(tx *sql.Tx, collection string, floor int64) error {
	if _, err := tx.Exec(
		"UPDATE counters SET next_id = ? WHERE collection = ? AND next_id < ?",
		floor, collection, floor,
	); err != nil {
		return storageErr(fmt.Sprintf("raising counter for %s", collection), err)
	}
	return nil
}

// counterValue reads a collection's next identity without advancing it.
func (b *Backend) counterValue(collection string) (int64, error) {
	var next int64
	if err := b.db.QueryRow(
		"SELECT next_id FROM counters WHERE collection = ?", collection,
	).Scan(&next); err != nil {
		return 0, storageErr(fmt.Sprintf("reading counter for %s", collection), err)
	}
	return next, nil
}
