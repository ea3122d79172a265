// This file defines the schema DDL and the versioned upgrade steps
// applied on Attach. The current version is tracked in the database
// itself through PRAGMA user_version.
package sqlite

import (
	"database/sql"
	"fmt"
)

// schemaVersion is the version this build writes and reads.
const schemaVersion = 2

// Schema DDL. Categories come first; entries reference them.
const (
	createCategories = `CREATE TABLE categories (
    category_id INTEGER PRIMARY KEY,
    description TEXT NOT NULL
);`

	createEntries = `CREATE TABLE entries (
    entry_id INTEGER PRIMARY KEY,
    content TEXT NOT NULL,
    payload TEXT,
    category_id INTEGER REFERENCES categories(category_id)
);`

	createCounters = `CREATE TABLE counters (
    collection TEXT PRIMARY KEY,
    next_id INTEGER NOT NULL
);`

	seedCounters = `INSERT INTO counters (collection, next_id) VALUES ('entries', 1), ('categories', 1);`

	idxEntriesCategory = `CREATE INDEX idx_entries_category ON entries(category_id);`

	createHistory = `CREATE TABLE history (
    position INTEGER PRIMARY KEY,
    command TEXT NOT NULL
);`

	createHistoryState = `CREATE TABLE history_state (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    cursor INTEGER NOT NULL
);`

	seedHistoryState = `INSERT INTO history_state (id, cursor) VALUES (1, 0);`

	addEntriesDue = `ALTER TABLE entries ADD COLUMN due_at TEXT;`
)

// migrations holds the upgrade steps in order: migrations[v] upgrades a
// database at version v to version v+1. Step 0 creates the base layout,
// the history journal included; step 1 adds the optional due date
// column.
var migrations = [][]string{
	{createCategories, createEntries, createCounters, seedCounters, idxEntriesCategory, createHistory, createHistoryState, seedHistoryState},
	{addEntriesDue},
}

// migrate brings the database to schemaVersion. Each step runs in its
// own transaction together with the version bump, so an interrupted
// upgrade resumes cleanly on the next Attach. Databases newer than
// schemaVersion are refused.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return storageErr("reading schema version", err)
	}
	if version > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, schemaVersion)
	}

	for v := version; v < schemaVersion; v++ {
		tx, err := db.Begin()
		if err != nil {
			return storageErr("beginning migration transaction", err)
		}
		if err := applyMigration(tx, v); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return storageErr(fmt.Sprintf("committing migration %d", v), err)
		}
	}
	return nil
}

// applyMigration executes one upgrade step and records the new version.
func applyMigration(tx *sql.Tx, from int) error {
	for _, stmt := range migrations[from] {
		if _, err := tx.Exec(stmt); err != nil {
			return storageErr(fmt.Sprintf("applying migration %d", from), err)
		}
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", from+1)); err != nil {
		return storageErr(fmt.Sprintf("recording migration %d", from), err)
	}
	return nil
}
