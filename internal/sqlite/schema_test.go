// Tests for the schema upgrade path applied on Attach.
package sqlite

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mesh-intelligence/tally/pkg/types"
)

func TestMigrate_FreshDatabase(t *testing.T) {
	b := NewBackend()
	config := types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}
	if err := b.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	defer b.Detach()

	var version int
	if err := b.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("reading user_version failed: %v", err)
	}
	if version != schemaVersion {
		t.Errorf("expected schema version %d, got %d", schemaVersion, version)
	}

	// Both counters start at 1.
	for _, collection := range types.StandardCollectionNames {
		next, err := b.counterValue(collection)
		if err != nil {
			t.Fatalf("counterValue(%q) failed: %v", collection, err)
		}
		if next != 1 {
			t.Errorf("counter for %q should start at 1, got %d", collection, next)
		}
	}
}

func TestMigrate_UpgradeFromVersionOne(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, dbFileName)

	// Build a version 1 database by hand: the base layout without the
	// due date column.
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("opening raw database failed: %v", err)
	}
	for _, stmt := range migrations[0] {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("building v1 layout failed: %v", err)
		}
	}
	if _, err := db.Exec("PRAGMA user_version = 1"); err != nil {
		t.Fatalf("setting user_version failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO entries (entry_id, content) VALUES (1, 'pre-upgrade')"); err != nil {
		t.Fatalf("inserting v1 row failed: %v", err)
	}
	if _, err := db.Exec("UPDATE counters SET next_id = 2 WHERE collection = 'entries'"); err != nil {
		t.Fatalf("advancing v1 counter failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("closing raw database failed: %v", err)
	}

	// Attach upgrades in place.
	b := NewBackend()
	if err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	defer b.Detach()

	var version int
	if err := b.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("reading user_version failed: %v", err)
	}
	if version != schemaVersion {
		t.Errorf("expected schema version %d after upgrade, got %d", schemaVersion, version)
	}

	// The pre-upgrade row is intact and the new column is usable.
	got, err := b.GetEntry(1)
	if err != nil {
		t.Fatalf("GetEntry failed: %v", err)
	}
	if got.Content != "pre-upgrade" {
		t.Errorf("expected pre-upgrade row, got %q", got.Content)
	}

	due := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	created, err := b.CreateEntry(types.Entry{Content: "post-upgrade", Due: &due})
	if err != nil {
		t.Fatalf("CreateEntry with due failed: %v", err)
	}
	if created.EntryID != 2 {
		t.Errorf("expected identity 2 from the carried counter, got %d", created.EntryID)
	}
	if created.Due == nil || !created.Due.Equal(due) {
		t.Errorf("due not stored across upgrade: %v", created.Due)
	}
}

func TestMigrate_RefusesNewerDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, dbFileName)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("opening raw database failed: %v", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion+1)); err != nil {
		t.Fatalf("setting user_version failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("closing raw database failed: %v", err)
	}

	b := NewBackend()
	err = b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: tmpDir})
	if err == nil {
		b.Detach()
		t.Fatal("Attach should refuse a newer database")
	}
	if !strings.Contains(err.Error(), "newer") {
		t.Errorf("error should name the version conflict, got %v", err)
	}

	// The failed attach leaves the backend usable elsewhere.
	if err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}); err != nil {
		t.Fatalf("Attach on a fresh dir failed: %v", err)
	}
	b.Detach()
}
