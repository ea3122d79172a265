// Package sqlite implements the SQLite storage backend for Tally: the
// row store, the undo stack over mutations, the query operations, and
// the subscription registry that re-evaluates continuous queries after
// every committed mutation.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// dbFileName is the SQLite database file created under DataDir.
const dbFileName = "tally.db"

// Compile-time interface check: Backend must implement Store.
var _ types.Store = (*Backend)(nil)

// Backend implements the Store interface on a single SQLite database.
// All mutations serialize on mu; reads take the shared side and observe
// committed state only.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	history  history
	watchers watchRegistry
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{
		watchers: newWatchRegistry(),
	}
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, opens the database, applies any
// pending schema upgrades, and loads the persisted undo history, so
// undo and redo continue across sessions.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		return storageErr("creating data dir", err)
	}

	dbPath := filepath.Join(config.DataDir, dbFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return storageErr("opening database", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return storageErr("enabling foreign keys", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return err
	}

	h, err := loadHistory(db)
	if err != nil {
		db.Close()
		return err
	}

	b.db = db
	b.config = config
	b.history = h
	b.watchers = newWatchRegistry()
	b.attached = true

	return nil
}

// Detach cancels all live subscriptions and closes the database.
// After Detach, operations return ErrStoreDetached. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil // idempotent
	}

	b.watchers.cancelAll()
	b.watchers = newWatchRegistry()

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return storageErr("closing database", err)
		}
		b.db = nil
	}

	b.attached = false
	b.history = history{}

	return nil
}

// CanUndo reports whether Undo would currently succeed.
func (b *Backend) CanUndo() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.attached && b.history.canUndo()
}

// CanRedo reports whether Redo would currently succeed.
func (b *Backend) CanRedo() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.attached && b.history.canRedo()
}

// generateID generates a UUID v7 for subscription handles.
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// storageErr wraps a database failure so that callers can match
// types.ErrStorage while the driver error stays in the chain.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, types.ErrStorage, err)
}
