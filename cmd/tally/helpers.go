// Shared helpers for tally CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/mesh-intelligence/tally/pkg/sqlite"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// attachBackend resolves the data directory, creates the SQLite store,
// and attaches it. The caller must defer store.Detach().
func attachBackend() (types.Store, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	store := sqlite.NewBackend()
	err = store.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
	})
	if err != nil {
		return nil, fmt.Errorf("attach store: %w", err)
	}

	return store, nil
}

// parseID parses a positional identity argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q (expected a positive integer)", arg)
	}
	return id, nil
}

// parseDue parses a --due value: RFC 3339, or a bare date taken as
// midnight UTC.
func parseDue(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid due %q (expected RFC 3339 or YYYY-MM-DD)", value)
}

// parsePayload parses a --payload value into a JSON object.
func parsePayload(value string) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(value), &payload); err != nil {
		return nil, fmt.Errorf("invalid payload (expected a JSON object)")
	}
	return payload, nil
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(output))
	return nil
}
