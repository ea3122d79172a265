// Import command restores a JSONL export into an empty store.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Import a JSONL export into an empty store",
	Long: `Import loads entries.jsonl and categories.jsonl from the given
directory into an empty store, keeping the exported identities. The
undo history is reset: an import is a restore, not a change.

Example:
  tally import ./backup --data-dir ./fresh`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "import:", err)
			os.Exit(exitSysError)
		}
		defer store.Detach()

		if err := store.Import(args[0]); err != nil {
			if errors.Is(err, types.ErrStoreNotEmpty) {
				fmt.Fprintln(os.Stderr, "import: the store already holds data (import needs an empty store)")
				os.Exit(exitUserError)
			}
			fmt.Fprintln(os.Stderr, "import:", err)
			os.Exit(exitSysError)
		}

		fmt.Println("Imported from", args[0])
		return nil
	},
}
