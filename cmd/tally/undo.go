// Undo command reverts the most recent change.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Revert the most recent change",
	Long: `Undo reverts the most recent task or category change. The history
survives between invocations, so undo steps back through changes made
by earlier tally commands.

Example:
  tally undo`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "undo:", err)
			os.Exit(exitSysError)
		}
		defer store.Detach()

		if err := store.Undo(); err != nil {
			if errors.Is(err, types.ErrNothingToUndo) {
				fmt.Fprintln(os.Stderr, "nothing to undo")
				os.Exit(exitUserError)
			}
			fmt.Fprintln(os.Stderr, "undo:", err)
			os.Exit(exitSysError)
		}

		fmt.Println("Undid the last change")
		return nil
	},
}
