// Redo command reapplies the most recently undone change.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

var redoCmd = &cobra.Command{
	Use:   "redo",
	Short: "Reapply the most recently undone change",
	Long: `Redo reapplies the change most recently taken back by undo. A new
change after an undo discards the redo history.

Example:
  tally redo`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "redo:", err)
			os.Exit(exitSysError)
		}
		defer store.Detach()

		if err := store.Redo(); err != nil {
			if errors.Is(err, types.ErrNothingToRedo) {
				fmt.Fprintln(os.Stderr, "nothing to redo")
				os.Exit(exitUserError)
			}
			fmt.Fprintln(os.Stderr, "redo:", err)
			os.Exit(exitSysError)
		}

		fmt.Println("Reapplied the undone change")
		return nil
	},
}
