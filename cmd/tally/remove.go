// Remove command deletes a task.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a task",
	Long: `Remove deletes a task entry. The deletion lands on the undo stack, so
"tally undo" brings the task back with its identity intact.

Example:
  tally remove 3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "remove:", err)
			os.Exit(exitUserError)
		}

		store, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "remove:", err)
			os.Exit(exitSysError)
		}
		defer store.Detach()

		if err := store.DeleteEntry(id); err != nil {
			if errors.Is(err, types.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "task %d not found\n", id)
				os.Exit(exitUserError)
			}
			fmt.Fprintln(os.Stderr, "remove:", err)
			os.Exit(exitSysError)
		}

		fmt.Printf("Removed task %d\n", id)
		return nil
	},
}
