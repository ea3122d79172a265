// Category remove command deletes a category.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

var categoryRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a category",
	Long: `Remove deletes a category. Tasks referencing it lose the reference but
are kept; a single "tally undo" restores the category and every cleared
reference.

Example:
  tally category remove 1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "category remove:", err)
			os.Exit(exitUserError)
		}

		store, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "category remove:", err)
			os.Exit(exitSysError)
		}
		defer store.Detach()

		if err := store.DeleteCategory(id); err != nil {
			if errors.Is(err, types.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "category %d not found\n", id)
				os.Exit(exitUserError)
			}
			fmt.Fprintln(os.Stderr, "category remove:", err)
			os.Exit(exitSysError)
		}

		fmt.Printf("Removed category %d\n", id)
		return nil
	},
}
