// Category update command renames a category.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

var categoryUpdateCmd = &cobra.Command{
	Use:   "update <id> <description>",
	Short: "Rename a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "category update:", err)
			os.Exit(exitUserError)
		}

		store, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "category update:", err)
			os.Exit(exitSysError)
		}
		defer store.Detach()

		err = store.UpdateCategory(types.Category{CategoryID: id, Description: args[1]})
		if err != nil {
			switch {
			case errors.Is(err, types.ErrNotFound):
				fmt.Fprintf(os.Stderr, "category %d not found\n", id)
				os.Exit(exitUserError)
			case errors.Is(err, types.ErrInvalidDescription):
				fmt.Fprintln(os.Stderr, "category update: description must not be empty")
				os.Exit(exitUserError)
			default:
				fmt.Fprintln(os.Stderr, "category update:", err)
				os.Exit(exitSysError)
			}
		}

		fmt.Printf("Updated category %d\n", id)
		return nil
	},
}
