// Category add command creates a new category.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

var categoryAddCmd = &cobra.Command{
	Use:   "add <description>",
	Short: "Create a new category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "category add:", err)
			os.Exit(exitSysError)
		}
		defer store.Detach()

		created, err := store.CreateCategory(args[0])
		if err != nil {
			if errors.Is(err, types.ErrInvalidDescription) {
				fmt.Fprintln(os.Stderr, "category add: description must not be empty")
				os.Exit(exitUserError)
			}
			fmt.Fprintln(os.Stderr, "category add:", err)
			os.Exit(exitSysError)
		}

		if flagJSON {
			return printJSON(created)
		}
		fmt.Printf("Added category %d: %s\n", created.CategoryID, created.Description)
		return nil
	},
}
