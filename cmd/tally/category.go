// Category parent command grouping the category subcommands.
package main

import "github.com/spf13/cobra"

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage categories",
	Long: `Category groups the subcommands for creating, listing, renaming, and
deleting categories.

Example:
  tally category add "Work"
  tally category list
  tally category update 1 "Day job"
  tally category remove 1`,
}

func init() {
	categoryCmd.AddCommand(categoryAddCmd)
	categoryCmd.AddCommand(categoryListCmd)
	categoryCmd.AddCommand(categoryUpdateCmd)
	categoryCmd.AddCommand(categoryRemoveCmd)
}
