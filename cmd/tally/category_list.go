// Category list command prints all categories.
package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "category list:", err)
			os.Exit(exitSysError)
		}
		defer store.Detach()

		categories, err := store.Categories()
		if err != nil {
			fmt.Fprintln(os.Stderr, "category list:", err)
			os.Exit(exitSysError)
		}

		if flagJSON {
			return printJSON(categories)
		}
		printCategoryTable(categories)
		return nil
	},
}

// printCategoryTable prints categories in a human-readable table format.
func printCategoryTable(categories []*types.Category) {
	if len(categories) == 0 {
		fmt.Println("No categories found.")
		return
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tDESCRIPTION")
	fmt.Fprintln(w, "--\t-----------")
	for _, c := range categories {
		description := c.Description
		if len(description) > 40 {
			description = description[:37] + "..."
		}
		fmt.Fprintf(w, "%d\t%s\n", c.CategoryID, description)
	}
	w.Flush()

	output := sb.String()
	lines := strings.Split(output, "\n")
	for _, line := range lines {
		fmt.Println(strings.TrimRight(line, " "))
	}

	fmt.Printf("Total: %d category(ies)\n", len(categories))
}
