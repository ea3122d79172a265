// Counts command prints per-category task counts.
package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

var countsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Show task counts per category",
	Long: `Counts prints one row per category with the number of tasks in it,
followed by the number of uncategorized tasks.

Example:
  tally counts
  tally counts --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "counts:", err)
			os.Exit(exitSysError)
		}
		defer store.Detach()

		counts, err := store.CategoriesWithCounts()
		if err != nil {
			fmt.Fprintln(os.Stderr, "counts:", err)
			os.Exit(exitSysError)
		}

		if flagJSON {
			return printJSON(counts)
		}
		printCountsTable(counts)
		return nil
	},
}

// printCountsTable prints category counts in a human-readable table
// format. The uncategorized row is always last.
func printCountsTable(counts []*types.CategoryWithCount) {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "CATEGORY\tTASKS")
	fmt.Fprintln(w, "--------\t-----")
	for _, row := range counts {
		name := "(uncategorized)"
		if row.Category != nil {
			name = row.Category.Description
		}
		fmt.Fprintf(w, "%s\t%d\n", name, row.Count)
	}
	w.Flush()

	output := sb.String()
	lines := strings.Split(output, "\n")
	for _, line := range lines {
		fmt.Println(strings.TrimRight(line, " "))
	}
}
