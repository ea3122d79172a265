// List command queries task entries joined with their categories.
package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

var (
	listCategory      int64
	listUncategorized bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long: `List prints task entries with their resolved categories.

Use --category to keep one category, or --uncategorized to keep tasks
with no category.

Example:
  tally list
  tally list --category 1
  tally list --uncategorized
  tally list --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().Int64Var(&listCategory, "category", 0, "keep only this category id")
	listCmd.Flags().BoolVar(&listUncategorized, "uncategorized", false, "keep only tasks with no category")
}

func runList(cmd *cobra.Command, args []string) error {
	if listCategory != 0 && listUncategorized {
		fmt.Fprintln(os.Stderr, "list: --category and --uncategorized are mutually exclusive")
		os.Exit(exitUserError)
	}

	filter := types.FilterAll()
	switch {
	case listCategory != 0:
		filter = types.FilterCategory(listCategory)
	case listUncategorized:
		filter = types.FilterUncategorized()
	}

	store, err := attachBackend()
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(exitSysError)
	}
	defer store.Detach()

	rows, err := store.EntriesWithCategory(filter)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(exitSysError)
	}

	if flagJSON {
		return printJSON(rows)
	}
	printTaskTable(rows)
	return nil
}

// printTaskTable prints tasks in a human-readable table format.
func printTaskTable(rows []*types.EntryWithCategory) {
	if len(rows) == 0 {
		fmt.Println("No tasks found.")
		return
	}

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tTASK\tCATEGORY\tDUE")
	fmt.Fprintln(w, "--\t----\t--------\t---")
	for _, row := range rows {
		// Truncate content if too long
		content := row.Entry.Content
		if len(content) > 40 {
			content = content[:37] + "..."
		}
		category := "-"
		if row.Category != nil {
			category = row.Category.Description
		}
		due := "-"
		if row.Entry.Due != nil {
			due = row.Entry.Due.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", row.Entry.EntryID, content, category, due)
	}
	w.Flush()

	// Print output, trimming trailing whitespace from each line
	output := sb.String()
	lines := strings.Split(output, "\n")
	for _, line := range lines {
		fmt.Println(strings.TrimRight(line, " "))
	}

	fmt.Printf("Total: %d task(s)\n", len(rows))
}
