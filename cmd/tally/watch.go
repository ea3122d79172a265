// Watch command streams a continuous query as JSON lines.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

var (
	watchQuery         string
	watchCategory      int64
	watchUncategorized bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream a continuous query until interrupted",
	Long: `Watch subscribes to a continuous query and prints every delivered
result set as one JSON line. The current result is printed immediately;
a new line follows every change this process commits. Interrupt with
Ctrl-C to stop.

Queries: entries, entries_with_category, category_counts.

Example:
  tally watch
  tally watch --query entries_with_category --category 1
  tally watch --query category_counts`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchQuery, "query", types.QueryEntries, "query kind (entries, entries_with_category, category_counts)")
	watchCmd.Flags().Int64Var(&watchCategory, "category", 0, "narrow entries_with_category to this category id")
	watchCmd.Flags().BoolVar(&watchUncategorized, "uncategorized", false, "narrow entries_with_category to uncategorized tasks")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchCategory != 0 && watchUncategorized {
		fmt.Fprintln(os.Stderr, "watch: --category and --uncategorized are mutually exclusive")
		os.Exit(exitUserError)
	}
	if (watchCategory != 0 || watchUncategorized) && watchQuery != types.QueryEntriesWithCategory {
		fmt.Fprintf(os.Stderr, "watch: --category and --uncategorized apply only to %s\n", types.QueryEntriesWithCategory)
		os.Exit(exitUserError)
	}

	q := types.Query{Kind: watchQuery}
	if watchQuery == types.QueryEntriesWithCategory {
		q.Filter = types.FilterAll()
		switch {
		case watchCategory != 0:
			q.Filter = types.FilterCategory(watchCategory)
		case watchUncategorized:
			q.Filter = types.FilterUncategorized()
		}
	}

	store, err := attachBackend()
	if err != nil {
		fmt.Fprintln(os.Stderr, "watch:", err)
		os.Exit(exitSysError)
	}
	defer store.Detach()

	sub, err := store.Subscribe(q)
	if err != nil {
		if errors.Is(err, types.ErrUnknownQuery) {
			fmt.Fprintf(os.Stderr, "watch: unknown query %q (valid: %s, %s, %s)\n",
				watchQuery, types.QueryEntries, types.QueryEntriesWithCategory, types.QueryCategoryCounts)
			os.Exit(exitUserError)
		}
		fmt.Fprintln(os.Stderr, "watch:", err)
		os.Exit(exitSysError)
	}
	defer sub.Cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	enc := json.NewEncoder(os.Stdout)
	for {
		select {
		case result, ok := <-sub.Results():
			if !ok {
				return nil
			}
			if err := enc.Encode(result); err != nil {
				fmt.Fprintln(os.Stderr, "watch:", err)
				os.Exit(exitSysError)
			}
		case <-interrupt:
			return nil
		}
	}
}
