// Add command creates a new task entry.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

var (
	addDue      string
	addCategory int64
	addPayload  string
)

var addCmd = &cobra.Command{
	Use:   "add <content>",
	Short: "Create a new task",
	Long: `Add creates a new task entry with the given text.

Example:
  tally add "File the expense report"
  tally add "Quarterly review" --due 2026-09-01
  tally add "Pick a venue" --category 1
  tally add "Benchmark run" --payload '{"priority": 2}'`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addDue, "due", "", "due date (RFC 3339 or YYYY-MM-DD)")
	addCmd.Flags().Int64Var(&addCategory, "category", 0, "category id")
	addCmd.Flags().StringVar(&addPayload, "payload", "", "structured payload as a JSON object")
}

func runAdd(cmd *cobra.Command, args []string) error {
	e := types.Entry{Content: args[0]}

	if addDue != "" {
		due, err := parseDue(addDue)
		if err != nil {
			fmt.Fprintln(os.Stderr, "add:", err)
			os.Exit(exitUserError)
		}
		e.Due = &due
	}
	if addCategory != 0 {
		e.CategoryID = &addCategory
	}
	if addPayload != "" {
		payload, err := parsePayload(addPayload)
		if err != nil {
			fmt.Fprintln(os.Stderr, "add:", err)
			os.Exit(exitUserError)
		}
		e.Payload = payload
	}

	store, err := attachBackend()
	if err != nil {
		fmt.Fprintln(os.Stderr, "add:", err)
		os.Exit(exitSysError)
	}
	defer store.Detach()

	created, err := store.CreateEntry(e)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrInvalidCategory):
			fmt.Fprintf(os.Stderr, "add: category %d does not exist\n", addCategory)
			os.Exit(exitUserError)
		case errors.Is(err, types.ErrInvalidContent):
			fmt.Fprintln(os.Stderr, "add: content must not be empty")
			os.Exit(exitUserError)
		default:
			fmt.Fprintln(os.Stderr, "add:", err)
			os.Exit(exitSysError)
		}
	}

	if flagJSON {
		return printJSON(created)
	}
	fmt.Printf("Added task %d: %s\n", created.EntryID, created.Content)
	return nil
}
