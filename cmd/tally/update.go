// Update command changes fields of an existing task.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

var (
	updateContent  string
	updateDue      string
	updateClearDue bool
	updateCategory int64
	updatePayload  string
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update task fields",
	Long: `Update changes the given fields of a task, leaving the rest as they
are. Passing --category 0 clears the category reference; --clear-due
removes the due date.

Example:
  tally update 3 --content "New wording"
  tally update 3 --due 2026-10-01 --category 2
  tally update 3 --clear-due --category 0`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&updateContent, "content", "", "set task text")
	updateCmd.Flags().StringVar(&updateDue, "due", "", "set due date (RFC 3339 or YYYY-MM-DD)")
	updateCmd.Flags().BoolVar(&updateClearDue, "clear-due", false, "remove the due date")
	updateCmd.Flags().Int64Var(&updateCategory, "category", 0, "set category id (0 clears it)")
	updateCmd.Flags().StringVar(&updatePayload, "payload", "", "replace the payload with a JSON object")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "update:", err)
		os.Exit(exitUserError)
	}

	// 0 clears the category, so flag presence decides whether the
	// field changes at all.
	categoryChanged := cmd.Flags().Changed("category")

	if updateContent == "" && updateDue == "" && !updateClearDue &&
		!categoryChanged && updatePayload == "" {
		fmt.Fprintln(os.Stderr, "update: at least one field flag must be provided")
		os.Exit(exitUserError)
	}

	store, err := attachBackend()
	if err != nil {
		fmt.Fprintln(os.Stderr, "update:", err)
		os.Exit(exitSysError)
	}
	defer store.Detach()

	entry, err := store.GetEntry(id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "task %d not found\n", id)
			os.Exit(exitUserError)
		}
		fmt.Fprintln(os.Stderr, "update:", err)
		os.Exit(exitSysError)
	}

	if updateContent != "" {
		entry.Content = updateContent
	}
	if updateClearDue {
		entry.Due = nil
	} else if updateDue != "" {
		due, err := parseDue(updateDue)
		if err != nil {
			fmt.Fprintln(os.Stderr, "update:", err)
			os.Exit(exitUserError)
		}
		entry.Due = &due
	}
	if categoryChanged {
		if updateCategory == 0 {
			entry.CategoryID = nil
		} else {
			entry.CategoryID = &updateCategory
		}
	}
	if updatePayload != "" {
		payload, err := parsePayload(updatePayload)
		if err != nil {
			fmt.Fprintln(os.Stderr, "update:", err)
			os.Exit(exitUserError)
		}
		entry.Payload = payload
	}

	if err := store.UpdateEntry(*entry); err != nil {
		switch {
		case errors.Is(err, types.ErrInvalidCategory):
			fmt.Fprintf(os.Stderr, "update: category %d does not exist\n", updateCategory)
			os.Exit(exitUserError)
		case errors.Is(err, types.ErrInvalidContent):
			fmt.Fprintln(os.Stderr, "update: content must not be empty")
			os.Exit(exitUserError)
		default:
			fmt.Fprintln(os.Stderr, "update:", err)
			os.Exit(exitSysError)
		}
	}

	if flagJSON {
		updated, err := store.GetEntry(id)
		if err != nil {
			fmt.Fprintln(os.Stderr, "update:", err)
			os.Exit(exitSysError)
		}
		return printJSON(updated)
	}
	fmt.Printf("Updated task %d\n", id)
	return nil
}
