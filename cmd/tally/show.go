// Show command displays one task with full details.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Display a task with full details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "show:", err)
			os.Exit(exitUserError)
		}

		store, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "show:", err)
			os.Exit(exitSysError)
		}
		defer store.Detach()

		entry, err := store.GetEntry(id)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				fmt.Fprintf(os.Stderr, "task %d not found\n", id)
				os.Exit(exitUserError)
			}
			fmt.Fprintln(os.Stderr, "show:", err)
			os.Exit(exitSysError)
		}

		var category *types.Category
		if entry.CategoryID != nil {
			category, err = store.GetCategory(*entry.CategoryID)
			if err != nil {
				fmt.Fprintln(os.Stderr, "show:", err)
				os.Exit(exitSysError)
			}
		}

		if flagJSON {
			return printJSON(&types.EntryWithCategory{Entry: entry, Category: category})
		}

		fmt.Printf("ID:       %d\n", entry.EntryID)
		fmt.Printf("Task:     %s\n", entry.Content)
		if category != nil {
			fmt.Printf("Category: %s (#%d)\n", category.Description, category.CategoryID)
		} else {
			fmt.Println("Category: -")
		}
		if entry.Due != nil {
			fmt.Printf("Due:      %s\n", entry.Due.Format("2006-01-02 15:04:05"))
		} else {
			fmt.Println("Due:      -")
		}
		if len(entry.Payload) > 0 {
			text, err := json.Marshal(entry.Payload)
			if err != nil {
				fmt.Fprintln(os.Stderr, "show:", err)
				os.Exit(exitSysError)
			}
			fmt.Printf("Payload:  %s\n", text)
		}
		return nil
	},
}
