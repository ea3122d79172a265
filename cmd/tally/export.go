// Export command writes the store as JSONL files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <dir>",
	Short: "Export the store as JSONL files",
	Long: `Export writes entries.jsonl and categories.jsonl under the given
directory as one consistent snapshot, suitable for versioning or for
"tally import" into a fresh store.

Example:
  tally export ./backup`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := attachBackend()
		if err != nil {
			fmt.Fprintln(os.Stderr, "export:", err)
			os.Exit(exitSysError)
		}
		defer store.Detach()

		if err := store.Export(args[0]); err != nil {
			fmt.Fprintln(os.Stderr, "export:", err)
			os.Exit(exitSysError)
		}

		fmt.Println("Exported to", args[0])
		return nil
	},
}
