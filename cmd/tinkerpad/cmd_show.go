package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var showJSON bool

// showCmd renders the stored result of one fragment without re-running it.
var showCmd = &cobra.Command{
	Use:   "show <notebook.md> <fragment-id>",
	Short: "Render the last stored result of a fragment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		notebook, id := args[0], args[1]
		ns, err := openNotebook(notebook)
		if err != nil {
			return err
		}
		defer ns.close()

		if showJSON {
			value, ok := ns.session.ExportResult(id)
			if !ok {
				return fmt.Errorf("no stored result for %q", id)
			}
			data, err := json.MarshalIndent(value, "", "  ")
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			fmt.Fprintln(os.Stdout, string(data))
			return nil
		}

		rendered, ok := ns.session.RenderResult(id)
		if !ok {
			return fmt.Errorf("no stored result for %q", id)
		}
		fmt.Fprintln(os.Stdout, rendered)
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "re-export the structural value as JSON")
	rootCmd.AddCommand(showCmd)
}
