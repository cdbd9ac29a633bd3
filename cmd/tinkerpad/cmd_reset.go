package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// resetCmd clears all persisted execution state for a notebook.
var resetCmd = &cobra.Command{
	Use:   "reset <notebook.md>",
	Short: "Forget all execution states and results for a notebook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ns, err := openNotebook(args[0])
		if err != nil {
			return err
		}
		defer ns.close()

		ns.store.ClearAll()
		if err := ns.store.Save(); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "state cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
