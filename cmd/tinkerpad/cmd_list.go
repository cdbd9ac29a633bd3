package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tinkerpad/internal/state"
)

// listCmd shows the fragments of a notebook and their lifecycle states.
var listCmd = &cobra.Command{
	Use:   "list <notebook.md>",
	Short: "List notebook fragments and their execution states",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		notebook := args[0]
		ns, err := openNotebook(notebook)
		if err != nil {
			return err
		}
		defer ns.close()

		if err := ns.reparse(notebook); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tLINE\tSTATE\tLAST RUN")
		entries := ns.session.GetAllStates()
		for _, f := range ns.session.Fragments() {
			st := ns.session.GetState(f.ID)
			lastRun := "-"
			if entry, ok := entries[f.ID]; ok && st != state.NotExecuted && !entry.LastExecutedAt.IsZero() {
				lastRun = entry.LastExecutedAt.Local().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				f.ID, f.Kind, f.SourceRange.Start.Line+1, st, lastRun)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
