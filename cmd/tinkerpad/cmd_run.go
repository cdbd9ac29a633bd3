package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// runCmd executes fragments of a notebook.
var runCmd = &cobra.Command{
	Use:   "run <notebook.md> [fragment-id...]",
	Short: "Execute notebook fragments and store their results",
	Long: `Parses the notebook, assigns fragment ids, and executes either the
named fragments or every fragment in source order. References to earlier
results ($tinker_outputs.<id>) are substituted before execution; a fragment
whose references form a cycle is refused before the interpreter is invoked.`,
	Args: cobra.MinimumNArgs(1),
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
		if len(ns.session.Fragments()) == 0 {
			fmt.Fprintln(os.Stdout, "no fragments found")
			return nil
		}

		if len(args) > 1 {
			var failed bool
			for _, id := range args[1:] {
				report, err := ns.session.Run(cmd.Context(), id)
				if err != nil {
					failed = true
					fmt.Fprintf(os.Stderr, "%s: %v\n", id, err)
					continue
				}
				printReport(os.Stdout, report)
				if report.Result.Failed() {
					failed = true
				}
			}
			if failed {
				return fmt.Errorf("one or more fragments failed")
			}
			return nil
		}

		reports, failures := ns.session.RunAll(cmd.Context())
		for _, report := range reports {
			printReport(os.Stdout, report)
		}
		for id, err := range failures {
			fmt.Fprintf(os.Stderr, "%s: %v\n", id, err)
		}
		if len(failures) > 0 {
			return fmt.Errorf("%d fragment(s) failed", len(failures))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
