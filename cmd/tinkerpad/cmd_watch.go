package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tinkerpad/internal/watch"
)

// watchCmd re-runs the notebook every time the file changes on disk.
var watchCmd = &cobra.Command{
	Use:   "watch <notebook.md>",
	Short: "Watch a notebook and re-run its fragments on save",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		notebook := args[0]
		ns, err := openNotebook(notebook)
		if err != nil {
			return err
		}
		defer ns.close()

		runOnce := func(path string) {
			if err := ns.reparse(path); err != nil {
				logger.Warn("reparse failed", zap.Error(err))
				return
			}
			reports, failures := ns.session.RunAll(cmd.Context())
			for _, report := range reports {
				printReport(os.Stdout, report)
			}
			for id, ferr := range failures {
				fmt.Fprintf(os.Stderr, "%s: %v\n", id, ferr)
			}
		}

		w, err := watch.New(notebook, runOnce, logger)
		if err != nil {
			return err
		}
		if err := w.Start(cmd.Context()); err != nil {
			return err
		}
		defer w.Stop()

		runOnce(notebook)
		fmt.Fprintf(os.Stderr, "watching %s (ctrl-c to stop)\n", notebook)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sig:
		case <-cmd.Context().Done():
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
