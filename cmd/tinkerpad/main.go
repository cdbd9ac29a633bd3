// tinkerpad runs executable PHP fragments embedded in markdown notebooks.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tinkerpad/internal/config"
	"tinkerpad/internal/engine"
	"tinkerpad/internal/phpexec"
	"tinkerpad/internal/render"
	"tinkerpad/internal/state"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tinkerpad",
	Short: "tinkerpad - executable PHP notebooks in markdown",
	Long: `tinkerpad treats a markdown document as a notebook of executable PHP
fragments. Fenced blocks tagged ` + "```php or ```tinker" + ` are parsed into
fragments, executed through an external PHP interpreter (or artisan tinker
inside a Laravel project), and their results are remembered so later
fragments can refer back with $tinker_outputs.<id>.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stderr"}
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to tinkerpad.yaml")
}

// notebookSession wires up a full engine session for one notebook file and
// loads persisted state. The returned closer releases the sink.
type notebookSession struct {
	cfg     *config.Config
	store   *state.Store
	session *engine.Session
	close   func()
}

func openNotebook(path string) (*notebookSession, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	sink, closeSink, err := buildSink(cfg, path)
	if err != nil {
		return nil, err
	}
	store := state.NewStore(sink, logger)
	if err := store.Load(); err != nil {
		// Soft failure: the notebook still works, history is just gone.
		logger.Warn("could not load persisted state", zap.Error(err))
	}

	project := cfg.PHP.Project
	if project == "" {
		if located, ok := phpexec.LocateProject(filepath.Dir(path)); ok {
			project = located
		}
	}

	timeout, err := cfg.RunTimeout()
	if err != nil {
		closeSink()
		return nil, err
	}

	session := engine.New(engine.Config{
		Store:       store,
		Primary:     phpexec.NewPHPRunner(cfg.PHP.Binary, logger),
		Secondary:   phpexec.NewTinkerRunner(cfg.PHP.Binary, logger),
		ProjectPath: project,
		Render:      renderOptions(cfg),
		Timeout:     timeout,
		Logger:      logger,
	})

	return &notebookSession{cfg: cfg, store: store, session: session, close: closeSink}, nil
}

// reparse reads the notebook from disk and refreshes the session's
// fragments and ids.
func (ns *notebookSession) reparse(path string) error {
	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read notebook: %w", err)
	}
	fragments := ns.session.Parse(path, string(text))
	ns.session.AssignIDs(fragments)
	return nil
}

func buildSink(cfg *config.Config, notebook string) (state.Sink, func(), error) {
	switch cfg.State.Driver {
	case "", "file":
		path := cfg.State.Path
		if path == "" {
			path = notebook + ".state.json"
		}
		return state.NewFileSink(path), func() {}, nil
	case "sqlite":
		path := cfg.State.Path
		if path == "" {
			path = notebook + ".state.db"
		}
		sink, err := state.NewSQLiteSink(path)
		if err != nil {
			return nil, nil, err
		}
		return sink, func() { _ = sink.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown state driver %q", cfg.State.Driver)
}

func renderOptions(cfg *config.Config) render.Options {
	return render.Options{
		Collapsible:     cfg.Render.Collapsible,
		MaxDepth:        cfg.Render.MaxDepth,
		HighlightSyntax: cfg.Render.HighlightSyntax,
		ShowLineNumbers: cfg.Render.ShowLineNumbers,
		Section:         "result",
	}
}

func printReport(w io.Writer, report *engine.RunReport) {
	status := "ok"
	if report.Result.Failed() {
		status = "error"
	}
	fmt.Fprintf(w, "── %s [%s, %s, %dms]\n", report.FragmentID, status, report.Type, report.Result.DurationMs)
	if report.Rendered != "" {
		fmt.Fprintln(w, report.Rendered)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
