package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/iniref/internal/check"
	"github.com/aidanlsb/iniref/internal/corpus"
	"github.com/aidanlsb/iniref/internal/ui"
	"github.com/aidanlsb/iniref/internal/watcher"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the workspace and re-check files as they change",
	Long: `Watches the workspace for file changes, updates the index incrementally
and prints the diagnostics of every changed file.

Edits to the schema file reload the type dictionary and re-check the whole
corpus. With --json each batch is written as one JSON object per line.

The debounce delay defaults to watch.debounce in iniref.yaml (150ms).

Examples:
  iniref watch
  iniref watch --debounce 500ms`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "Delay after the last change before rebuilding")
	rootCmd.AddCommand(watchCmd)
}

// watchEvent is the JSON line written for each batch.
type watchEvent struct {
	Changed        []string      `json:"changed,omitempty"`
	Removed        []string      `json:"removed,omitempty"`
	SchemaReloaded bool          `json:"schema_reloaded,omitempty"`
	Error          string        `json:"error,omitempty"`
	Files          []fileResult  `json:"files"`
	Summary        check.Summary `json:"summary"`
}

func runWatch(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	w, err := watcher.New(watcher.Config{
		Workspace:     ws,
		DebounceDelay: watchDebounce,
		OnBatch: func(b watcher.Batch) {
			reportBatch(ctx, ws, b)
		},
	})
	if err != nil {
		return handleError(ErrInternal, err, "")
	}

	if !isJSONOutput() {
		printf("Watching %s\n", ui.FilePath(ws.Root))
		printLine(ui.Hint("Press Ctrl+C to stop"))
	}

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return handleError(ErrInternal, err, "")
	}
	if !isJSONOutput() {
		fmt.Fprintln(os.Stderr, "\nStopped watching")
	}
	return nil
}

// reportBatch re-validates what a batch touched and prints the result.
func reportBatch(ctx context.Context, ws *corpus.Workspace, b watcher.Batch) {
	paths := b.Changed
	if b.SchemaReloaded {
		paths = ws.Engine.Paths()
	}

	event := watchEvent{
		Changed:        b.Changed,
		Removed:        b.Removed,
		SchemaReloaded: b.SchemaReloaded,
		Files:          make([]fileResult, 0, len(paths)),
	}
	if b.Err != nil {
		event.Error = b.Err.Error()
	}

	var all []check.Diagnostic
	for _, path := range paths {
		diags, err := ws.Engine.Validate(ctx, path, nil)
		if err != nil {
			// The file was removed between the batch and now.
			continue
		}
		all = append(all, diags...)
		fr := fileResult{Path: path, Diagnostics: make([]diagnosticJSON, 0, len(diags))}
		for _, d := range diags {
			fr.Diagnostics = append(fr.Diagnostics, toDiagnosticJSON(d))
		}
		event.Files = append(event.Files, fr)
	}
	event.Summary = check.Summarize(all)

	if isJSONOutput() {
		writeJSONLine(event)
		return
	}

	stamp := ui.Hint(time.Now().Format("15:04:05"))
	if b.SchemaReloaded {
		printf("%s %s\n", stamp, ui.Info("schema reloaded"))
	}
	for _, path := range b.Removed {
		printf("%s %s removed\n", stamp, ui.FilePath(path))
	}
	if b.Err != nil {
		printf("%s %s\n", stamp, ui.Warning(b.Err.Error()))
	}
	for _, f := range event.Files {
		if len(f.Diagnostics) == 0 {
			continue
		}
		printLine(ui.FilePath(f.Path))
		for _, d := range f.Diagnostics {
			printLine(ui.DiagnosticLine(d.Range.Start.Line, d.Range.Start.Character, d.Level, d.Rule, d.Message))
		}
	}
	s := event.Summary
	printf("%s %s in %s\n", stamp, ui.SummaryCounts(s.Errors, s.Warnings, s.Infos), pluralCount(len(paths), "file", "files"))
}
