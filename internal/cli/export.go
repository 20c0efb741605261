package cli

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/iniref/internal/logging"
	"github.com/aidanlsb/iniref/internal/store"
	"github.com/aidanlsb/iniref/internal/ui"
)

var exportDBPath string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the index and diagnostics to a SQLite database",
	Long: `Exports files, sections, references, inheritance edges, registry
members and diagnostics to SQLite for ad-hoc SQL queries.

The database is rebuilt from scratch on every export. Without --db the path
comes from export.path in iniref.yaml, or .iniref/<workspace>.db.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		ws, err := openWorkspace()
		if err != nil {
			return err
		}

		path := exportDBPath
		if path == "" {
			path = ws.Manifest.ExportPath(ws.Root)
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		diags, err := ws.Engine.ValidateAll(ctx)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}

		spinner := ui.NewSpinner("Exporting")
		if !isJSONOutput() {
			spinner.Start()
		}
		stats, err := store.Export(ctx, path, ws.Engine.Snapshot(), diags)
		spinner.Stop()
		if err != nil {
			if errors.Is(err, store.ErrExportLocked) {
				return handleError(ErrDatabaseLocked, err, "Wait for the other export to finish")
			}
			return handleError(ErrDatabaseError, err, "")
		}

		logging.Info("export finished", "path", path, "sections", stats.SectionCount,
			"diagnostics", stats.Diagnostics, "duration_ms", time.Since(start).Milliseconds())

		if isJSONOutput() {
			outputSuccessWithWarnings(map[string]interface{}{
				"path":  path,
				"stats": stats,
			}, readWarnings(ws), &Meta{DurationMs: time.Since(start).Milliseconds()})
			return nil
		}
		printLine(ui.Successf("exported to %s", ui.FilePath(path)))
		printf("  %d files, %d sections, %d references (%d undefined), %d inheritance edges, %d registry members, %d diagnostics\n",
			stats.FileCount, stats.SectionCount, stats.RefCount, stats.UndefinedRefs,
			stats.InheritEdges, stats.RegistryMembers, stats.Diagnostics)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportDBPath, "db", "", "Database path (default from iniref.yaml)")
	rootCmd.AddCommand(exportCmd)
}
