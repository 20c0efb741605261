package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/iniref/internal/atomicfile"
	"github.com/aidanlsb/iniref/internal/check"
	"github.com/aidanlsb/iniref/internal/corpus"
	"github.com/aidanlsb/iniref/internal/engine"
	"github.com/aidanlsb/iniref/internal/ui"
)

var (
	checkStrict   bool
	checkFix      bool
	checkDisable  []string
	checkSeverity = newSeverityValue(check.SeverityHint)
	checkRange    lineRangeValue
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Validate corpus files against the schema",
	Long: `Checks corpus files for style, type and logic problems.

With no paths every indexed file is checked. --range limits the check to a
1-based, inclusive line range of a single file.

Exit status is 1 when errors are found, or warnings with --strict.

Examples:
  iniref check
  iniref check rules.ini --range 120:180
  iniref check --severity warn --json
  iniref check --fix`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "Treat warnings as errors")
	checkCmd.Flags().BoolVar(&checkFix, "fix", false, "Apply available fixes to files on disk")
	checkCmd.Flags().StringSliceVar(&checkDisable, "disable", nil, "Rule codes or numbers to skip (e.g. S001,STYLE_COMMENT_SPACING)")
	checkCmd.Flags().Var(checkSeverity, "severity", "Least severe level to report: error, warn, info, hint")
	checkCmd.Flags().Var(&checkRange, "range", "Line range START:END (1-based, inclusive) for a single file")
	rootCmd.AddCommand(checkCmd)
}

// fileResult is the check outcome for one file.
type fileResult struct {
	Path        string           `json:"path"`
	Diagnostics []diagnosticJSON `json:"diagnostics"`
}

// diagnosticJSON adds the rule number and severity label to a diagnostic.
type diagnosticJSON struct {
	check.Diagnostic
	Rule  string `json:"rule"`
	Level string `json:"level"`
}

type checkResult struct {
	Files   []fileResult  `json:"files"`
	Summary check.Summary `json:"summary"`
	Fixed   int           `json:"fixed,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	start := time.Now()

	if checkRange.set && len(args) != 1 {
		return handleErrorMsg(ErrInvalidInput, "--range needs exactly one file", "iniref check rules.ini --range 10:20")
	}
	disabled, err := parseDisabled(checkDisable)
	if err != nil {
		return handleError(ErrInvalidInput, err, "Run 'iniref explain' to list rule codes")
	}

	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	paths, err := checkPaths(ws, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	fixed := 0
	if checkFix {
		fixed, err = applyFixes(ctx, ws, paths)
		if err != nil {
			return handleError(ErrFileWriteError, err, "")
		}
	}

	result := checkResult{Files: make([]fileResult, 0, len(paths)), Fixed: fixed}
	var all []check.Diagnostic
	for _, path := range paths {
		diags, err := ws.Engine.Validate(ctx, path, checkRange.lineRange())
		if err != nil {
			return handleError(ErrInternal, err, "")
		}
		diags = filterDiagnostics(diags, disabled)
		all = append(all, diags...)

		fr := fileResult{Path: path, Diagnostics: make([]diagnosticJSON, 0, len(diags))}
		for _, d := range diags {
			fr.Diagnostics = append(fr.Diagnostics, toDiagnosticJSON(d))
		}
		result.Files = append(result.Files, fr)
	}
	result.Summary = check.Summarize(all)

	if isJSONOutput() {
		outputSuccessWithWarnings(result, readWarnings(ws), &Meta{
			Count:      len(all),
			DurationMs: time.Since(start).Milliseconds(),
		})
	} else {
		printCheckResult(ws, result)
	}

	if result.Summary.Errors > 0 || (checkStrict && result.Summary.Warnings > 0) {
		return &exitError{code: 1}
	}
	return nil
}

// checkPaths returns the engine keys to check, in order.
func checkPaths(ws *corpus.Workspace, args []string) ([]string, error) {
	if len(args) == 0 {
		return ws.Engine.Paths(), nil
	}
	var paths []string
	seen := make(map[string]bool)
	for _, arg := range args {
		path := workspacePath(ws, arg)
		if _, ok := ws.Engine.Document(path); !ok {
			return nil, handleErrorWithDetails(ErrFileNotFound,
				"not an indexed corpus file: "+arg,
				"Check the include/exclude globs in iniref.yaml",
				map[string]string{"path": path})
		}
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
	}
	return paths, nil
}

// parseDisabled resolves --disable entries, accepting codes or rule numbers.
func parseDisabled(names []string) (map[check.Code]bool, error) {
	out := make(map[check.Code]bool, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		info, ok := check.Lookup(name)
		if !ok {
			return nil, errors.New("unknown rule: " + name)
		}
		out[info.Code] = true
	}
	return out, nil
}

func filterDiagnostics(diags []check.Diagnostic, disabled map[check.Code]bool) []check.Diagnostic {
	out := diags[:0:0]
	for _, d := range diags {
		if disabled[d.Code] || !checkSeverity.includes(d.Severity) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func toDiagnosticJSON(d check.Diagnostic) diagnosticJSON {
	out := diagnosticJSON{Diagnostic: d, Level: d.Severity.String()}
	if info, ok := check.Lookup(string(d.Code)); ok {
		out.Rule = info.Number
	}
	return out
}

// applyFixes rewrites every file that has fixable diagnostics and feeds the
// new content back to the engine. It returns the number of edits applied.
func applyFixes(ctx context.Context, ws *corpus.Workspace, paths []string) (int, error) {
	total := 0
	var changes []engine.Change
	for _, path := range paths {
		doc, ok := ws.Engine.Document(path)
		if !ok {
			continue
		}
		diags, err := ws.Engine.Validate(ctx, path, checkRange.lineRange())
		if err != nil {
			return total, err
		}
		lines, applied := check.ApplyFixes(doc.Lines, diags)
		if applied == 0 {
			continue
		}

		newline := "\n"
		if strings.Contains(doc.Text, "\r\n") {
			newline = "\r\n"
		}
		content := strings.Join(lines, newline)
		if err := atomicfile.WriteFile(ws.Abs(path), []byte(content), 0o644); err != nil {
			return total, err
		}
		total += applied
		changes = append(changes, engine.Change{
			Kind: engine.ChangeUpsert,
			File: engine.File{Path: path, Content: content, Category: doc.Category},
		})
	}
	ws.Engine.ApplyChanges(changes)
	return total, nil
}

func printCheckResult(ws *corpus.Workspace, result checkResult) {
	files := append([]fileResult(nil), result.Files...)
	sort.SliceStable(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	for _, f := range files {
		if len(f.Diagnostics) == 0 {
			continue
		}
		printLine(ui.FilePath(f.Path))
		for _, d := range f.Diagnostics {
			printLine(ui.DiagnosticLine(d.Range.Start.Line, d.Range.Start.Character, d.Level, d.Rule, d.Message))
		}
		printLine()
	}

	for _, failed := range ws.Failed {
		printLine(ui.Warningf("could not read %s: %v", failed.RelativePath, failed.Error))
	}
	if result.Fixed > 0 {
		printLine(ui.Successf("applied %d %s", result.Fixed, pluralWord("fix", "fixes", result.Fixed)))
	}

	s := result.Summary
	summary := ui.SummaryCounts(s.Errors, s.Warnings, s.Infos) + " in " + pluralCount(len(files), "file", "files")
	if s.Errors == 0 && s.Warnings == 0 {
		printLine(ui.Success(summary))
	} else {
		printLine(ui.Error(summary))
	}
}

func pluralWord(singular, plural string, n int) string {
	if n == 1 {
		return singular
	}
	return plural
}

func pluralCount(n int, singular, plural string) string {
	return fmt.Sprintf("%d %s", n, pluralWord(singular, plural, n))
}
