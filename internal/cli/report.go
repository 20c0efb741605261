package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/iniref/internal/check"
	"github.com/aidanlsb/iniref/internal/index"
	"github.com/aidanlsb/iniref/internal/store"
	"github.com/aidanlsb/iniref/internal/ui"
)

var (
	reportTypes        []string
	reportUndefined    bool
	reportUndefinedKey string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize the corpus: counts, rule hits, cycles and registries",
	Long: `Builds the index into an in-memory database and prints a debug report:
row counts, diagnostics per rule, inheritance cycles and registry sizes.

Examples:
  iniref report
  iniref report --type WeaponType --type WarheadType
  iniref report --undefined --key Warhead`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringSliceVar(&reportTypes, "type", nil, "Also list sections resolved to these types")
	reportCmd.Flags().BoolVar(&reportUndefined, "undefined", false, "Also list values that name no defined section")
	reportCmd.Flags().StringVar(&reportUndefinedKey, "key", "", "Limit --undefined to one key")
	rootCmd.AddCommand(reportCmd)
}

type cycleJSON struct {
	Location index.Location `json:"location"`
	Message  string         `json:"message"`
}

type registryStat struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Members int    `json:"members"`
}

type reportJSON struct {
	Stats      *store.Stats       `json:"stats"`
	Rules      []store.CodeCount  `json:"rules"`
	Cycles     []cycleJSON        `json:"cycles"`
	Registries []registryStat     `json:"registries"`
	Sections   []store.SectionRow `json:"sections,omitempty"`
	Undefined  []string           `json:"undefined,omitempty"`
}

func runReport(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	diags, err := ws.Engine.ValidateAll(ctx)
	if err != nil {
		return handleError(ErrInternal, err, "")
	}
	snap := ws.Engine.Snapshot()

	db, err := store.OpenInMemory()
	if err != nil {
		return handleError(ErrDatabaseError, err, "")
	}
	defer db.Close()
	if err := db.WriteSnapshot(ctx, snap, diags); err != nil {
		return handleError(ErrDatabaseError, err, "")
	}

	report := reportJSON{Cycles: []cycleJSON{}, Registries: []registryStat{}}
	if report.Stats, err = db.Stats(); err != nil {
		return handleError(ErrDatabaseError, err, "")
	}
	if report.Rules, err = db.DiagnosticsByCode(); err != nil {
		return handleError(ErrDatabaseError, err, "")
	}
	if len(reportTypes) > 0 {
		if report.Sections, err = db.SectionsOfType(reportTypes...); err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
	}
	if reportUndefined {
		if report.Undefined, err = db.UndefinedReferences(reportUndefinedKey); err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
	}
	report.Cycles = collectCycles(diags)
	for _, r := range snap.Index.Registries() {
		report.Registries = append(report.Registries, registryStat{Name: r.Name, Type: r.Type, Members: len(r.Members)})
	}

	if isJSONOutput() {
		outputSuccessWithWarnings(report, readWarnings(ws), nil)
		return nil
	}
	printReport(report)
	return nil
}

func collectCycles(diags map[string][]check.Diagnostic) []cycleJSON {
	out := []cycleJSON{}
	for path, list := range diags {
		for _, d := range list {
			if d.Code != check.CodeInheritanceCycle {
				continue
			}
			out = append(out, cycleJSON{
				Location: index.Location{
					Path:  path,
					Line:  d.Range.Start.Line,
					Start: d.Range.Start.Character,
					End:   d.Range.End.Character,
				},
				Message: d.Message,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Location.Path != out[j].Location.Path {
			return out[i].Location.Path < out[j].Location.Path
		}
		return out[i].Location.Line < out[j].Location.Line
	})
	return out
}

func printReport(r reportJSON) {
	s := r.Stats
	printLine(ui.Header("Corpus"))
	tbl := ui.NewTable(nil)
	tbl.AddRow("files", fmt.Sprint(s.FileCount))
	tbl.AddRow("sections", fmt.Sprint(s.SectionCount))
	tbl.AddRow("references", fmt.Sprintf("%d (%d undefined)", s.RefCount, s.UndefinedRefs))
	tbl.AddRow("inheritance edges", fmt.Sprint(s.InheritEdges))
	tbl.AddRow("registry members", fmt.Sprint(s.RegistryMembers))
	tbl.AddRow("diagnostics", fmt.Sprint(s.Diagnostics))
	printf("%s\n", tbl.Render())

	if len(r.Rules) > 0 {
		printLine(ui.Header("Diagnostics by rule"))
		rules := ui.NewTable(nil)
		for _, c := range r.Rules {
			number := ""
			if info, ok := check.Lookup(c.Code); ok {
				number = info.Number
			}
			rules.AddRow(number, c.Code, c.Severity, fmt.Sprint(c.Count))
		}
		printf("%s\n", rules.Render())
	}

	printLine(ui.Header("Inheritance cycles"))
	if len(r.Cycles) == 0 {
		printLine(ui.Hint("  none"))
	}
	for _, c := range r.Cycles {
		printf("  %s  %s\n", ui.FilePath(formatLocation(c.Location)), c.Message)
	}
	printLine()

	if len(r.Registries) > 0 {
		printLine(ui.Header("Registries"))
		regs := ui.NewTable(nil).StyleFirstColumn(ui.Accent)
		for _, reg := range r.Registries {
			regs.AddRow(reg.Name, reg.Type, fmt.Sprint(reg.Members))
		}
		printf("%s\n", regs.Render())
	}

	if len(r.Sections) > 0 {
		printLine(ui.Header("Sections"))
		secs := ui.NewTable(nil).StyleFirstColumn(ui.Accent)
		for _, sec := range r.Sections {
			secs.AddRow("["+sec.Name+"]", sec.Type, fmt.Sprintf("%s:%d", sec.FilePath, sec.Line+1))
		}
		printf("%s\n", secs.Render())
	}

	if len(r.Undefined) > 0 {
		printLine(ui.Header("Undefined values"))
		for _, v := range r.Undefined {
			printf("  %s\n", v)
		}
	}
}
