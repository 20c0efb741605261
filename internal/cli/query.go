package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/iniref/internal/config"
	"github.com/aidanlsb/iniref/internal/index"
	"github.com/aidanlsb/iniref/internal/ui"
)

var queryCategory string

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the cross-reference index",
	Long: `Look up sections, references, types and inheritance in the workspace.

Line and column numbers in JSON output are 0-based.`,
}

var querySectionCmd = &cobra.Command{
	Use:   "section <name>",
	Short: "Show where a section is defined and its resolved type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		name := args[0]
		locs := ws.Engine.FindSectionLocations(name)
		if len(locs) == 0 {
			return handleErrorWithDetails(ErrSectionNotFound,
				fmt.Sprintf("section [%s] is not defined", name),
				"Run 'iniref query refs "+name+"' to see where it is used",
				map[string]string{"section": name})
		}
		typ := ws.Engine.TypeForSection(name)

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"name":      name,
				"type":      typ,
				"locations": locs,
			}, &Meta{Count: len(locs)})
			return nil
		}
		printf("%s  %s\n", ui.SectionName(name), ui.Hint(typ))
		printLocations(locs)
		return nil
	},
}

var queryRefsCmd = &cobra.Command{
	Use:   "refs <value>",
	Short: "List every place a value is used, including inline parents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		value := args[0]
		refs := ws.Engine.FindReferenceDetails(value)
		inherit := ws.Engine.FindInheritanceReferences(value)
		if refs == nil {
			refs = []index.Reference{}
		}
		if inherit == nil {
			inherit = []index.Location{}
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"value":       value,
				"references":  refs,
				"inheritance": inherit,
			}, &Meta{Count: len(refs) + len(inherit)})
			return nil
		}
		if len(refs) == 0 && len(inherit) == 0 {
			printLine(ui.Hint("no references to " + value))
			return nil
		}
		tbl := ui.NewTable(nil, "LOCATION", "SECTION", "KEY")
		tbl.StyleFirstColumn(ui.Accent)
		for _, r := range refs {
			tbl.AddRow(formatLocation(r.Location), "["+r.Section+"]", r.Key)
		}
		for _, l := range inherit {
			tbl.AddRow(formatLocation(l), "", "(parent)")
		}
		printf("%s", tbl.Render())
		return nil
	},
}

var queryTypeCmd = &cobra.Command{
	Use:   "type <section>",
	Short: "Resolve the schema type of a section",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		section := args[0]
		typ := ws.Engine.TypeForSection(section)
		registry, _ := ws.Engine.RegistryFor(section)
		chain, cyclic := ws.Engine.InheritanceChain(section, queryCategory)

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"section":           section,
				"type":              typ,
				"resolved":          typ != section || ws.Engine.AllKeysForType(typ).Len() > 0,
				"registry":          registry,
				"inheritance_chain": chain,
				"cyclic":            cyclic,
			}, nil)
			return nil
		}
		printf("%s  %s\n", ui.SectionName(section), ui.Bold.Render(typ))
		if registry != "" {
			printf("  registry  %s\n", registry)
		}
		if len(chain) > 1 {
			printf("  inherits  %s\n", formatChain(chain, cyclic))
		}
		return nil
	},
}

var queryKeysCmd = &cobra.Command{
	Use:   "keys <type>",
	Short: "List the merged keys of a schema type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		if !ws.Engine.IsSchemaLoaded() {
			return handleErrorMsg(ErrSchemaNotLoaded, "no schema loaded", "Set 'schema' in "+config.ManifestFile)
		}
		name := args[0]
		snap := ws.Engine.Snapshot()
		if _, ok := snap.Schema.Type(name); !ok {
			return handleErrorMsg(ErrTypeNotFound, "unknown type: "+name, "Run 'iniref query type <section>' to resolve a section's type")
		}

		keys := ws.Engine.AllKeysForType(name)
		type keyJSON struct {
			Name      string `json:"name"`
			ValueType string `json:"value_type"`
			Category  string `json:"category"`
			Target    string `json:"target,omitempty"`
		}
		out := make([]keyJSON, 0, keys.Len())
		for _, key := range keys.Names() {
			vt, _ := keys.Get(key)
			out = append(out, keyJSON{Name: key, ValueType: vt.Name, Category: vt.Category.String(), Target: vt.Target})
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{"type": name, "keys": out}, &Meta{Count: len(out)})
			return nil
		}
		tbl := ui.NewTable(nil, "KEY", "VALUE TYPE", "CATEGORY")
		for _, k := range out {
			tbl.AddRow(k.Name, k.ValueType, k.Category)
		}
		printf("%s", tbl.Render())
		return nil
	},
}

var queryInheritCmd = &cobra.Command{
	Use:   "inherit <section>",
	Short: "Show the inline parent chain and children of a section",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		section := args[0]
		parent, hasParent := ws.Engine.Inheritance(section, queryCategory)
		chain, cyclic := ws.Engine.InheritanceChain(section, queryCategory)
		children := ws.Engine.FindInheritanceReferences(section)
		if children == nil {
			children = []index.Location{}
		}

		if isJSONOutput() {
			data := map[string]interface{}{
				"section":  section,
				"category": queryCategory,
				"chain":    chain,
				"cyclic":   cyclic,
				"children": children,
			}
			if hasParent {
				data["parent"] = parent
			}
			outputSuccess(data, &Meta{Count: len(children)})
			return nil
		}
		printf("%s\n", formatChain(chain, cyclic))
		if len(children) > 0 {
			printLine(ui.Header("Inherited by"))
			printLocations(children)
		}
		return nil
	},
}

var queryKeyLocCmd = &cobra.Command{
	Use:   "keyloc <section> <key>",
	Short: "Find where a section gets a key from along its inheritance chain",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		section, key := args[0], args[1]
		kl, ok := ws.Engine.FindKeyLocationRecursive(section, key, queryCategory)
		if !ok {
			return handleErrorWithDetails(ErrKeyNotFound,
				fmt.Sprintf("[%s] has no key %s in its inheritance chain", section, key),
				"", map[string]string{"section": section, "key": key})
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"section":  section,
				"key":      key,
				"definer":  kl.Definer,
				"location": kl.Location,
			}, nil)
			return nil
		}
		printf("%s  %s %s\n", formatLocation(kl.Location), ui.SectionName(kl.Definer), key)
		return nil
	},
}

var queryRegistryCmd = &cobra.Command{
	Use:   "registry [name]",
	Short: "List registries, or the IDs listed in one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := openWorkspace()
		if err != nil {
			return err
		}
		snap := ws.Engine.Snapshot()

		if len(args) == 0 {
			type registryJSON struct {
				Name    string `json:"name"`
				Type    string `json:"type"`
				Members int    `json:"members"`
			}
			regs := snap.Index.Registries()
			out := make([]registryJSON, 0, len(regs))
			for _, r := range regs {
				out = append(out, registryJSON{Name: r.Name, Type: r.Type, Members: len(r.Members)})
			}
			if isJSONOutput() {
				outputSuccess(map[string]interface{}{"registries": out}, &Meta{Count: len(out)})
				return nil
			}
			tbl := ui.NewTable(nil, "REGISTRY", "TYPE", "MEMBERS")
			tbl.StyleFirstColumn(ui.Accent)
			for _, r := range out {
				tbl.AddRow(r.Name, r.Type, fmt.Sprint(r.Members))
			}
			printf("%s", tbl.Render())
			return nil
		}

		reg, ok := snap.Index.Registry(args[0])
		if !ok {
			return handleErrorMsg(ErrRegistryNotFound, "no registry named "+args[0], "Run 'iniref query registry' to list registries")
		}
		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"name":    reg.Name,
				"type":    reg.Type,
				"members": reg.Members,
			}, &Meta{Count: len(reg.Members)})
			return nil
		}
		printf("%s  %s\n", ui.SectionName(reg.Name), ui.Hint(reg.Type))
		for _, id := range reg.Members {
			printf("  %s\n", id)
		}
		return nil
	},
}

func init() {
	queryCmd.PersistentFlags().StringVar(&queryCategory, "category", config.DefaultCategory, "File category used for inline inheritance")
	queryCmd.AddCommand(querySectionCmd, queryRefsCmd, queryTypeCmd, queryKeysCmd,
		queryInheritCmd, queryKeyLocCmd, queryRegistryCmd)
	rootCmd.AddCommand(queryCmd)
}

// formatLocation renders a location as the 1-based path:line:col editors
// accept.
func formatLocation(l index.Location) string {
	return fmt.Sprintf("%s:%d:%d", l.Path, l.Line+1, l.Start+1)
}

func printLocations(locs []index.Location) {
	for _, l := range locs {
		printf("  %s\n", ui.FilePath(formatLocation(l)))
	}
}

// formatChain renders "A -> B -> C", marking a cycle.
func formatChain(chain []string, cyclic bool) string {
	out := strings.Join(chain, " -> ")
	if cyclic {
		out += " -> (cycle)"
	}
	return out
}
