package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/iniref/internal/check"
	"github.com/aidanlsb/iniref/internal/ui"
)

var explainCmd = &cobra.Command{
	Use:   "explain [rule]",
	Short: "Describe validation rules",
	Long: `Without arguments, lists every rule. With a rule code or number,
renders that rule's documentation.

Examples:
  iniref explain
  iniref explain T001
  iniref explain STYLE_COMMENT_SPACING`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return listRules()
		}

		info, ok := check.Lookup(args[0])
		if !ok {
			return handleErrorMsg(ErrRuleNotFound, "unknown rule: "+args[0], "Run 'iniref explain' to list rules")
		}
		if isJSONOutput() {
			outputSuccess(info, nil)
			return nil
		}

		rendered, err := ui.RenderMarkdown(ruleMarkdown(info), ui.NewDisplayContext().AvailableWidth(ui.MarkdownRenderMargin))
		if err != nil {
			return err
		}
		printf("%s", rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

func listRules() error {
	rules := check.Rules()
	if isJSONOutput() {
		outputSuccess(map[string]interface{}{"rules": rules}, &Meta{Count: len(rules)})
		return nil
	}
	tbl := ui.NewTable(nil, "RULE", "CODE", "SEVERITY", "TITLE")
	tbl.StyleFirstColumn(ui.Accent)
	for _, r := range rules {
		tbl.AddRow(r.Number, string(r.Code), r.Severity.String(), r.Title)
	}
	printf("%s", tbl.Render())
	return nil
}

// ruleMarkdown builds the documentation page for one rule.
func ruleMarkdown(info check.RuleInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s %s\n\n", info.Number, info.Code)
	fmt.Fprintf(&sb, "**%s**\n\n", info.Title)
	fmt.Fprintf(&sb, "Family: %s. Default severity: %s.\n\n", info.Family, strings.ToLower(info.Severity.String()))
	sb.WriteString(info.Doc)
	sb.WriteString("\n")
	return sb.String()
}
