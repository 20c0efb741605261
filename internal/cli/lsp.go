package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/iniref/internal/lsp"
)

var lspWatch bool

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Start the Language Server Protocol server",
	Long: `Start a Language Server Protocol (LSP) server over stdin/stdout.

The server publishes diagnostics as files are opened and edited, and answers
definition, references and hover requests for section names.

Configure your editor to run this command for .ini files.

Examples:
  iniref lsp
  iniref lsp --watch --log-level debug
  iniref lsp --workspace /path/to/mod`,
	Args: cobra.NoArgs,
	RunE: runLSP,
}

func init() {
	lspCmd.Flags().BoolVar(&lspWatch, "watch", false, "Also pick up changes made outside the editor")
	rootCmd.AddCommand(lspCmd)
}

func runLSP(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	server := lsp.NewServer(lsp.Config{
		Workspace: ws,
		Input:     os.Stdin,
		Output:    os.Stdout,
		Watch:     lspWatch,
	})
	return server.Run(ctx)
}
