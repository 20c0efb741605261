package cli

import (
	"context"
	"errors"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/aidanlsb/iniref/internal/logging"
	mcpserver "github.com/aidanlsb/iniref/internal/mcp"
	"github.com/aidanlsb/iniref/internal/watcher"
)

var mcpWatch bool

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the index to agents over the Model Context Protocol",
	Long: `Runs an MCP server on stdin/stdout exposing find_section,
find_references, type_for_section, keys_for_type and validate_file.

Examples:
  iniref mcp
  iniref mcp --watch`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().BoolVar(&mcpWatch, "watch", false, "Rebuild the index when files change")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if mcpWatch {
		log := logging.Component("mcp")
		w, err := watcher.New(watcher.Config{
			Workspace: ws,
			OnBatch: func(b watcher.Batch) {
				if b.Err != nil {
					log.Warn("watch batch failed", "error", b.Err)
				}
			},
		})
		if err != nil {
			return err
		}
		go func() {
			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("watcher stopped", "error", err)
			}
		}()
	}

	err = mcpserver.NewServer(ws.Engine).Run(ctx, &sdk.StdioTransport{})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
