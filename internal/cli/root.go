// Package cli implements the command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/iniref/internal/config"
	"github.com/aidanlsb/iniref/internal/logging"
	"github.com/aidanlsb/iniref/internal/ui"
)

var (
	// Global flags
	workspaceFlag string // path or configured name
	configPath    string
	logLevelFlag  string
	logFormatFlag string

	// Resolved values
	resolvedWorkspaceRoot string
	cfg                   *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "iniref",
	Short: "Cross-reference indexer and validator for INI rule corpora",
	Long: `iniref indexes the sections of an INI game-mod corpus, resolves the
schema type of every section, and validates keys and values against a
schema written in the same INI dialect.

A workspace is a directory holding an iniref.yaml manifest. Run
'iniref init' to create one.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadGlobalConfig()
		if err != nil {
			return handleError(ErrConfigInvalid, err, "Fix or remove the config file")
		}
		if err := setupLogging(cmd); err != nil {
			return handleError(ErrInvalidInput, err, "Use --log-level debug|info|warn|error and --log-format text|json")
		}

		ui.ConfigureTheme(cfg.UI.Accent)
		ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)
		if jsonOutput || !ui.ColorEnabled(os.Stdout) {
			ui.DisableColor()
		}

		if !needsWorkspace(cmd) {
			return nil
		}
		root, err := resolveWorkspaceRoot()
		if err != nil {
			return handleError(ErrWorkspaceNotFound, err, "Run 'iniref init' or pass --workspace")
		}
		resolvedWorkspaceRoot = root
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.Execute()
	if err == nil {
		return nil
	}
	var exit *exitError
	if !errors.As(err, &exit) {
		fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
	}
	return err
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	return 1
}

// exitError ends the process with a code after output was already written.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspaceFlag, "workspace", "w", "", "Workspace directory or configured workspace name")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error (default warn)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Log format: text or json (default text)")
}

// needsWorkspace reports whether cmd operates on a workspace.
func needsWorkspace(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "init", "version", "explain", "help", "completion":
			return false
		}
	}
	return true
}

func loadGlobalConfig() (*config.Config, error) {
	var (
		loaded *config.Config
		err    error
	)
	if strings.TrimSpace(configPath) != "" {
		loaded, err = config.LoadFrom(configPath)
	} else {
		loaded, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		loaded = &config.Config{}
	}
	return loaded, nil
}

// setupLogging initializes the shared logger. Flags override the config
// file; logs always go to stderr so stdout stays parseable.
func setupLogging(cmd *cobra.Command) error {
	levelName := cfg.Log.Level
	if cmd.Flags().Changed("log-level") || levelName == "" {
		levelName = logLevelFlag
	}
	if levelName == "" {
		levelName = "warn"
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}

	formatName := cfg.Log.Format
	if cmd.Flags().Changed("log-format") || formatName == "" {
		formatName = logFormatFlag
	}
	format, err := logging.ParseFormat(formatName)
	if err != nil {
		return err
	}

	logging.Init(level, format, os.Stderr)
	return nil
}

// resolveWorkspaceRoot picks the workspace: --workspace as a directory, then
// as a configured name, then the configured default, then the nearest
// directory above the working directory holding a manifest.
func resolveWorkspaceRoot() (string, error) {
	if workspaceFlag != "" {
		if st, err := os.Stat(workspaceFlag); err == nil && st.IsDir() {
			return filepath.Abs(workspaceFlag)
		}
		path, err := cfg.WorkspacePath(workspaceFlag)
		if err != nil {
			return "", fmt.Errorf("workspace not found: %s", workspaceFlag)
		}
		return path, nil
	}

	if cfg.DefaultWorkspace != "" {
		return cfg.WorkspacePath("")
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root, err := config.FindWorkspaceRoot(wd)
	if err != nil {
		return "", fmt.Errorf(`no workspace specified

Either:
  1. Run iniref inside a directory containing %s
  2. Use --workspace /path/to/workspace or --workspace <name>
  3. Set default_workspace in %s
  4. Run 'iniref init' to create one`, config.ManifestFile, config.DefaultPath())
	}
	return root, nil
}

// getWorkspaceRoot returns the resolved workspace root.
func getWorkspaceRoot() string {
	return resolvedWorkspaceRoot
}
