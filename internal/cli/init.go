package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/iniref/internal/config"
	"github.com/aidanlsb/iniref/internal/ui"
)

var (
	initName     string
	initRegister bool
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a workspace manifest",
	Long: `Creates an iniref workspace at path (default: the current directory).

Creates:
  - iniref.yaml  (workspace manifest)
  - .iniref/     (export directory)
  - .gitignore   (ignores derived files)

An existing manifest is kept. --register also adds the workspace to the
global config so --workspace <name> finds it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initName, "name", "", "Workspace name (default: directory name)")
	initCmd.Flags().BoolVar(&initRegister, "register", false, "Add the workspace to the global config")
	rootCmd.AddCommand(initCmd)
}

type initResult struct {
	Root             string `json:"root"`
	Name             string `json:"name"`
	CreatedManifest  bool   `json:"created_manifest"`
	Gitignore        string `json:"gitignore"`
	RegisteredConfig string `json:"registered_config,omitempty"`
}

var gitignoreEntries = []string{".iniref/"}

func runInit(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}
	root, err := filepath.Abs(path)
	if err != nil {
		return handleError(ErrInvalidInput, err, "")
	}
	name := initName
	if name == "" {
		name = filepath.Base(root)
	}

	if err := os.MkdirAll(filepath.Join(root, ".iniref"), 0o755); err != nil {
		return handleError(ErrFileWriteError, err, "")
	}

	gitignore, err := ensureGitignore(root)
	if err != nil {
		return handleError(ErrFileWriteError, err, "")
	}

	created, err := config.CreateDefaultWorkspace(root, name)
	if err != nil {
		return handleError(ErrFileWriteError, err, "")
	}

	result := initResult{Root: root, Name: name, CreatedManifest: created, Gitignore: gitignore}
	if initRegister {
		cfgFile := configPath
		if cfgFile == "" {
			cfgFile = config.DefaultPath()
		}
		if err := config.AddWorkspace(cfgFile, name, root); err != nil {
			return handleError(ErrConfigInvalid, err, "")
		}
		result.RegisteredConfig = cfgFile
	}

	if isJSONOutput() {
		outputSuccess(result, nil)
		return nil
	}

	printf("Initializing workspace at: %s\n", ui.FilePath(root))
	if created {
		printLine(ui.Success("Created " + config.ManifestFile))
	} else {
		printLine(ui.Hint("• " + config.ManifestFile + " already exists (kept)"))
	}
	printLine(ui.Success("Ensured .iniref/ directory exists"))
	switch gitignore {
	case "created":
		printLine(ui.Success("Created .gitignore"))
	case "updated":
		printLine(ui.Success("Updated .gitignore (added iniref entries)"))
	default:
		printLine(ui.Hint("• .gitignore already has iniref entries"))
	}
	if result.RegisteredConfig != "" {
		printLine(ui.Successf("Registered %q in %s", name, result.RegisteredConfig))
	}
	if created {
		printLine("\nSet 'schema' in " + config.ManifestFile + " to enable type checks.")
	}
	return nil
}

// ensureGitignore adds the iniref entries to root/.gitignore. It reports
// "created", "updated" or "unchanged".
func ensureGitignore(root string) (string, error) {
	path := filepath.Join(root, ".gitignore")
	existing := ""
	if data, err := os.ReadFile(path); err == nil {
		existing = string(data)
	}

	var missing []string
	for _, entry := range gitignoreEntries {
		if !strings.Contains(existing, entry) {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return "unchanged", nil
	}

	status := "created"
	var content string
	if existing == "" {
		content = "# iniref (auto-generated)\n# Exported index databases, rebuilt with 'iniref export'\n.iniref/\n"
	} else {
		status = "updated"
		content = strings.TrimRight(existing, "\n") + "\n\n# iniref\n" + strings.Join(missing, "\n") + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return status, nil
}
