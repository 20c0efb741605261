package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aidanlsb/iniref/internal/config"
	"github.com/aidanlsb/iniref/internal/corpus"
	"github.com/aidanlsb/iniref/internal/ui"
)

// openWorkspace loads the resolved workspace, mapping failures to CLI error
// codes. The returned error has already been reported in JSON mode.
func openWorkspace() (*corpus.Workspace, error) {
	spinner := ui.NewSpinner("Indexing workspace")
	if !jsonOutput {
		spinner.Start()
	}
	ws, err := corpus.Open(getWorkspaceRoot())
	spinner.Stop()

	if err == nil {
		return ws, nil
	}
	switch {
	case errors.Is(err, config.ErrNoManifest):
		return nil, handleError(ErrWorkspaceNotFound, err, "Run 'iniref init "+getWorkspaceRoot()+"' to create a manifest")
	case errors.Is(err, fs.ErrNotExist):
		return nil, handleError(ErrSchemaNotFound, err, "Check the schema path in "+config.ManifestFile)
	default:
		return nil, handleError(ErrConfigInvalid, err, "")
	}
}

// readWarnings converts files that could not be read into JSON warnings.
func readWarnings(ws *corpus.Workspace) []Warning {
	var out []Warning
	for _, f := range ws.Failed {
		out = append(out, Warning{
			Code:    ErrFileReadError,
			Message: f.Error.Error(),
			Path:    f.RelativePath,
		})
	}
	return out
}

// workspacePath turns a command-line path into an engine key. Paths that
// exist relative to the working directory win; anything else is taken as
// workspace-relative.
func workspacePath(ws *corpus.Workspace, arg string) string {
	if !filepath.IsAbs(arg) {
		if _, err := os.Stat(arg); err == nil {
			if abs, err := filepath.Abs(arg); err == nil {
				return ws.Rel(abs)
			}
		}
	}
	return ws.Rel(arg)
}
